package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/types"
)

// 注册表状态
const (
	stateCreated int32 = iota
	stateRunning
	stateClosed
)

// ============================================================================
//                              Registry 结构
// ============================================================================

// Registry 远端节点客户端注册表
type Registry struct {
	cfg     Config
	schemes *SchemeTable
	source  interfaces.ServerInfoSource
	clock   clock.Clock
	metrics *metrics

	state atomic.Int32

	// entries types.NodeKey -> *entry，命中路径无锁
	entries sync.Map

	// flights 按 "节点#纪元" 合并并发构造
	flights singleflight.Group

	// installMu 串行化安装与驱逐。节点有构造进行中时，驱逐为其分配新纪元，
	// 构造开始时记录的纪元与安装时不一致则丢弃构造结果。
	// epochs 只保留有构造进行中的节点，纪元取自全局递增的 epochSeq，不会复用。
	installMu sync.Mutex
	epochs    map[types.NodeKey]uint64
	epochSeq  uint64
	inflight  map[types.NodeKey]int

	// overrides 锁定环境下发的服务器元数据，优先于 source
	overridesMu sync.RWMutex
	overrides   map[types.NodeKey]types.ServerInfo
	locked      map[string]time.Time

	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// Option 注册表选项
type Option func(*Registry)

// WithSchemeTable 使用外部工厂表
func WithSchemeTable(t *SchemeTable) Option {
	return func(r *Registry) {
		if t != nil {
			r.schemes = t
		}
	}
}

// WithServerInfoSource 设置服务器元数据来源
func WithServerInfoSource(src interfaces.ServerInfoSource) Option {
	return func(r *Registry) {
		r.source = src
	}
}

// WithClock 设置时钟，测试中用于注入 clock.Mock
func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithRegisterer 设置 Prometheus 指标注册器
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Registry) {
		r.metrics = newMetrics(reg, r.cfg.MetricsNamespace)
	}
}

// New 创建注册表
func New(cfg Config, opts ...Option) *Registry {
	if cfg.ConstructTimeout <= 0 {
		cfg.ConstructTimeout = 10 * time.Second
	}
	if cfg.LivenessTimeout <= 0 {
		cfg.LivenessTimeout = 3 * time.Second
	}

	r := &Registry{
		cfg:       cfg,
		schemes:   NewSchemeTable(),
		clock:     clock.New(),
		epochs:    make(map[types.NodeKey]uint64),
		inflight:  make(map[types.NodeKey]int),
		overrides: make(map[types.NodeKey]types.ServerInfo),
		locked:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = newMetrics(nil, cfg.MetricsNamespace)
	}
	return r
}

// Schemes 返回工厂表
func (r *Registry) Schemes() *SchemeTable {
	return r.schemes
}

// RegisterFactory 为传输方案注册客户端工厂
func (r *Registry) RegisterFactory(schema types.Schema, factory interfaces.ClientFactory) error {
	return r.schemes.Register(schema, factory)
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动注册表
func (r *Registry) Start(_ context.Context) error {
	r.installMu.Lock()
	defer r.installMu.Unlock()

	switch r.state.Load() {
	case stateRunning:
		return nil
	case stateClosed:
		return ErrRegistryClosed
	}
	r.state.Store(stateRunning)

	if r.cfg.LivenessInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		r.loopCancel = cancel
		r.loopDone = make(chan struct{})
		ticker := r.clock.Ticker(r.cfg.LivenessInterval)
		go r.livenessLoop(ctx, ticker)
	}

	logger.Info("客户端注册表已启动",
		"schemes", r.schemes.Schemes(),
		"constructTimeout", r.cfg.ConstructTimeout,
		"livenessInterval", r.cfg.LivenessInterval)
	return nil
}

// Stop 停止注册表并驱逐全部客户端
//
// 停止后 Resolve 返回 ErrRegistryClosed；正在进行的构造在安装时会被丢弃。
func (r *Registry) Stop(_ context.Context) error {
	r.installMu.Lock()
	if r.state.Load() == stateClosed {
		r.installMu.Unlock()
		return nil
	}
	r.state.Store(stateClosed)
	cancel, done := r.loopCancel, r.loopDone
	r.installMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	err := r.evictAll(reasonShutdown)
	logger.Info("客户端注册表已停止", "error", err)
	return err
}

// ============================================================================
//                              Resolve
// ============================================================================

// Resolve 返回节点对应的客户端，必要时构造
//
// 同一节点的并发调用只触发一次工厂调用，所有调用方得到同一个客户端或同一个错误。
// 调用方 ctx 结束只影响自身的等待，共享构造继续进行。
func (r *Registry) Resolve(ctx context.Context, key types.NodeKey) (interfaces.RemoteClient, error) {
	switch r.state.Load() {
	case stateCreated:
		return nil, ErrRegistryNotRunning
	case stateClosed:
		return nil, ErrRegistryClosed
	}

	if err := key.Validate(); err != nil {
		r.metrics.resolve(resultInvalid)
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidNodeKey, err)
	}

	if e, ok := r.lookup(key); ok {
		e.touch(r.clock.Now())
		r.metrics.resolve(resultHit)
		return e.client, nil
	}

	factory, err := r.schemes.Lookup(key.Schema)
	if err != nil {
		r.metrics.resolve(resultUnsupported)
		return nil, err
	}

	r.installMu.Lock()
	epoch := r.epochs[key]
	r.installMu.Unlock()

	flight := key.String() + "#" + strconv.FormatUint(epoch, 10)
	detached := context.WithoutCancel(ctx)
	ch := r.flights.DoChan(flight, func() (any, error) {
		return r.construct(detached, key, epoch, factory)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			r.metrics.resolve(resultError)
			return nil, res.Err
		}
		e := res.Val.(*entry)
		e.touch(r.clock.Now())
		r.metrics.resolve(resultMiss)
		return e.client, nil
	case <-ctx.Done():
		r.metrics.resolve(resultCanceled)
		return nil, &ClientConstructionError{Key: key, Err: ctx.Err()}
	}
}

// lookup 查询缓存
func (r *Registry) lookup(key types.NodeKey) (*entry, bool) {
	v, ok := r.entries.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// construct 调用工厂构造客户端并安装到缓存
//
// 在 singleflight 内执行，同一 (节点, 纪元) 同时只有一个。
func (r *Registry) construct(ctx context.Context, key types.NodeKey, epoch uint64, factory interfaces.ClientFactory) (*entry, error) {
	r.beginConstruct(key)
	defer r.endConstruct(key)

	// 上一轮构造可能刚刚安装完成
	if e, ok := r.lookup(key); ok {
		return e, nil
	}

	info, found := r.serverInfo(key)
	var proxy *types.SocksProxy
	if found {
		p, err := info.SocksProxy()
		if err != nil {
			r.metrics.construction(key.Schema.String(), resultError)
			return nil, &ClientConstructionError{Key: key, Err: err}
		}
		proxy = p
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.ConstructTimeout)
	defer cancel()

	begin := r.clock.Now()
	client, err := factory(ctx, key, proxy)
	if err == nil && client == nil {
		err = errNilClient
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = multierr.Append(err, ctxErr)
		}
		r.metrics.construction(key.Schema.String(), resultError)
		logger.Warn("客户端构造失败", "node", key.String(), "proxied", proxy != nil, "error", err)
		return nil, &ClientConstructionError{Key: key, Err: err}
	}
	r.metrics.construction(key.Schema.String(), resultOK)

	now := r.clock.Now()
	e := newEntry(client, proxy, info.Environment, now)

	r.installMu.Lock()
	if r.state.Load() != stateRunning || r.epochs[key] != epoch {
		r.installMu.Unlock()
		closeErr := client.Close()
		logger.Debug("构造期间节点被驱逐，丢弃客户端", "node", key.String(), "client", client.ID())
		return nil, &ClientConstructionError{Key: key, Err: multierr.Append(errEvictedDuringConstruction, closeErr)}
	}
	actual, loaded := r.entries.LoadOrStore(key, e)
	r.installMu.Unlock()

	if loaded {
		_ = client.Close()
		return actual.(*entry), nil
	}
	r.metrics.installed()

	logger.Info("客户端已构造",
		"node", key.String(),
		"client", client.ID(),
		"proxied", proxy != nil,
		"elapsed", now.Sub(begin))
	return e, nil
}

// serverInfo 查询节点元数据：锁定环境覆盖优先，其次 source
func (r *Registry) serverInfo(key types.NodeKey) (types.ServerInfo, bool) {
	r.overridesMu.RLock()
	info, ok := r.overrides[key]
	r.overridesMu.RUnlock()
	if ok {
		return info, true
	}
	if r.source != nil {
		return r.source.ServerInfo(key)
	}
	return types.ServerInfo{}, false
}

// ============================================================================
//                              驱逐
// ============================================================================

// Evict 移除并关闭节点的客户端
//
// 节点不在缓存中时什么都不做。正在进行的同节点构造结果会被丢弃，
// 因此 Evict 之后的 Resolve 一定会重新构造。
func (r *Registry) Evict(key types.NodeKey) error {
	return r.evict(key, reasonExplicit)
}

// EvictAll 驱逐全部客户端，关闭错误聚合返回
func (r *Registry) EvictAll() error {
	return r.evictAll(reasonExplicit)
}

// beginConstruct 登记进行中的构造
func (r *Registry) beginConstruct(key types.NodeKey) {
	r.installMu.Lock()
	r.inflight[key]++
	r.installMu.Unlock()
}

// endConstruct 注销构造，最后一个构造结束时释放节点的纪元记录
func (r *Registry) endConstruct(key types.NodeKey) {
	r.installMu.Lock()
	defer r.installMu.Unlock()
	if r.inflight[key]--; r.inflight[key] <= 0 {
		delete(r.inflight, key)
		delete(r.epochs, key)
	}
}

func (r *Registry) evict(key types.NodeKey, reason string) error {
	r.installMu.Lock()
	if r.inflight[key] > 0 {
		r.epochSeq++
		r.epochs[key] = r.epochSeq
	}
	v, ok := r.entries.LoadAndDelete(key)
	r.installMu.Unlock()

	if !ok {
		return nil
	}
	e := v.(*entry)
	r.metrics.evicted(reason)

	if err := e.client.Close(); err != nil {
		logger.Warn("关闭客户端失败", "node", key.String(), "client", e.client.ID(), "error", err)
		return &EvictionError{Key: key, ClientID: e.client.ID(), Err: err}
	}
	logger.Debug("客户端已驱逐", "node", key.String(), "client", e.client.ID(), "reason", reason)
	return nil
}

func (r *Registry) evictAll(reason string) error {
	var errs error
	r.entries.Range(func(k, _ any) bool {
		errs = multierr.Append(errs, r.evict(k.(types.NodeKey), reason))
		return true
	})
	return errs
}

// Len 返回缓存的客户端数量
func (r *Registry) Len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
