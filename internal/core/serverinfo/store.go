// Package serverinfo 提供内存中的服务器元数据存储
//
// Store 按环境分组保存 types.ServerInfo，实现 interfaces.ServerInfoSource，
// 并在环境锁定时向订阅者同步发出 types.EnvironmentLocked。
//
// 元数据的持久化不在本包范围内：启动时由配置或外部协作方灌入。
package serverinfo

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/lib/log"
	"github.com/dep2p/go-remotenet/pkg/types"
)

var logger = log.Logger("core/serverinfo")

var (
	// ErrUnknownEnvironment 环境不存在
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrEnvironmentLocked 环境已锁定，不能再修改
	ErrEnvironmentLocked = errors.New("environment is locked")
)

// Store 服务器元数据存储
type Store struct {
	clock clock.Clock

	mu      sync.RWMutex
	envs    map[string]map[types.NodeKey]types.ServerInfo
	active  string
	locked  map[string]struct{}
	subs    map[uint64]func(types.EnvironmentLocked)
	nextSub uint64
}

var _ interfaces.ServerInfoSource = (*Store)(nil)

// Option 存储选项
type Option func(*Store)

// WithClock 指定时钟，测试用
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithEnvironment 指定当前环境，ServerInfo 只在该环境内查找
func WithEnvironment(env string) Option {
	return func(s *Store) {
		s.active = env
	}
}

// New 创建存储并灌入初始元数据
func New(infos []types.ServerInfo, opts ...Option) (*Store, error) {
	s := &Store{
		clock:  clock.New(),
		envs:   make(map[string]map[types.NodeKey]types.ServerInfo),
		locked: make(map[string]struct{}),
		subs:   make(map[uint64]func(types.EnvironmentLocked)),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, info := range infos {
		if err := s.Put(info); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ============================================================================
//                              读写
// ============================================================================

// Put 写入或覆盖一条元数据
func (s *Store) Put(info types.ServerInfo) error {
	key, err := info.NodeKey()
	if err != nil {
		return err
	}
	if _, err := info.SocksProxy(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locked[info.Environment]; ok {
		return fmt.Errorf("%w: %q", ErrEnvironmentLocked, info.Environment)
	}
	servers, ok := s.envs[info.Environment]
	if !ok {
		servers = make(map[types.NodeKey]types.ServerInfo)
		s.envs[info.Environment] = servers
	}
	servers[key] = info
	return nil
}

// Remove 删除一条元数据
func (s *Store) Remove(env string, key types.NodeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locked[env]; ok {
		return fmt.Errorf("%w: %q", ErrEnvironmentLocked, env)
	}
	delete(s.envs[env], key)
	return nil
}

// ServerInfo 在当前环境中查找节点元数据
//
// 未指定当前环境时按环境名升序在全部环境中查找。
func (s *Store) ServerInfo(key types.NodeKey) (types.ServerInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active != "" {
		info, ok := s.envs[s.active][key]
		return info, ok
	}
	for _, env := range s.sortedEnvs() {
		if info, ok := s.envs[env][key]; ok {
			return info, true
		}
	}
	return types.ServerInfo{}, false
}

// Servers 返回某个环境的全部元数据，按节点标识排序
func (s *Store) Servers(env string) []types.ServerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serversLocked(env)
}

// Environments 返回全部环境名（升序）
func (s *Store) Environments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedEnvs()
}

// Active 返回当前环境
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// ============================================================================
//                              锁定与通知
// ============================================================================

// Subscribe 订阅环境锁定事件，返回取消函数
//
// 回调在 Lock 的调用 goroutine 中同步执行。
func (s *Store) Subscribe(cb func(types.EnvironmentLocked)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = cb
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Lock 锁定环境，设为当前环境并通知订阅者
//
// 锁定后该环境的元数据不可再修改。重复锁定同一环境会再次发出事件。
func (s *Store) Lock(env string) (types.EnvironmentLocked, error) {
	s.mu.Lock()
	if _, ok := s.envs[env]; !ok {
		s.mu.Unlock()
		return types.EnvironmentLocked{}, fmt.Errorf("%w: %q", ErrUnknownEnvironment, env)
	}
	s.locked[env] = struct{}{}
	s.active = env

	evt := types.EnvironmentLocked{
		Environment: env,
		Servers:     s.serversLocked(env),
		LockedAt:    s.clock.Now(),
	}
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	callbacks := make([]func(types.EnvironmentLocked), len(ids))
	for i, id := range ids {
		callbacks[i] = s.subs[id]
	}
	s.mu.Unlock()

	logger.Info("环境已锁定", "environment", env, "servers", len(evt.Servers), "subscribers", len(callbacks))

	// 按订阅顺序通知
	for _, cb := range callbacks {
		cb(evt)
	}
	return evt, nil
}

// IsLocked 判断环境是否已锁定
func (s *Store) IsLocked(env string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.locked[env]
	return ok
}

func (s *Store) serversLocked(env string) []types.ServerInfo {
	servers := s.envs[env]
	keys := make([]types.NodeKey, 0, len(servers))
	for k := range servers {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b types.NodeKey) int {
		return cmp.Compare(a.String(), b.String())
	})
	out := make([]types.ServerInfo, len(keys))
	for i, k := range keys {
		out[i] = servers[k]
	}
	return out
}

func (s *Store) sortedEnvs() []string {
	envs := make([]string, 0, len(s.envs))
	for env := range s.envs {
		envs = append(envs, env)
	}
	slices.Sort(envs)
	return envs
}
