package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/types"
)

// ============================================================================
//                              SchemeTable - 方案到工厂的映射
// ============================================================================

// SchemeTable 传输方案工厂表
//
// 两级查找：先按内置方案精确匹配，再按扩展标识精确（大小写敏感）匹配，
// 都没有则返回 *UnsupportedSchemeError。新增方案只需注册 标识/工厂 对。
type SchemeTable struct {
	mu       sync.RWMutex
	builtins map[types.Builtin]interfaces.ClientFactory
	exts     map[string]interfaces.ClientFactory
}

// NewSchemeTable 创建空工厂表
func NewSchemeTable() *SchemeTable {
	return &SchemeTable{
		builtins: make(map[types.Builtin]interfaces.ClientFactory),
		exts:     make(map[string]interfaces.ClientFactory),
	}
}

// Register 注册工厂，同一方案重复注册时后者覆盖前者
func (t *SchemeTable) Register(schema types.Schema, factory interfaces.ClientFactory) error {
	if factory == nil {
		return ErrNilFactory
	}
	if schema.IsZero() {
		return fmt.Errorf("register factory: %w", types.ErrInvalidSchema)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if schema.IsBuiltin() {
		if _, ok := t.builtins[schema.Builtin()]; ok {
			logger.Warn("覆盖已注册的内置方案工厂", "schema", schema.String())
		}
		t.builtins[schema.Builtin()] = factory
	} else {
		name, _ := schema.Extension()
		if _, ok := t.exts[name]; ok {
			logger.Warn("覆盖已注册的扩展方案工厂", "schema", name)
		}
		t.exts[name] = factory
	}

	logger.Debug("注册传输方案工厂", "schema", schema.String(), "builtin", schema.IsBuiltin())
	return nil
}

// Lookup 查找方案对应的工厂
func (t *SchemeTable) Lookup(schema types.Schema) (interfaces.ClientFactory, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if schema.IsBuiltin() {
		if f, ok := t.builtins[schema.Builtin()]; ok {
			return f, nil
		}
		return nil, &UnsupportedSchemeError{Schema: schema}
	}
	if name, ok := schema.Extension(); ok {
		if f, ok := t.exts[name]; ok {
			return f, nil
		}
	}
	return nil, &UnsupportedSchemeError{Schema: schema}
}

// LookupName 按原始标识查找工厂
//
// 先与内置方案名精确比较，再查扩展标识。不做大小写折叠。
func (t *SchemeTable) LookupName(name string) (interfaces.ClientFactory, error) {
	for _, b := range types.Builtins() {
		if b.String() == name {
			return t.Lookup(types.BuiltinSchema(b))
		}
	}

	t.mu.RLock()
	f, ok := t.exts[name]
	t.mu.RUnlock()
	if ok {
		return f, nil
	}

	schema, err := types.Extension(name)
	if err != nil {
		// 非法标识也按不支持处理，保留原始字符串便于排查
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedScheme, name)
	}
	return nil, &UnsupportedSchemeError{Schema: schema}
}

// Schemes 返回已注册的方案标识（内置在前，各自排序）
func (t *SchemeTable) Schemes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var builtins []string
	for _, b := range types.Builtins() {
		if _, ok := t.builtins[b]; ok {
			builtins = append(builtins, b.String())
		}
	}
	exts := make([]string, 0, len(t.exts))
	for name := range t.exts {
		exts = append(exts, name)
	}
	sort.Strings(exts)
	return append(builtins, exts...)
}
