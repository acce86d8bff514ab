// Package ctxstore 提供类型化的能力存储
//
// 应用上下文按 types.GenericKey 存放共享对象（注册表、编排器、代理服务器等），
// 取值时由键的类型参数保证静态类型，调用方无需做类型断言。
package ctxstore

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dep2p/go-remotenet/pkg/lib/log"
	"github.com/dep2p/go-remotenet/pkg/types"
)

var logger = log.Logger("core/ctxstore")

var (
	// ErrKeyAlreadySet 键已经写入过
	ErrKeyAlreadySet = errors.New("context key already set")

	// ErrKeyNotFound 键不存在
	ErrKeyNotFound = errors.New("context key not found")

	// ErrKeyTypeMismatch 存储值与键声明的类型不一致
	ErrKeyTypeMismatch = errors.New("context key type mismatch")
)

// Store 能力存储
//
// 每个键只能写入一次，之后只读；并发读写安全。
type Store struct {
	values sync.Map // name -> any
}

// New 创建空存储
func New() *Store {
	return &Store{}
}

// Set 写入键值
func Set[T any](s *Store, key types.GenericKey[T], v T) error {
	if _, loaded := s.values.LoadOrStore(key.Name(), v); loaded {
		return fmt.Errorf("%w: %s", ErrKeyAlreadySet, key)
	}
	logger.Debug("写入上下文键", "key", key.String())
	return nil
}

// Get 读取键值
//
// 键不存在时 ok 为 false；键存在但类型不符时返回 ErrKeyTypeMismatch。
func Get[T any](s *Store, key types.GenericKey[T]) (v T, ok bool, err error) {
	raw, found := s.values.Load(key.Name())
	if !found {
		return v, false, nil
	}
	v, ok = key.Cast(raw)
	if !ok {
		return v, false, fmt.Errorf("%w: %s holds %T", ErrKeyTypeMismatch, key, raw)
	}
	return v, true, nil
}

// MustGet 读取键值，不存在或类型不符时 panic
func MustGet[T any](s *Store, key types.GenericKey[T]) T {
	v, ok, err := Get(s, key)
	if err != nil {
		panic(err)
	}
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrKeyNotFound, key))
	}
	return v
}

// Has 判断键是否存在
func (s *Store) Has(name string) bool {
	_, ok := s.values.Load(name)
	return ok
}

// Keys 返回全部键名（已排序）
func (s *Store) Keys() []string {
	var names []string
	s.values.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}
