package types

import "fmt"

// GenericKey 类型化能力键
//
// 由逻辑名称和幽灵类型参数 T 组成。两个键相等当且仅当名称相等；
// T 只用于在存取时提供静态类型检查，避免调用方做未检查的类型断言。
//
// 通常声明为包级变量，之后不再修改：
//
//	var KeyRegistry = types.NewGenericKey[*registry.Registry]("registry")
type GenericKey[T any] struct {
	name string
}

// NewGenericKey 创建类型化能力键
func NewGenericKey[T any](name string) GenericKey[T] {
	return GenericKey[T]{name: name}
}

// Name 返回键名
func (k GenericKey[T]) Name() string {
	return k.name
}

// String 返回 "name<T>" 形式的描述
func (k GenericKey[T]) String() string {
	return k.name + "<" + typeName[T]() + ">"
}

// Cast 将存储的值转换为 T
func (k GenericKey[T]) Cast(v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}

func typeName[T any]() string {
	var zero *T
	s := fmt.Sprintf("%T", zero)
	return s[1:]
}
