package types

import (
	"fmt"
	"strings"
)

// ============================================================================
//                              Builtin - 内置传输方案
// ============================================================================

// Builtin 内置传输方案（HTTP 族）
//
// 变体在编译期固定，switch 可穷举。
type Builtin uint8

const (
	// BuiltinNone 非内置方案（扩展标识）
	BuiltinNone Builtin = iota
	// BuiltinHTTP 明文 HTTP
	BuiltinHTTP
	// BuiltinHTTPS HTTP over TLS
	BuiltinHTTPS
	// BuiltinWSS WebSocket over TLS
	BuiltinWSS
)

// String 返回内置方案名
func (b Builtin) String() string {
	switch b {
	case BuiltinHTTP:
		return "HTTP"
	case BuiltinHTTPS:
		return "HTTPS"
	case BuiltinWSS:
		return "WSS"
	default:
		return ""
	}
}

// Builtins 返回全部内置方案
func Builtins() []Builtin {
	return []Builtin{BuiltinHTTP, BuiltinHTTPS, BuiltinWSS}
}

// builtinByName 内置方案名（大小写敏感）
func builtinByName(name string) Builtin {
	for _, b := range Builtins() {
		if b.String() == name {
			return b
		}
	}
	return BuiltinNone
}

// ============================================================================
//                              Schema - 传输方案
// ============================================================================

// Schema 传输方案标识
//
// 带标签的变体：要么是内置方案（builtin != BuiltinNone），
// 要么是携带任意字符串的扩展方案。Schema 是可比较的值类型。
type Schema struct {
	builtin Builtin
	ext     string
}

// 内置方案
var (
	SchemaHTTP  = Schema{builtin: BuiltinHTTP}
	SchemaHTTPS = Schema{builtin: BuiltinHTTPS}
	SchemaWSS   = Schema{builtin: BuiltinWSS}
)

// 预留的扩展方案标识，由外部子系统解析
var (
	SchemaKAYAK = MustExtension("KAYAK")
	SchemaECIF  = MustExtension("ECIF")
	SchemaGXP   = MustExtension("GXP")
)

// BuiltinSchema 返回内置方案对应的 Schema
func BuiltinSchema(b Builtin) Schema {
	return Schema{builtin: b}
}

// Extension 创建扩展方案
//
// 扩展标识大小写敏感，不能为空，不能包含空白或 "://"，
// 也不能与内置方案名（HTTP/HTTPS/WSS）或其 URL 别名（http/https/wss）相同，
// 否则 ParseSchema 会把它解析回内置方案。
func Extension(name string) (Schema, error) {
	if name == "" || strings.ContainsAny(name, " \t\r\n") || strings.Contains(name, "://") {
		return Schema{}, fmt.Errorf("%w: %q", ErrInvalidSchema, name)
	}
	if builtinByName(name) != BuiltinNone || builtinByAlias(name) != BuiltinNone {
		return Schema{}, fmt.Errorf("%w: %q", ErrSchemaCollision, name)
	}
	return Schema{ext: name}, nil
}

// MustExtension 创建扩展方案，失败时 panic
//
// 仅用于包级常量初始化。
func MustExtension(name string) Schema {
	s, err := Extension(name)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSchema 解析方案标识
//
// 解析顺序：
//  1. 与内置方案名精确匹配（HTTP/HTTPS/WSS）
//  2. URL 形式的小写别名（http/https/wss）
//  3. 其余作为扩展方案
func ParseSchema(s string) (Schema, error) {
	if b := builtinByName(s); b != BuiltinNone {
		return Schema{builtin: b}, nil
	}
	if b := builtinByAlias(s); b != BuiltinNone {
		return Schema{builtin: b}, nil
	}
	return Extension(s)
}

// builtinByAlias 匹配 URL 形式的小写别名
func builtinByAlias(s string) Builtin {
	switch s {
	case "http":
		return BuiltinHTTP
	case "https":
		return BuiltinHTTPS
	case "wss":
		return BuiltinWSS
	}
	return BuiltinNone
}

// IsZero 检查是否为零值
func (s Schema) IsZero() bool {
	return s.builtin == BuiltinNone && s.ext == ""
}

// IsBuiltin 检查是否为内置方案
func (s Schema) IsBuiltin() bool {
	return s.builtin != BuiltinNone
}

// Builtin 返回内置方案，扩展方案返回 BuiltinNone
func (s Schema) Builtin() Builtin {
	return s.builtin
}

// Extension 返回扩展标识
func (s Schema) Extension() (string, bool) {
	if s.IsBuiltin() || s.ext == "" {
		return "", false
	}
	return s.ext, true
}

// String 返回方案标识
func (s Schema) String() string {
	if s.IsBuiltin() {
		return s.builtin.String()
	}
	return s.ext
}

// URLScheme 返回用于拼接 URL 的小写方案名
func (s Schema) URLScheme() string {
	return strings.ToLower(s.String())
}

// DefaultPort 返回内置方案的默认端口，扩展方案返回 0
func (s Schema) DefaultPort() uint16 {
	switch s.builtin {
	case BuiltinHTTP:
		return 80
	case BuiltinHTTPS, BuiltinWSS:
		return 443
	default:
		return 0
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (s Schema) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (s *Schema) UnmarshalText(data []byte) error {
	parsed, err := ParseSchema(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
