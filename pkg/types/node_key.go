package types

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// NodeKey 远端节点标识
//
// 标识一个可寻址的远端端点。NodeKey 是结构化比较的值类型，
// 直接作为客户端注册表的缓存键。
type NodeKey struct {
	// Host 主机名或 IP
	Host string

	// Port 端口
	Port uint16

	// Schema 传输方案
	Schema Schema
}

// NewNodeKey 创建并校验节点标识
func NewNodeKey(host string, port uint16, schema Schema) (NodeKey, error) {
	k := NodeKey{Host: host, Port: port, Schema: schema}
	if err := k.Validate(); err != nil {
		return NodeKey{}, err
	}
	return k, nil
}

// ParseNodeKey 从 "schema://host:port" 形式解析节点标识
//
// 内置方案省略端口时使用默认端口。
//
// 示例:
//
//	k, _ := types.ParseNodeKey("https://a.example:443")
//	k, _ := types.ParseNodeKey("KAYAK://10.0.0.8:9000")
func ParseNodeKey(s string) (NodeKey, error) {
	schemePart, rest, ok := strings.Cut(s, "://")
	if !ok {
		return NodeKey{}, fmt.Errorf("%w: missing scheme in %q", ErrInvalidNodeKey, s)
	}
	schema, err := ParseSchema(schemePart)
	if err != nil {
		return NodeKey{}, err
	}

	// 去掉路径部分
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}

	host, portStr, err := net.SplitHostPort(rest)
	if err != nil {
		// 无端口
		if schema.DefaultPort() == 0 {
			return NodeKey{}, fmt.Errorf("%w: %q needs an explicit port", ErrInvalidNodeKey, s)
		}
		return NewNodeKey(strings.Trim(rest, "[]"), schema.DefaultPort(), schema)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return NodeKey{}, fmt.Errorf("%w: %q", ErrInvalidPort, portStr)
	}
	return NewNodeKey(host, uint16(port), schema)
}

// Validate 校验节点标识
func (k NodeKey) Validate() error {
	if k.Host == "" {
		return ErrEmptyHost
	}
	if k.Port == 0 {
		return ErrInvalidPort
	}
	if k.Schema.IsZero() {
		return fmt.Errorf("%w: empty schema", ErrInvalidSchema)
	}
	return nil
}

// Address 返回 "host:port"
func (k NodeKey) Address() string {
	return net.JoinHostPort(k.Host, strconv.Itoa(int(k.Port)))
}

// String 返回 "schema://host:port"
func (k NodeKey) String() string {
	return k.Schema.String() + "://" + k.Address()
}

// URL 返回带路径的 URL，用于 HTTP 族方案
func (k NodeKey) URL(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return k.Schema.URLScheme() + "://" + k.Address() + path
}
