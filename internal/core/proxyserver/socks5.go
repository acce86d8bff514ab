package proxyserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"syscall"

	"github.com/things-go/go-socks5"
	"github.com/things-go/go-socks5/statute"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================================
//                              SOCKS5 协议栈装配
// ============================================================================

// newSocks 装配 SOCKS5 协议处理：方法协商、RFC 1929 认证和请求解析由 go-socks5 完成，
// CONNECT 由本包接管；BIND 与 UDP ASSOCIATE 一律拒绝。
func (s *Server) newSocks() *socks5.Server {
	opts := []socks5.Option{
		socks5.WithResolver(s.resolver),
		socks5.WithLogger(socksLogger{}),
		socks5.WithConnectHandle(s.handleConnect),
		socks5.WithBindHandle(rejectCommand),
		socks5.WithAssociateHandle(rejectCommand),
	}
	if len(s.cfg.Users) > 0 {
		opts = append(opts, socks5.WithCredential(&credentials{users: s.cfg.Users, stats: &s.stats}))
	}
	return socks5.NewServer(opts...)
}

// rejectCommand 回复命令不支持
func rejectCommand(_ context.Context, w io.Writer, req *socks5.Request) error {
	if err := socks5.SendReply(w, statute.RepCommandNotSupported, nil); err != nil {
		return err
	}
	return fmt.Errorf("%w: %d", ErrCommandNotSupported, req.Command)
}

// ============================================================================
//                              认证
// ============================================================================

// credentials 用户名/密码校验
type credentials struct {
	users map[string]string
	stats *counters
}

// Valid 校验用户名和密码，密码可以是明文或 bcrypt 哈希
func (c *credentials) Valid(user, password, userAddr string) bool {
	expected, ok := c.users[user]
	if ok && checkPassword(expected, []byte(password)) {
		return true
	}
	c.stats.authFailures.Add(1)
	logger.Info("SOCKS 认证失败", "user", user, "remote", userAddr)
	return false
}

// checkPassword 校验密码，expected 可以是明文或 bcrypt 哈希
func checkPassword(expected string, pass []byte) bool {
	if isBcryptHash(expected) {
		return bcrypt.CompareHashAndPassword([]byte(expected), pass) == nil
	}
	return subtle.ConstantTimeCompare([]byte(expected), pass) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// ============================================================================
//                              辅助
// ============================================================================

// destination 返回可拨号的目标地址，域名已解析时使用解析出的 IP
func destination(req *socks5.Request) string {
	host := req.DestAddr.FQDN
	if len(req.DestAddr.IP) != 0 {
		host = req.DestAddr.IP.String()
	}
	return net.JoinHostPort(host, strconv.Itoa(req.DestAddr.Port))
}

// replyCode 把拨号错误映射为应答码
func replyCode(err error) uint8 {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case err == nil:
		return statute.RepSuccess
	case errors.As(err, &dnsErr):
		return statute.RepHostUnreachable
	case errors.As(err, &opErr) && opErr.Timeout():
		return statute.RepTTLExpired
	case errors.Is(err, syscall.ECONNREFUSED):
		return statute.RepConnectionRefused
	case errors.As(err, &opErr):
		return statute.RepNetworkUnreachable
	default:
		return statute.RepServerFailure
	}
}

// socksLogger 把协议栈的错误日志转到组件 logger
type socksLogger struct{}

func (socksLogger) Errorf(format string, args ...interface{}) {
	logger.Debug("SOCKS 协议错误", "detail", fmt.Sprintf(format, args...))
}
