package proxyserver

import (
	"context"
	"net"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// resolver 目标域名解析，结果按 TTL 缓存，满足 socks5.NameResolver
type resolver struct {
	cache    *expirable.LRU[string, []net.IP]
	lookupIP func(ctx context.Context, network, host string) ([]net.IP, error)
}

func newResolver(size int, ttl time.Duration) *resolver {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &resolver{
		cache:    expirable.NewLRU[string, []net.IP](size, nil, ttl),
		lookupIP: net.DefaultResolver.LookupIP,
	}
}

// resolve 返回域名的地址列表
func (r *resolver) resolve(ctx context.Context, host string) ([]net.IP, error) {
	if ips, ok := r.cache.Get(host); ok {
		return ips, nil
	}
	ips, err := r.lookupIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, &net.DNSError{Err: "no addresses", Name: host, IsNotFound: true}
	}
	r.cache.Add(host, ips)
	return ips, nil
}

// Resolve 解析目标域名，返回第一个地址
func (r *resolver) Resolve(ctx context.Context, name string) (context.Context, net.IP, error) {
	ips, err := r.resolve(ctx, name)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, ips[0], nil
}

// forget 丢弃域名的缓存，下次重新解析
func (r *resolver) forget(name string) {
	r.cache.Remove(name)
}

// cached 返回缓存条目数
func (r *resolver) cached() int {
	return r.cache.Len()
}
