// internal/app/system/ratelimit/proxy.go
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// TrustedProxies returns middleware that applies chi's RealIP only to
// requests whose direct peer falls inside one of cidrs. Requests from any
// other peer keep their RemoteAddr, so X-Forwarded-For and friends cannot
// move a client into a fresh rate-limit bucket. Bare addresses are accepted
// as single-host ranges.
func TrustedProxies(cidrs []string) (func(http.Handler) http.Handler, error) {
	nets, err := parseCIDRs(cidrs)
	if err != nil {
		return nil, err
	}
	return func(next http.Handler) http.Handler {
		viaProxy := middleware.RealIP(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if containsIP(nets, net.ParseIP(ClientIP(r))) {
				viaProxy.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func parseCIDRs(cidrs []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if !strings.Contains(c, "/") {
			ip := net.ParseIP(c)
			if ip == nil {
				return nil, fmt.Errorf("trusted proxy %q is not an IP or CIDR", c)
			}
			if ip.To4() != nil {
				c += "/32"
			} else {
				c += "/128"
			}
		}
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", c, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
