package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP returns the caller's address. With trustProxy it walks
// X-Forwarded-For from the right, skipping private hops, then falls back to
// X-Real-IP. Without it only RemoteAddr is used.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			return strings.TrimSpace(parts[len(parts)-1])
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 && net.ParseIP(r.RemoteAddr) == nil {
		if candidate := r.RemoteAddr[:idx]; net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	return r.RemoteAddr
}

var privateNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	networks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		networks = append(networks, network)
	}
	return networks
}

func isPrivateIP(value string) bool {
	ip := net.ParseIP(value)
	if ip == nil {
		return false
	}
	// ::ffff:192.168.1.1 matches the IPv4 ranges
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
