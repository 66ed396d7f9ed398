package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// securityMetrics tracks security-related events.
type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

// trustedProxies are the networks allowed to set forwarding headers.
// Anything else talking to the server directly is taken at its
// RemoteAddr word.
var trustedProxies = []*net.IPNet{
	mustCIDR("127.0.0.0/8"),
	mustCIDR("10.0.0.0/8"),
	mustCIDR("172.16.0.0/12"),
	mustCIDR("192.168.0.0/16"),
}

func mustCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("bad trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func fromTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP returns the real client IP. Forwarding headers are
// honored only when the direct peer is a trusted proxy, so clients
// cannot spoof their way past the rate limiter.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil {
		return directIP
	}
	if !fromTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}
	return directIP
}

// scanPatterns are fragments that never appear in legitimate calls to
// this API: traversal, dotfile fishing, injection payloads, and the
// PHP/WordPress paths scanners try against everything.
var scanPatterns = []string{
	"../", "..\\", "etc/passwd", "cmd.exe",
	".env", ".git", ".ssh",
	"wp-admin", "phpmyadmin", "admin.php", "config.php",
	"union select", "<script", "javascript:", "eval(",
}

// attackTools are user agents of known scanners. Generic HTTP clients
// are deliberately absent: curl and friends are how people drive a
// JSON API.
var attackTools = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "wpscan",
}

// detectSuspiciousRequest flags requests that look like scanning or
// injection attempts. Flagged requests are logged, not blocked.
func detectSuspiciousRequest(r *http.Request, metrics *securityMetrics) bool {
	suspicious := containsScanPattern(r.URL.Path) || containsScanPattern(r.URL.RawQuery)

	if !suspicious {
		agent := strings.ToLower(r.Header.Get("User-Agent"))
		for _, tool := range attackTools {
			if strings.Contains(agent, tool) {
				suspicious = true
				break
			}
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "CONNECT":
		suspicious = true
	}

	if len(r.URL.String()) > 2048 {
		suspicious = true
	}

	if suspicious && metrics != nil {
		atomic.AddInt64(&metrics.suspiciousRequests, 1)
	}
	return suspicious
}

func containsScanPattern(s string) bool {
	s = strings.ToLower(s)
	for _, pattern := range scanPatterns {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}
