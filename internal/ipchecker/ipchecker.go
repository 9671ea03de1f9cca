// Package ipchecker restricts operator endpoints to clients coming from a
// trusted subnet.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/patric-chuzhbe/shareride/internal/logger"
)

// IPChecker decides whether a request comes from the trusted subnet.
// Without a subnet nobody is trusted.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New parses trustedSubnet in CIDR notation. An empty string yields a
// checker that trusts no one.
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{}, nil
	}
	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("parse trusted subnet %q: %w", trustedSubnet, err)
	}
	return &IPChecker{trustedSubnet: allowedNet}, nil
}

// Check reports whether clientIP is inside the trusted subnet.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// ClientIP extracts the client address, preferring X-Real-IP, then the first
// X-Forwarded-For entry, then RemoteAddr.
func ClientIP(request *http.Request) net.IP {
	if ip := net.ParseIP(request.Header.Get("X-Real-IP")); ip != nil {
		return ip
	}
	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return net.ParseIP(strings.TrimSpace(first))
	}
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return net.ParseIP(request.RemoteAddr)
	}
	return net.ParseIP(host)
}

// TrustedOnly answers 403 to every client outside the trusted subnet.
func (checker *IPChecker) TrustedOnly(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		clientIP := ClientIP(request)
		if !checker.Check(clientIP) {
			logger.Log.Debugln("untrusted client", "ip", clientIP, "uri", request.RequestURI)
			response.WriteHeader(http.StatusForbidden)
			return
		}
		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
