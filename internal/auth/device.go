package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

// Client is the request metadata a device fingerprint is derived from.
type Client struct {
	UserAgent string
	IP        string
}

// DeriveDeviceID returns a stable fingerprint for a client context: the hex
// SHA-256 of the whitespace-collapsed, lower-cased user agent and the
// canonical source address.
func DeriveDeviceID(userAgent, ip string) string {
	ua := strings.ToLower(strings.Join(strings.Fields(userAgent), " "))
	sum := sha256.Sum256([]byte(ua + "|" + canonicalIP(ip)))
	return hex.EncodeToString(sum[:])
}

func canonicalIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	raw = strings.Trim(raw, "[]")
	ip := net.ParseIP(raw)
	if ip == nil {
		return strings.ToLower(raw)
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ip.String()
}
