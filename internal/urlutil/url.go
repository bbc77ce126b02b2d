package urlutil

import (
	"net"
	"net/url"
	"strings"
)

// FormatServerAddress turns a listen address into a base URL a local client
// can reach. Unspecified hosts become localhost.
func FormatServerAddress(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// IsWebURL reports whether raw is an absolute http or https URL.
func IsWebURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
