package wire

import (
	"fmt"
	"strings"
)

// methodScheme and methodAuthority are fixed placeholders; the URI is an
// identifying key for a (service, method) pair, never dialed.
const (
	methodScheme    = "http"
	methodAuthority = "localhost"
)

// MethodURI builds the canonical URI for a service method, following the
// path convention /{service}/{method}.
func MethodURI(service, method string) (string, error) {
	if service == "" || method == "" {
		return "", fmt.Errorf("method URI: service and method must be non-empty")
	}
	if strings.Contains(service, "/") || strings.Contains(method, "/") {
		return "", fmt.Errorf("method URI: names must not contain '/': %s/%s", service, method)
	}
	return fmt.Sprintf("%s://%s/%s/%s", methodScheme, methodAuthority, service, method), nil
}
