package client

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/glytch/internal/common"
)

// routes maps service path prefixes to backend prefixes. Order matters:
// the more specific prefix of a pair comes first.
var routes = []struct{ from, to string }{
	{"/auth/v1/", "/api/auth/"},
	{"/rest/v1/rpc/", "/api/rpc/"},
	{"/rest/v1/", "/api/rest/"},
	{"/storage/v1/object/sign/", "/api/storage/sign/"},
	{"/storage/v1/object/", "/api/storage/object/"},
}

// ProxyPath rewrites a service-style path onto the backend's /api routes.
// Any other shape wraps common.ErrUnsupportedRoute.
func ProxyPath(path string) (string, error) {
	for _, r := range routes {
		if strings.HasPrefix(path, r.from) {
			return r.to + path[len(r.from):], nil
		}
	}
	return "", fmt.Errorf("%w: %s", common.ErrUnsupportedRoute, path)
}
