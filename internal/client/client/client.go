package client

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/glytch/internal/common"
)

// Request describes one backend call.
type Request struct {
	Method string
	// Path is a service-style path such as "/rest/v1/profiles", already
	// escaped. With Direct set it is a backend path such as "/api/gifs/search".
	Path   string
	Query  url.Values
	Direct bool

	// Body is JSON-encoded unless RawBody is set.
	Body        any
	RawBody     io.Reader
	ContentType string

	AccessToken string
	Prefer      string

	// FailureMessage replaces the generic message when an error response
	// carries none.
	FailureMessage string
}

// Client sends a Request and decodes a successful JSON response into out
// (which may be nil).
type Client interface {
	Do(ctx context.Context, req Request, out any) error
}

// RPC calls a stored procedure with named parameters.
func RPC(ctx context.Context, c Client, accessToken, name string, params any, out any) error {
	return c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        "/rest/v1/rpc/" + name,
		Body:        params,
		AccessToken: accessToken,
	}, out)
}

// Select reads rows from a table.
func Select(ctx context.Context, c Client, accessToken, table string, query url.Values, out any) error {
	return c.Do(ctx, Request{
		Method:      http.MethodGet,
		Path:        "/rest/v1/" + table,
		Query:       query,
		AccessToken: accessToken,
	}, out)
}

// Insert adds rows and returns the stored representation.
func Insert(ctx context.Context, c Client, accessToken, table string, body any, out any) error {
	return c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        "/rest/v1/" + table,
		Body:        body,
		AccessToken: accessToken,
		Prefer:      common.PreferRepresentation,
	}, out)
}

// Upsert adds rows, merging with any existing row on the primary key, so
// repeating the call is harmless.
func Upsert(ctx context.Context, c Client, accessToken, table string, query url.Values, body any, out any) error {
	return c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        "/rest/v1/" + table,
		Query:       query,
		Body:        body,
		AccessToken: accessToken,
		Prefer:      common.PreferMergeDuplicates,
	}, out)
}

// Update patches the rows matched by query and returns them.
func Update(ctx context.Context, c Client, accessToken, table string, query url.Values, body any, out any) error {
	return c.Do(ctx, Request{
		Method:      http.MethodPatch,
		Path:        "/rest/v1/" + table,
		Query:       query,
		Body:        body,
		AccessToken: accessToken,
		Prefer:      common.PreferRepresentation,
	}, out)
}

// Delete removes the rows matched by query. prefer may be empty.
func Delete(ctx context.Context, c Client, accessToken, table string, query url.Values, prefer string, out any) error {
	return c.Do(ctx, Request{
		Method:      http.MethodDelete,
		Path:        "/rest/v1/" + table,
		Query:       query,
		AccessToken: accessToken,
		Prefer:      prefer,
	}, out)
}
