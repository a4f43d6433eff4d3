package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/config"
	"github.com/stretchr/testify/require"
)

// ---- fake backend ----

type reply struct {
	status int
	body   string
}

func ok(body string) reply { return reply{status: http.StatusOK, body: body} }

func fail(status int, message string) reply {
	b, _ := json.Marshal(map[string]string{"message": message})
	return reply{status: status, body: string(b)}
}

// recorded is one request seen by the fake backend.
type recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// JSON decodes the request body into v.
func (r recorded) JSON(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v), "body: %s", r.Body)
}

// fakeBackend answers the proxied /api routes with canned replies. Replies
// registered for a route are served in order; the last one repeats.
type fakeBackend struct {
	t *testing.T

	mu     sync.Mutex
	routes map[string][]reply
	served map[string]int
	log    []recorded
}

func newFakeBackend(t *testing.T) (*fakeBackend, client.Client) {
	t.Helper()
	f := &fakeBackend{t: t, routes: map[string][]reply{}, served: map[string]int{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c := client.NewHTTPClient(&config.Config{APIBaseURL: srv.URL}, client.WithHTTPClient(srv.Client()))
	return f, c
}

func (f *fakeBackend) on(method, path string, replies ...reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = replies
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.log = append(f.log, recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	replies, found := f.routes[key]
	n := f.served[key]
	f.served[key] = n + 1
	f.mu.Unlock()

	if !found || len(replies) == 0 {
		f.t.Errorf("unexpected request %s", key)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rep := replies[min(n, len(replies)-1)]
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

// requests returns what was sent to method and path, in order.
func (f *fakeBackend) requests(method, path string) []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recorded
	for _, r := range f.log {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// last returns the only or latest request to method and path.
func (f *fakeBackend) last(method, path string) recorded {
	f.t.Helper()
	reqs := f.requests(method, path)
	require.NotEmpty(f.t, reqs, "no request to %s %s", method, path)
	return reqs[len(reqs)-1]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.log)
}
