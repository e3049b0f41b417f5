package source

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/haview/pkg/errors"
)

// fixtureAPI is an in-memory stand-in for the config API.
type fixtureAPI struct {
	mu         sync.Mutex
	config     string
	omitConfig bool
	graphJSON  string
	saveStatus int
	user, pass string
	requestIDs []string
	saves      int
}

func (f *fixtureAPI) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			f.requestIDs = append(f.requestIDs, req.Header.Get(RequestIDHeader))
			f.mu.Unlock()
			if f.user != "" {
				u, p, ok := req.BasicAuth()
				if !ok || u != f.user || p != f.pass {
					w.Header().Set("WWW-Authenticate", `Basic realm="HAProxy GUI"`)
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get(PathConfig, func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if f.omitConfig {
			w.Write([]byte(`{}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"config": f.config})
	})
	r.Post(PathConfig, func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.saves++
		if f.saveStatus != 0 {
			http.Error(w, "disk full", f.saveStatus)
			return
		}
		var body struct {
			Config string `json:"config"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.config = body.Config
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Get(PathGraph, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(f.graphJSON))
	})
	return r
}

func newFixture(t *testing.T, f *fixtureAPI, opts ...ClientOption) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(f.router())
	t.Cleanup(srv.Close)
	c, err := NewHTTPClient(srv.URL, opts...)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return c
}

func TestHTTPClientLoadGraph(t *testing.T) {
	f := &fixtureAPI{graphJSON: `{"nodes":[{"id":1,"label":"A","type":"frontend"},{"id":2,"label":"B","type":"backend"}],"edges":[{"from":1,"to":2}]}`}
	c := newFixture(t, f)

	g, err := c.LoadGraph(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 2 || g.Nodes[0].ID != "1" || g.Nodes[1].Type != "backend" {
		t.Errorf("nodes = %+v", g.Nodes)
	}
	if len(g.Edges) != 1 || g.Edges[0].From != "1" || g.Edges[0].To != "2" {
		t.Errorf("edges = %+v", g.Edges)
	}
}

func TestHTTPClientConfigRoundTrip(t *testing.T) {
	f := &fixtureAPI{config: "frontend a\n"}
	c := newFixture(t, f)
	ctx := context.Background()

	text, err := c.LoadConfigText(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if text != "frontend a\n" {
		t.Errorf("LoadConfigText = %q", text)
	}

	if err := c.SaveConfigText(ctx, "frontend b\n"); err != nil {
		t.Fatal(err)
	}
	if text, _ := c.LoadConfigText(ctx); text != "frontend b\n" {
		t.Errorf("after save = %q", text)
	}
}

func TestHTTPClientMissingConfigField(t *testing.T) {
	c := newFixture(t, &fixtureAPI{omitConfig: true})
	text, err := c.LoadConfigText(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if text != "" {
		t.Errorf("LoadConfigText = %q, want empty", text)
	}
}

func TestHTTPClientSaveFailureNotRetried(t *testing.T) {
	f := &fixtureAPI{saveStatus: http.StatusInternalServerError}
	c := newFixture(t, f)

	err := c.SaveConfigText(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("code = %s, want NETWORK_ERROR", errors.GetCode(err))
	}
	var se *errors.StatusError
	if !asStatus(err, &se) || se.StatusCode != 500 || se.Body != "disk full\n" {
		t.Errorf("status error = %+v", se)
	}
	if f.saves != 1 {
		t.Errorf("server saw %d saves, want exactly 1", f.saves)
	}
}

func TestHTTPClientBasicAuth(t *testing.T) {
	f := &fixtureAPI{user: "admin", pass: "secret", config: "ok"}

	anon := newFixture(t, f)
	_, err := anon.LoadConfigText(context.Background())
	if !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("anonymous err = %v, want UNAUTHORIZED", err)
	}

	authed := newFixture(t, f, WithBasicAuth("admin", "secret"))
	if text, err := authed.LoadConfigText(context.Background()); err != nil || text != "ok" {
		t.Errorf("authenticated = %q, %v", text, err)
	}
}

func TestHTTPClientRequestIDs(t *testing.T) {
	f := &fixtureAPI{graphJSON: `{"nodes":[],"edges":[]}`}
	c := newFixture(t, f)
	for range 2 {
		if _, err := c.LoadGraph(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if len(f.requestIDs) != 2 || f.requestIDs[0] == f.requestIDs[1] {
		t.Fatalf("request ids = %v, want two distinct", f.requestIDs)
	}
	for _, id := range f.requestIDs {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("request id %q is not a uuid", id)
		}
	}
}

func TestHTTPClientInvalidJSON(t *testing.T) {
	c := newFixture(t, &fixtureAPI{graphJSON: `{"nodes":`})
	if _, err := c.LoadGraph(context.Background()); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestHTTPClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, WithTimeout(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.LoadGraph(context.Background())
	if code := errors.GetCode(err); code != errors.ErrCodeNetwork && code != errors.ErrCodeTimeout {
		t.Errorf("code = %s, want a network error", code)
	}
}

func TestHTTPClientTimeoutLeavesSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	tests := []struct {
		name string
		opts []ClientOption
		want time.Duration
	}{
		{"timeout after client", []ClientOption{WithHTTPClient(shared), WithTimeout(5 * time.Second)}, 5 * time.Second},
		{"timeout before client", []ClientOption{WithTimeout(5 * time.Second), WithHTTPClient(shared)}, 5 * time.Second},
		{"client only", []ClientOption{WithHTTPClient(shared)}, time.Minute},
		{"default client", []ClientOption{WithTimeout(time.Second)}, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewHTTPClient("http://lb.local:5000", tt.opts...)
			if err != nil {
				t.Fatal(err)
			}
			if c.http.Timeout != tt.want {
				t.Errorf("timeout = %v, want %v", c.http.Timeout, tt.want)
			}
			if shared.Timeout != time.Minute {
				t.Errorf("shared client timeout changed to %v", shared.Timeout)
			}
		})
	}
}

func TestNewHTTPClientRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://lb.local", "lb.local:5000"} {
		if _, err := NewHTTPClient(u); err == nil {
			t.Errorf("NewHTTPClient(%q) should fail", u)
		}
	}
}

func TestHTTPClientBasePath(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Path
		w.Write([]byte(`{"nodes":[],"edges":[]}`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL + "/haview/")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.LoadGraph(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got != "/haview/api/graph" {
		t.Errorf("path = %q", got)
	}
}

func asStatus(err error, target **errors.StatusError) bool {
	return stderrors.As(err, target)
}
