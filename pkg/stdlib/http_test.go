package stdlib_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/agenthands/pyworker/pkg/stdlib"
)

func TestHTTPSandboxPolicy(t *testing.T) {
	tests := []struct {
		name           string
		allowed        []string
		allowLocalhost bool
		url            string
		want           error
	}{
		{"DomainBlocked", []string{"google.com"}, false, "http://malicious.com", stdlib.ErrDomainNotAllowed},
		{"SubdomainAllowed", []string{"example.com"}, false, "https://api.example.com/x", nil},
		{"SuffixTrick", []string{"example.com"}, false, "https://evilexample.com", stdlib.ErrDomainNotAllowed},
		{"LocalhostBlocked", []string{"localhost"}, false, "http://localhost:8080", stdlib.ErrLocalhostBlocked},
		{"PrivateBlocked", []string{"10.0.0.1"}, false, "http://10.0.0.1", stdlib.ErrLocalhostBlocked},
		{"LocalhostAllowed", []string{"localhost"}, true, "http://localhost:8080", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sandbox := stdlib.NewHTTPSandbox(tt.allowed)
			sandbox.AllowLocalhost = tt.allowLocalhost
			err := sandbox.Check(tt.url)
			if tt.want == nil {
				if err != nil {
					t.Errorf("Check() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func newTestSandbox(t *testing.T, h http.HandlerFunc) (*stdlib.HTTPSandbox, string) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	u, _ := url.Parse(server.URL)
	sandbox := stdlib.NewHTTPSandbox([]string{u.Hostname()})
	sandbox.AllowLocalhost = true
	return sandbox, server.URL
}

func TestHTTPGet(t *testing.T) {
	sandbox, base := newTestSandbox(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msg": "hello"}`))
	})

	src := "import http\nimport json\nbody = http.get('" + base + "/data')\nmsg = json.loads(body)['msg']"
	scope, _, err := runScript(t, src, stdlib.Options{HTTP: sandbox})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if msg, _ := scope.Lookup("msg"); msg.Str() != "hello" {
		t.Errorf("msg = %s, want hello", msg.Repr())
	}
}

func TestHTTPRequest(t *testing.T) {
	sandbox, base := newTestSandbox(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/post" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created " + string(body)))
	})

	src := "import http\nresp = http.request('post', '" + base + "/post', 'item')\nstatus = resp['status']\ntext = resp.body"
	scope, _, err := runScript(t, src, stdlib.Options{HTTP: sandbox})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status, _ := scope.Lookup("status"); status.Int() != http.StatusCreated {
		t.Errorf("status = %s, want 201", status.Repr())
	}
	if text, _ := scope.Lookup("text"); text.Str() != "created item" {
		t.Errorf("text = %s", text.Repr())
	}
}

func TestHTTPRedirectFollowsPolicy(t *testing.T) {
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("secret"))
	}))
	t.Cleanup(internal.Close)
	target := strings.Replace(internal.URL, "127.0.0.1", "localhost", 1)

	sandbox, base := newTestSandbox(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/away":
			http.Redirect(w, r, target+"/", http.StatusFound)
		case "/here":
			http.Redirect(w, r, "/final", http.StatusFound)
		default:
			w.Write([]byte("final"))
		}
	})

	if _, body, err := sandbox.Do("GET", base+"/here", ""); err != nil || body != "final" {
		t.Fatalf("same-host redirect: body = %q, err = %v", body, err)
	}
	if _, body, err := sandbox.Do("GET", base+"/away", ""); !errors.Is(err, stdlib.ErrDomainNotAllowed) {
		t.Fatalf("redirect to a host outside the allowlist: body = %q, err = %v", body, err)
	}
}

func TestHTTPBodyLimit(t *testing.T) {
	sandbox, base := newTestSandbox(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	})
	sandbox.MaxBodySize = 10

	_, _, err := sandbox.Do(http.MethodGet, base, "")
	if !errors.Is(err, stdlib.ErrBodyTooLarge) {
		t.Errorf("expected ErrBodyTooLarge, got %v", err)
	}
}
