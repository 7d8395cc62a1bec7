package stdlib

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/core/value"
)

var (
	ErrDomainNotAllowed = errors.New("stdlib/http: domain not allowed")
	ErrLocalhostBlocked = errors.New("stdlib/http: localhost/internal access blocked")
	ErrBodyTooLarge     = errors.New("stdlib/http: response body too large")
)

const defaultMaxBody = 5 << 20

// HTTPSandbox restricts outbound requests to an allowlist of domains.
type HTTPSandbox struct {
	AllowedDomains []string
	AllowLocalhost bool
	MaxBodySize    int64
	Client         *http.Client
}

func NewHTTPSandbox(allowedDomains []string) *HTTPSandbox {
	return &HTTPSandbox{
		AllowedDomains: allowedDomains,
		MaxBodySize:    defaultMaxBody,
		Client:         &http.Client{Timeout: 30 * time.Second},
	}
}

// Check validates rawURL against the allowlist and the localhost policy.
func (s *HTTPSandbox) Check(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	host := u.Hostname()
	if !s.isAllowed(host) {
		return fmt.Errorf("%w: %s", ErrDomainNotAllowed, host)
	}
	if !s.AllowLocalhost && isLocalhost(host) {
		return fmt.Errorf("%w: %s", ErrLocalhostBlocked, host)
	}
	return nil
}

const maxRedirects = 10

// client returns a copy of the configured client whose redirects are held
// to the same policy as the original request.
func (s *HTTPSandbox) client() *http.Client {
	c := http.Client{}
	if s.Client != nil {
		c = *s.Client
	}
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return s.Check(req.URL.String())
	}
	return &c
}

// Do performs one request and returns the status code and body.
func (s *HTTPSandbox) Do(method, rawURL, body string) (int, string, error) {
	if err := s.Check(rawURL); err != nil {
		return 0, "", err
	}
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(strings.ToUpper(method), rawURL, rd)
	if err != nil {
		return 0, "", err
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	limit := s.MaxBodySize
	if limit <= 0 {
		limit = defaultMaxBody
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return 0, "", err
	}
	if int64(len(data)) > limit {
		return 0, "", fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return resp.StatusCode, string(data), nil
}

// Members returns the http module. get returns the body text; request
// returns {"status": int, "body": str}.
func (s *HTTPSandbox) Members() map[string]value.Value {
	return map[string]value.Value{
		"get": bridge.Func("get", func(args []value.Value) (value.Value, error) {
			if err := bridge.CheckArgs("get", args, 1, 1); err != nil {
				return value.None, err
			}
			u, err := bridge.StringArg("get", args, 0)
			if err != nil {
				return value.None, err
			}
			_, body, err := s.Do(http.MethodGet, u, "")
			if err != nil {
				return value.None, err
			}
			return value.String(body), nil
		}),
		"request": bridge.Func("request", func(args []value.Value) (value.Value, error) {
			if err := bridge.CheckArgs("request", args, 2, 3); err != nil {
				return value.None, err
			}
			method, err := bridge.StringArg("request", args, 0)
			if err != nil {
				return value.None, err
			}
			u, err := bridge.StringArg("request", args, 1)
			if err != nil {
				return value.None, err
			}
			body := ""
			if len(args) > 2 {
				if body, err = bridge.StringArg("request", args, 2); err != nil {
					return value.None, err
				}
			}
			status, text, err := s.Do(method, u, body)
			if err != nil {
				return value.None, err
			}
			return bridge.FromGo(map[string]any{"status": status, "body": text})
		}),
	}
}

func (s *HTTPSandbox) isAllowed(hostname string) bool {
	for _, domain := range s.AllowedDomains {
		if hostname == domain || strings.HasSuffix(hostname, "."+domain) {
			return true
		}
	}
	return false
}

func isLocalhost(hostname string) bool {
	h := strings.ToLower(hostname)
	return h == "localhost" || h == "127.0.0.1" || h == "::1" || strings.HasPrefix(h, "192.168.") || strings.HasPrefix(h, "10.")
}
