package client

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/jhoicas/backoffice-api/pkg/jwt"
)

// Doer ejecuta una petición HTTP; *http.Client lo implementa.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapta una función a Doer.
type DoerFunc func(req *http.Request) (*http.Response, error)

// Do implementa Doer.
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// Middleware envuelve un Doer.
type Middleware func(next Doer) Doer

// Chain aplica mws sobre d: Chain(d, a, b) ejecuta a -> b -> d.
func Chain(d Doer, mws ...Middleware) Doer {
	for i := len(mws) - 1; i >= 0; i-- {
		d = mws[i](d)
	}
	return d
}

// TokenSource entrega el token Bearer actual.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Refresher obtiene un token nuevo cuando el servidor rechaza el actual.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// StaticToken token fijo (CLI con --token).
type StaticToken string

// Token implementa TokenSource.
func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// JWTSource firma localmente tokens HS256 con el secreto compartido del API.
// Cachea el token hasta un minuto antes de su vencimiento.
type JWTSource struct {
	Secret string
	UserID string
	Role   string
	Issuer string
	TTL    time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

// Token implementa TokenSource.
func (s *JWTSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.clock().Before(s.expires.Add(-time.Minute)) {
		return s.token, nil
	}
	return s.sign()
}

// Refresh implementa Refresher: descarta el token cacheado y firma uno nuevo.
func (s *JWTSource) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sign()
}

func (s *JWTSource) sign() (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	tok, err := jwt.Generate(s.Secret, s.UserID, s.Role, s.Issuer, int(ttl/time.Minute))
	if err != nil {
		return "", errors.Wrap(err, "firmar token")
	}
	s.token, s.expires = tok, s.clock().Add(ttl)
	return tok, nil
}

func (s *JWTSource) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// WithBearer agrega Authorization: Bearer <token> a cada petición.
func WithBearer(ts TokenSource) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			tok, err := ts.Token(req.Context())
			if err != nil {
				return nil, errors.Wrap(err, "obtener token")
			}
			if tok != "" {
				req = req.Clone(req.Context())
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			return next.Do(req)
		})
	}
}

// RefreshOn401 ante un 401 refresca el token y reintenta la petición una sola vez.
// Peticiones con cuerpo no reproducible (sin GetBody) no se reintentan.
func RefreshOn401(r Refresher) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.Do(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}
			retry, ok := rewind(req)
			if !ok {
				return resp, nil
			}
			tok, rerr := r.Refresh(req.Context())
			if rerr != nil {
				return resp, nil
			}
			drain(resp)
			retry.Header.Set("Authorization", "Bearer "+tok)
			return next.Do(retry)
		})
	}
}

// OnExpired llama fn cuando la respuesta final sigue siendo 401 (sesión vencida).
func OnExpired(fn func()) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.Do(req)
			if err == nil && resp.StatusCode == http.StatusUnauthorized {
				fn()
			}
			return resp, err
		})
	}
}

// RateLimit espera turno en l antes de cada petición.
func RateLimit(l *rate.Limiter) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			if err := l.Wait(req.Context()); err != nil {
				return nil, errors.Wrap(err, "límite de tasa")
			}
			return next.Do(req)
		})
	}
}

// Retry reintenta peticiones idempotentes (GET, HEAD, PUT, DELETE, OPTIONS) con backoff
// exponencial ante errores de transporte o 502/503/504. maxRetries acota los reintentos.
func Retry(maxRetries uint64, newBackOff func() backoff.BackOff) Middleware {
	if newBackOff == nil {
		newBackOff = func() backoff.BackOff { return backoff.NewExponentialBackOff() }
	}
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			if !idempotent(req.Method) {
				return next.Do(req)
			}
			var resp *http.Response
			attempt := 0
			op := func() error {
				r := req
				if attempt > 0 {
					var ok bool
					if r, ok = rewind(req); !ok {
						return backoff.Permanent(errors.New("cuerpo no reproducible"))
					}
				}
				attempt++
				res, err := next.Do(r)
				if err != nil {
					return err
				}
				if retryableStatus(res.StatusCode) {
					resp = res
					return errors.Errorf("status %d", res.StatusCode)
				}
				resp = res
				return nil
			}
			b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxRetries), req.Context())
			notify := func(error, time.Duration) {
				if resp != nil {
					drain(resp)
					resp = nil
				}
			}
			err := backoff.RetryNotify(op, b, notify)
			if resp != nil {
				// Último intento con status reintentable: se entrega la respuesta tal cual.
				return resp, nil
			}
			return nil, err
		})
	}
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusBadGateway || code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout
}

// rewind clona req con un cuerpo nuevo para reenviarla.
func rewind(req *http.Request) (*http.Request, bool) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = body
	return clone, true
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
