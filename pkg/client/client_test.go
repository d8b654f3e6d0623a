package client_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jhoicas/backoffice-api/internal/application/catalog"
	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	"github.com/jhoicas/backoffice-api/pkg/client"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// newAPIServer levanta el API real (store en memoria) detrás de un httptest.Server.
func newAPIServer(t *testing.T, jwtSecret string) *httptest.Server {
	t.Helper()
	reg := resource.NewRegistry(memory.NewStore())
	catalog.Register(reg)
	require.NoError(t, reg.Migrate(context.Background()))

	log := logger.Nop()
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(log)})
	apphttp.Router(app, apphttp.RouterDeps{Registry: reg, Logger: log, JWTSecret: jwtSecret})

	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return srv
}

type taxRate struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

func zeroBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

// ──────────────────────────────────────────────────────────────────────────────
// Resource contra el API real
// ──────────────────────────────────────────────────────────────────────────────

func TestResource_CRUD(t *testing.T) {
	srv := newAPIServer(t, "")
	ctx := context.Background()
	taxes := client.NewResource[taxRate](client.New(srv.URL), "tax-rates")

	created, err := taxes.Create(ctx, taxRate{Name: "VAT", Rate: decimal.NewFromInt(15)})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.Rate.Equal(decimal.NewFromInt(15)))

	_, err = taxes.Create(ctx, map[string]any{"name": "VAT", "rate": 10})
	require.Error(t, err)
	assert.True(t, client.IsValidation(err))
	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok)
	assert.Contains(t, apiErr.Errors, "name")

	_, err = taxes.Create(ctx, taxRate{Name: "GST", Rate: decimal.NewFromInt(5)})
	require.NoError(t, err)

	page, err := taxes.List(ctx, client.ListQuery{Keyword: "va"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "VAT", page.Data[0].Name)
	assert.Equal(t, 1, page.TotalPages)

	page, err = taxes.List(ctx, client.ListQuery{Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "VAT", page.Data[0].Name, "página 2 = el más antiguo")

	updated, err := taxes.Update(ctx, created.ID, []byte(`{"rate":16}`))
	require.NoError(t, err)
	assert.Equal(t, "VAT", updated.Name)
	assert.True(t, updated.Rate.Equal(decimal.NewFromInt(16)))

	require.NoError(t, taxes.Delete(ctx, created.ID))
	_, err = taxes.Get(ctx, created.ID)
	assert.True(t, client.IsNotFound(err))
}

func TestResource_MapGenerico(t *testing.T) {
	srv := newAPIServer(t, "")
	customers := client.NewResource[map[string]any](client.New(srv.URL), "customers")

	item, err := customers.Create(context.Background(), map[string]any{"name": "Jo", "phone": "555", "email": nil})
	require.NoError(t, err)
	assert.Contains(t, item, "customergroup")
	assert.Nil(t, item["customergroup"])
}

func TestClient_JWTSourceContraAPIProtegido(t *testing.T) {
	srv := newAPIServer(t, "secreto")
	ctx := context.Background()

	_, err := client.NewResource[taxRate](client.New(srv.URL), "tax-rates").List(ctx, client.ListQuery{})
	assert.True(t, client.IsUnauthorized(err))

	src := &client.JWTSource{Secret: "secreto", UserID: "u1", Role: "admin", Issuer: "test"}
	c := client.New(srv.URL, client.WithMiddleware(client.WithBearer(src), client.RefreshOn401(src)))
	_, err = client.NewResource[taxRate](c, "tax-rates").Create(ctx, taxRate{Name: "IVA", Rate: decimal.NewFromInt(19)})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Middlewares
// ──────────────────────────────────────────────────────────────────────────────

type countingRefresher struct{ calls int32 }

func (r *countingRefresher) Refresh(context.Context) (string, error) {
	atomic.AddInt32(&r.calls, 1)
	return "nuevo", nil
}

func TestRefreshOn401_ReintentaUnaVezConTokenNuevo(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, r.Header.Get("Authorization")+"|"+string(body))
		if r.Header.Get("Authorization") != "Bearer nuevo" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"name":"ok"}}`))
	}))
	defer srv.Close()

	ref := &countingRefresher{}
	expired := 0
	c := client.New(srv.URL, client.WithMiddleware(
		client.OnExpired(func() { expired++ }),
		client.WithBearer(client.StaticToken("viejo")),
		client.RefreshOn401(ref),
	))

	out, err := client.NewResource[map[string]any](c, "x").Create(context.Background(), map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "ok", out["name"])
	assert.Equal(t, int32(1), ref.calls)
	assert.Equal(t, 0, expired)
	require.Len(t, seen, 2)
	assert.Equal(t, `Bearer viejo|{"a":1}`, seen[0])
	assert.Equal(t, `Bearer nuevo|{"a":1}`, seen[1], "el cuerpo se reenvía")
}

func TestOnExpired_SiSigue401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"code":"INVALID_TOKEN","message":"token inválido o expirado"}`))
	}))
	defer srv.Close()

	ref := &countingRefresher{}
	expired := 0
	c := client.New(srv.URL, client.WithMiddleware(
		client.OnExpired(func() { expired++ }),
		client.RefreshOn401(ref),
	))
	err := c.Do(context.Background(), http.MethodGet, "/api/x", nil, nil, nil)
	require.Error(t, err)
	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_TOKEN", apiErr.Code)
	assert.Equal(t, 1, expired)
	assert.Equal(t, int32(1), ref.calls, "solo un reintento")
}

func TestRetry_IdempotentesEn503(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithMiddleware(client.Retry(5, zeroBackOff)))
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/", nil, nil, nil))
	assert.Equal(t, int32(3), hits)

	atomic.StoreInt32(&hits, 0)
	err := c.Do(context.Background(), http.MethodPost, "/", nil, map[string]any{"a": 1}, nil)
	require.Error(t, err, "POST no se reintenta")
	assert.Equal(t, int32(1), hits)
}

func TestRetry_AgotaReintentosYDevuelveUltimaRespuesta(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithMiddleware(client.Retry(2, zeroBackOff)))
	err := c.Do(context.Background(), http.MethodGet, "/", nil, nil, nil)
	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, int32(3), hits)
}

func TestRateLimit_ContextoCancelado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	c := client.New(srv.URL, client.WithMiddleware(client.RateLimit(limiter)))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Do(ctx, http.MethodGet, "/", nil, nil, nil))

	cancel()
	err := c.Do(ctx, http.MethodGet, "/", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "límite de tasa"))
}

func TestChain_Orden(t *testing.T) {
	var order []string
	mw := func(name string) client.Middleware {
		return func(next client.Doer) client.Doer {
			return client.DoerFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.Do(req)
			})
		}
	}
	final := client.DoerFunc(func(req *http.Request) (*http.Response, error) {
		order = append(order, "final")
		return &http.Response{StatusCode: 200, Body: http.NoBody}, nil
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := client.Chain(final, mw("a"), mw("b")).Do(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "final"}, order)
}
