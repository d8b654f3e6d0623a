package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/catalog"
	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	"github.com/jhoicas/backoffice-api/pkg/client"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

const fixturesYAML = `
- resource: customer-groups
  key: vip
  data:
    name: VIP
    discount_percentage: 10
- resource: customers
  key: ana
  data:
    name: Ana
    phone: "3001234567"
    customer_group_id: "@vip"
- resource: terminals
  key: caja1
  data:
    name: Caja 1
- resource: sales
  data:
    terminal_id: "@caja1"
    customer_id: "@ana"
    subtotal: 100
    total: 100
`

func newServer(t *testing.T, secret string) *httptest.Server {
	t.Helper()
	reg := resource.NewRegistry(memory.NewStore())
	catalog.Register(reg)
	require.NoError(t, reg.Migrate(context.Background()))
	log := logger.Nop()
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(log)})
	apphttp.Router(app, apphttp.RouterDeps{Registry: reg, Logger: log, JWTSecret: secret})
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return srv
}

func TestSeed_ResuelveReferencias(t *testing.T) {
	srv := newServer(t, "")
	fixtures, err := parseFixtures([]byte(fixturesYAML))
	require.NoError(t, err)
	require.Len(t, fixtures, 4)

	var out bytes.Buffer
	c := client.New(srv.URL)
	ids, err := seed(context.Background(), c, fixtures, &out)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	ana, err := client.NewResource[map[string]any](c, "customers").Get(context.Background(), ids["ana"])
	require.NoError(t, err)
	group := ana["customergroup"].(map[string]any)
	assert.Equal(t, "VIP", group["name"])

	sales, err := client.NewResource[map[string]any](c, "sales").List(context.Background(), client.ListQuery{})
	require.NoError(t, err)
	require.Len(t, sales.Data, 1)
	assert.Equal(t, ids["caja1"], sales.Data[0]["terminal_id"])
	assert.Contains(t, out.String(), "customers\t"+ids["ana"]+"\tana")
}

func TestSeed_ReferenciaIndefinida(t *testing.T) {
	srv := newServer(t, "")
	fixtures := []fixture{{Resource: "customers", Data: map[string]any{"name": "Ana", "phone": "1", "customer_group_id": "@nada"}}}

	_, err := seed(context.Background(), client.New(srv.URL), fixtures, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "@nada")
}

func TestParseFixtures_SinResource(t *testing.T) {
	_, err := parseFixtures([]byte("- key: x\n  data: {name: y}\n"))
	assert.Error(t, err)
}

func TestResolveRefs_Anidado(t *testing.T) {
	got, err := resolveRefs(map[string]any{
		"ids":    []any{"@a", "literal"},
		"nested": map[string]any{"id": "@b"},
		"n":      3,
	}, map[string]string{"a": "id-a", "b": "id-b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"ids":    []any{"id-a", "literal"},
		"nested": map[string]any{"id": "id-b"},
		"n":      3,
	}, got)
}

func TestRootCommand_CrearYListarConSecreto(t *testing.T) {
	srv := newServer(t, "secreto")

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := newRootCommand()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append([]string{"--server", srv.URL, "--secret", "secreto"}, args...))
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	out, err := run("create", "tax-rates", "--data", `{"name":"VAT","rate":15}`)
	require.NoError(t, err, out)
	var created map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, float64(15), created["rate"])

	_, err = run("create", "tax-rates", "--data", `{"name":"VAT","rate":15}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name:")

	out, err = run("list", "tax-rates", "--keyword", "va")
	require.NoError(t, err)
	var page client.Page[map[string]any]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 1, page.TotalItems)

	out, err = run("token", "--user", "u1")
	require.NoError(t, err)
	assert.Regexp(t, `^[\w-]+\.[\w-]+\.[\w-]+\n$`, out)
}
