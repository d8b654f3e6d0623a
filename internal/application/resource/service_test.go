package resource_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixtures
// ──────────────────────────────────────────────────────────────────────────────

type owner struct {
	Name  string  `json:"name" validate:"required,max=50"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type settings struct {
	Mode string `json:"mode" validate:"omitempty,oneof=sandbox live"`
}

type pet struct {
	Name     string           `json:"name" validate:"required,max=20"`
	Code     string           `json:"code" validate:"required"`
	Weight   *decimal.Decimal `json:"weight" validate:"required,gte=0,lte=100"`
	OwnerID  *string          `json:"owner_id"`
	TagIDs   []string         `json:"tag_ids"`
	Kind     string           `json:"kind" validate:"omitempty,oneof=cat dog"`
	Settings settings         `json:"settings"`
}

type tag struct {
	Label string `json:"label" validate:"required"`
}

type visit struct {
	PetID string `json:"pet_id" validate:"required"`
	Note  string `json:"note"`
}

type fixture struct {
	ctx    context.Context
	owners *resource.Service[owner]
	pets   *resource.Service[pet]
	tags   *resource.Service[tag]
	visits *resource.Service[visit]
}

// newFixture registra cuatro recursos con reloj incremental (orden de creación determinista).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	seq := 0
	reg := resource.NewRegistry(memory.NewStore(),
		resource.WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
		resource.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
	)
	f := &fixture{ctx: context.Background()}
	f.owners = resource.Register(reg, resource.Config[owner]{
		Name:   "owners",
		Search: []string{"name"},
		Dependents: []resource.Dependent{
			{Target: "pets", Field: "owner_id", Policy: resource.Restrict},
		},
	})
	f.pets = resource.Register(reg, resource.Config[pet]{
		Name:    "pets",
		Search:  []string{"name", "code"},
		Filters: []string{"kind"},
		Unique:  []string{"code"},
		Refs: []resource.Ref{
			{Field: "owner_id", Target: "owners"},
			{Field: "tag_ids", Target: "tags"},
		},
		Relations: []resource.Relation{
			{Name: "owner", Kind: resource.BelongsTo, Field: "owner_id", Target: "owners"},
			{Name: "tags", Kind: resource.BelongsToMany, Field: "tag_ids", Target: "tags"},
			{Name: "visits", Kind: resource.HasMany, Field: "pet_id", Target: "visits"},
		},
		ListWith: []string{"owner"},
		Dependents: []resource.Dependent{
			{Target: "visits", Field: "pet_id", Policy: resource.Cascade},
		},
		Prepare: func(p *pet, creating bool) {
			if p.Kind == "" {
				p.Kind = "cat"
			}
		},
	})
	f.tags = resource.Register(reg, resource.Config[tag]{Name: "tags"})
	f.visits = resource.Register(reg, resource.Config[visit]{
		Name:    "visits",
		Filters: []string{"pet_id"},
		Refs:    []resource.Ref{{Field: "pet_id", Target: "pets"}},
	})
	require.NoError(t, reg.Migrate(f.ctx))
	return f
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "se esperaba ValidationError, llegó %v", err)
	return verr.Fields
}

// ──────────────────────────────────────────────────────────────────────────────
// Create / Show
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_DevuelveCamposIDyTimestamps(t *testing.T) {
	f := newFixture(t)

	item, err := f.pets.Create(f.ctx, []byte(`{"name":"Tom","code":"P1","weight":4.5,"id":"hack","created_at":"x"}`))
	require.NoError(t, err)

	assert.Equal(t, "id-001", item["id"])
	assert.Equal(t, "Tom", item["name"])
	assert.Equal(t, "4.5", fmt.Sprint(item["weight"]))
	assert.Equal(t, "cat", item["kind"], "Prepare completa el valor por defecto")
	assert.NotNil(t, item["created_at"])
	assert.Nil(t, item["owner"])
	assert.Equal(t, []map[string]any{}, toMaps(item["tags"]))

	shown, err := f.pets.Show(f.ctx, "id-001")
	require.NoError(t, err)
	assert.Equal(t, "Tom", shown["name"])
	assert.Equal(t, item["created_at"], shown["created_at"])
}

func TestCreate_BodyMalformado(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{`{"name":`, `[1,2]`, ``, `null`} {
		_, err := f.pets.Create(f.ctx, []byte(body))
		assert.ErrorIs(t, err, domain.ErrMalformed, "body %q", body)
	}
}

func TestCreate_ErroresDeValidacionPorCampo(t *testing.T) {
	f := newFixture(t)

	_, err := f.pets.Create(f.ctx, []byte(`{"name":"a-very-long-name-for-a-pet","weight":"abc","kind":"cow","settings":{"mode":"x"}}`))
	fields := validationFields(t, err)

	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "code")
	assert.Contains(t, fields, "weight")
	assert.Contains(t, fields, "kind")
	assert.Contains(t, fields, "settings.mode")
	assert.Len(t, fields["weight"], 1, "el error de tipo no se duplica con el de required")
}

func TestCreate_CeroEnPunteroRequeridoEsValido(t *testing.T) {
	f := newFixture(t)
	_, err := f.pets.Create(f.ctx, []byte(`{"name":"Zero","code":"Z","weight":0}`))
	require.NoError(t, err)
}

func TestCreate_UnicidadYReferencias(t *testing.T) {
	f := newFixture(t)
	_, err := f.pets.Create(f.ctx, []byte(`{"name":"A","code":"P1","weight":1}`))
	require.NoError(t, err)

	_, err = f.pets.Create(f.ctx, []byte(`{"name":"B","code":"P1","weight":1,"owner_id":"nope","tag_ids":["x"]}`))
	fields := validationFields(t, err)
	assert.Equal(t, []string{"El valor del campo code ya está en uso."}, fields["code"])
	assert.Contains(t, fields, "owner_id")
	assert.Contains(t, fields, "tag_ids")
}

func TestShow_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.pets.Show(f.ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Hidratación
// ──────────────────────────────────────────────────────────────────────────────

func TestShow_HidrataRelaciones(t *testing.T) {
	f := newFixture(t)
	o, err := f.owners.Create(f.ctx, []byte(`{"name":"Ana"}`))
	require.NoError(t, err)
	t1, err := f.tags.Create(f.ctx, []byte(`{"label":"indoor"}`))
	require.NoError(t, err)
	t2, err := f.tags.Create(f.ctx, []byte(`{"label":"senior"}`))
	require.NoError(t, err)

	body := fmt.Sprintf(`{"name":"Tom","code":"P1","weight":3,"owner_id":%q,"tag_ids":[%q,%q]}`, o["id"], t2["id"], t1["id"])
	p, err := f.pets.Create(f.ctx, []byte(body))
	require.NoError(t, err)
	_, err = f.visits.Create(f.ctx, []byte(fmt.Sprintf(`{"pet_id":%q,"note":"vacuna"}`, p["id"])))
	require.NoError(t, err)

	shown, err := f.pets.Show(f.ctx, p["id"].(string))
	require.NoError(t, err)

	owner := shown["owner"].(map[string]any)
	assert.Equal(t, "Ana", owner["name"])

	tags := toMaps(shown["tags"])
	require.Len(t, tags, 2)
	assert.Equal(t, "senior", tags[0]["label"], "BelongsToMany respeta el orden de ids")

	visits := toMaps(shown["visits"])
	require.Len(t, visits, 1)
	assert.Equal(t, "vacuna", visits[0]["note"])

	page, err := f.pets.List(f.ctx, resource.ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Contains(t, page.Data[0], "owner", "ListWith hidrata en el listado")
	assert.NotContains(t, page.Data[0], "visits")
}

// ──────────────────────────────────────────────────────────────────────────────
// Update
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_ParcialConservaCamposAusentes(t *testing.T) {
	f := newFixture(t)
	p, err := f.pets.Create(f.ctx, []byte(`{"name":"Tom","code":"P1","weight":3,"kind":"dog"}`))
	require.NoError(t, err)
	id := p["id"].(string)

	updated, err := f.pets.Update(f.ctx, id, []byte(`{"name":"Tommy"}`))
	require.NoError(t, err)

	assert.Equal(t, "Tommy", updated["name"])
	assert.Equal(t, "P1", updated["code"])
	assert.Equal(t, "dog", updated["kind"])
	assert.Equal(t, p["created_at"], updated["created_at"])
	assert.NotEqual(t, p["updated_at"], updated["updated_at"])
}

func TestUpdate_SoloReportaClavesEnviadas(t *testing.T) {
	f := newFixture(t)
	p, err := f.pets.Create(f.ctx, []byte(`{"name":"Tom","code":"P1","weight":3}`))
	require.NoError(t, err)

	_, err = f.pets.Update(f.ctx, p["id"].(string), []byte(`{"kind":"cow"}`))
	fields := validationFields(t, err)
	assert.Equal(t, []string{"kind"}, keys(fields))
}

func TestUpdate_ClavesConOtraCapitalizacionSeDescartan(t *testing.T) {
	f := newFixture(t)
	p, err := f.pets.Create(f.ctx, []byte(`{"name":"Tom","code":"P1","weight":3}`))
	require.NoError(t, err)
	id := p["id"].(string)

	updated, err := f.pets.Update(f.ctx, id, []byte(`{"NAME":"","Owner_ID":"does-not-exist","WEIGHT":1000}`))
	require.NoError(t, err)
	assert.Equal(t, "Tom", updated["name"])
	assert.Nil(t, updated["owner_id"])
	assert.Equal(t, "3", fmt.Sprint(updated["weight"]))

	_, err = f.pets.Update(f.ctx, id, []byte(`{"name":"","Owner_ID":"does-not-exist"}`))
	assert.Equal(t, []string{"name"}, keys(validationFields(t, err)))

	_, err = f.pets.Update(f.ctx, id, []byte(`{"owner_id":"does-not-exist","weight":1000}`))
	fields := validationFields(t, err)
	assert.Contains(t, fields, "owner_id")
	assert.Contains(t, fields, "weight")

	got, err := f.pets.Get(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Tom", got.Fields.Name)
	assert.Nil(t, got.Fields.OwnerID)
	assert.Equal(t, "3", got.Fields.Weight.String())
}

func TestUpdate_UnicidadExcluyePropioRegistro(t *testing.T) {
	f := newFixture(t)
	a, err := f.pets.Create(f.ctx, []byte(`{"name":"A","code":"P1","weight":1}`))
	require.NoError(t, err)
	_, err = f.pets.Create(f.ctx, []byte(`{"name":"B","code":"P2","weight":1}`))
	require.NoError(t, err)

	_, err = f.pets.Update(f.ctx, a["id"].(string), []byte(`{"code":"P1"}`))
	require.NoError(t, err, "reasignar el propio valor único es válido")

	_, err = f.pets.Update(f.ctx, a["id"].(string), []byte(`{"code":"P2"}`))
	assert.Contains(t, validationFields(t, err), "code")
}

func TestUpdate_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.pets.Update(f.ctx, "missing", []byte(`{"name":"x"}`))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_LuegoShowEs404(t *testing.T) {
	f := newFixture(t)
	p, err := f.pets.Create(f.ctx, []byte(`{"name":"Tom","code":"P1","weight":3}`))
	require.NoError(t, err)
	id := p["id"].(string)

	require.NoError(t, f.pets.Delete(f.ctx, id))
	_, err = f.pets.Show(f.ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.pets.Delete(f.ctx, id), domain.ErrNotFound)
}

func TestDelete_RestrictDevuelveConflicto(t *testing.T) {
	f := newFixture(t)
	o, err := f.owners.Create(f.ctx, []byte(`{"name":"Ana"}`))
	require.NoError(t, err)
	_, err = f.pets.Create(f.ctx, []byte(fmt.Sprintf(`{"name":"Tom","code":"P1","weight":3,"owner_id":%q}`, o["id"])))
	require.NoError(t, err)

	err = f.owners.Delete(f.ctx, o["id"].(string))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "pets", conflict.Dependent)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDelete_CascadeEliminaDependientes(t *testing.T) {
	f := newFixture(t)
	p, err := f.pets.Create(f.ctx, []byte(`{"name":"Tom","code":"P1","weight":3}`))
	require.NoError(t, err)
	id := p["id"].(string)
	for i := 0; i < 3; i++ {
		_, err = f.visits.Create(f.ctx, []byte(fmt.Sprintf(`{"pet_id":%q}`, id)))
		require.NoError(t, err)
	}

	require.NoError(t, f.pets.Delete(f.ctx, id))

	page, err := f.visits.List(f.ctx, resource.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalItems)
}

// ──────────────────────────────────────────────────────────────────────────────
// List
// ──────────────────────────────────────────────────────────────────────────────

func TestList_SinLimitDevuelveTodo(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		_, err := f.pets.Create(f.ctx, []byte(fmt.Sprintf(`{"name":"pet%d","code":"C%d","weight":1}`, i, i)))
		require.NoError(t, err)
	}

	page, err := f.pets.List(f.ctx, resource.ParseListParams("", "", "", nil))
	require.NoError(t, err)

	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 5, page.TotalItems)
	assert.Equal(t, 5, page.PerPage)
	require.Len(t, page.Data, 5)
	assert.Equal(t, "pet4", page.Data[0]["name"], "más recientes primero")
}

func TestList_Paginado(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 7; i++ {
		_, err := f.pets.Create(f.ctx, []byte(fmt.Sprintf(`{"name":"pet%d","code":"C%d","weight":1}`, i, i)))
		require.NoError(t, err)
	}

	page, err := f.pets.List(f.ctx, resource.ParseListParams("", "3", "3", nil))
	require.NoError(t, err)

	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 3, page.PerPage)
	assert.Equal(t, 7, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "pet0", page.Data[0]["name"])
}

func TestList_KeywordYFiltros(t *testing.T) {
	f := newFixture(t)
	_, err := f.pets.Create(f.ctx, []byte(`{"name":"Garfield","code":"G1","weight":9,"kind":"cat"}`))
	require.NoError(t, err)
	_, err = f.pets.Create(f.ctx, []byte(`{"name":"Gromit","code":"G2","weight":9,"kind":"dog"}`))
	require.NoError(t, err)
	_, err = f.pets.Create(f.ctx, []byte(`{"name":"Felix","code":"F1","weight":3,"kind":"cat"}`))
	require.NoError(t, err)

	page, err := f.pets.List(f.ctx, resource.ParseListParams("g", "", "", nil))
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems, "búsqueda insensible a mayúsculas en name y code")

	page, err = f.pets.List(f.ctx, resource.ParseListParams("g", "", "", map[string]string{"kind": "cat", "code": "G2"}))
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalItems, "keyword AND filtro; filtros no declarados se ignoran")
	assert.Equal(t, "Garfield", page.Data[0]["name"])
}

func TestList_VacioPaginado(t *testing.T) {
	f := newFixture(t)
	page, err := f.pets.List(f.ctx, resource.ParseListParams("", "10", "1", nil))
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalItems)
	assert.Equal(t, 0, page.TotalPages)
	assert.NotNil(t, page.Data)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tipados y registro
// ──────────────────────────────────────────────────────────────────────────────

func TestGetYWhere_Tipados(t *testing.T) {
	f := newFixture(t)
	p, err := f.pets.Create(f.ctx, []byte(`{"name":"Tom","code":"P1","weight":2.25}`))
	require.NoError(t, err)
	id := p["id"].(string)
	_, err = f.visits.Create(f.ctx, []byte(fmt.Sprintf(`{"pet_id":%q,"note":"a"}`, id)))
	require.NoError(t, err)

	rec, err := f.pets.Get(f.ctx, id)
	require.NoError(t, err)
	assert.True(t, rec.Fields.Weight.Equal(decimal.RequireFromString("2.25")))

	visits, err := f.visits.Where(f.ctx, "pet_id", id)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "a", visits[0].Fields.Note)

	_, err = f.pets.Get(f.ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMigrate_RechazaReferenciaDesconocida(t *testing.T) {
	reg := resource.NewRegistry(memory.NewStore())
	resource.Register(reg, resource.Config[visit]{
		Name: "visits",
		Refs: []resource.Ref{{Field: "pet_id", Target: "pets"}},
	})
	assert.Error(t, reg.Migrate(context.Background()))
}

func TestRegister_NombreDuplicadoEntraEnPanico(t *testing.T) {
	reg := resource.NewRegistry(memory.NewStore())
	resource.Register(reg, resource.Config[tag]{Name: "tags"})
	assert.Panics(t, func() {
		resource.Register(reg, resource.Config[tag]{Name: "tags"})
	})
}

func toMaps(v any) []map[string]any {
	switch t := v.(type) {
	case []map[string]any:
		return t
	case nil:
		return nil
	}
	return nil
}

func keys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
