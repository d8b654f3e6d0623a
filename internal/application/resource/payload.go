package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

// serverOwned claves que el cliente nunca puede escribir.
var serverOwned = []string{"id", "created_at", "updated_at"}

// decodePayload exige un objeto JSON y descarta las claves administradas por el servidor.
func decodePayload(body []byte) (map[string]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, domain.ErrMalformed
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	for _, k := range serverOwned {
		delete(raw, k)
	}
	return raw, nil
}

var jsonKeysCache sync.Map // reflect.Type -> map[string]bool

// jsonKeys nombres exactos de los tags json del modelo, incluidos los de structs embebidos.
func jsonKeys(t reflect.Type) map[string]bool {
	if cached, ok := jsonKeysCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	keys := make(map[string]bool)
	collectJSONKeys(t, keys)
	jsonKeysCache.Store(t, keys)
	return keys
}

func collectJSONKeys(t reflect.Type, keys map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectJSONKeys(ft, keys)
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[name] = true
	}
}

// canonicalPayload conserva solo las claves que coinciden exactamente con un tag json del modelo.
// encoding/json asigna "NAME" al campo name sin distinguir mayúsculas; esas variantes se descartan
// para que las claves enviadas y las validadas sean las mismas.
func canonicalPayload[T any](raw map[string]json.RawMessage) map[string]json.RawMessage {
	keys := jsonKeys(reflect.TypeOf((*T)(nil)).Elem())
	for k := range raw {
		if !keys[k] {
			delete(raw, k)
		}
	}
	return raw
}

// overlay aplica cada clave del payload sobre rec por separado, de modo que un tipo
// inválido queda asociado a su campo en lugar de abortar todo el decode.
// Un null sobre un campo no puntero no cambia el valor.
func overlay[T any](rec *T, raw map[string]json.RawMessage, verrs *domain.ValidationError) {
	for key, val := range raw {
		name, _ := json.Marshal(key)
		buf := make([]byte, 0, len(name)+len(val)+3)
		buf = append(buf, '{')
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, val...)
		buf = append(buf, '}')
		if err := json.Unmarshal(buf, rec); err != nil {
			verrs.Add(key, fmt.Sprintf("El campo %s tiene un tipo de dato inválido.", key))
		}
	}
}
