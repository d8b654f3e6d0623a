package http

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/resource"
)

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	timeType    = reflect.TypeOf(time.Time{})
)

// OpenAPI genera un documento Swagger 2.0 con las rutas CRUD de cada recurso del registro.
// Los esquemas salen de las etiquetas json/validate del modelo de cada recurso.
func OpenAPI(reg *resource.Registry, title, version string) ([]byte, error) {
	paths := map[string]any{}
	definitions := map[string]any{
		"ErrorResponse": object(map[string]any{
			"success": prop("boolean"),
			"code":    prop("string"),
			"message": prop("string"),
			"errors": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "array", "items": prop("string")},
			},
		}, nil),
	}

	for _, ep := range reg.Endpoints() {
		def := definitionName(ep.Name())
		definitions[def] = schemaOf(ep.Model())
		ref := map[string]any{"$ref": "#/definitions/" + def}
		tag := []string{ep.Name()}

		listParams := []any{
			query("keyword", "string", "Búsqueda parcial, insensible a mayúsculas"),
			query("limit", "integer", "Tamaño de página; vacío o 0 devuelve todo"),
			query("page", "integer", "Página (desde 1)"),
		}
		for _, f := range ep.FilterFields() {
			listParams = append(listParams, query(f, "string", "Filtro exacto"))
		}
		idParam := map[string]any{"name": "id", "in": "path", "required": true, "type": "string"}
		body := map[string]any{"name": "body", "in": "body", "required": true, "schema": ref}

		paths["/api/"+ep.Name()] = map[string]any{
			"get": op(tag, "Listar "+ep.Label(), listParams, "200"),
			"post": op(tag, "Crear registro de "+ep.Label(),
				[]any{body}, "201", "400", "422"),
		}
		paths["/api/"+ep.Name()+"/{id}"] = map[string]any{
			"get":    op(tag, "Obtener registro de "+ep.Label(), []any{idParam}, "200", "404"),
			"put":    op(tag, "Actualizar registro de "+ep.Label(), []any{idParam, body}, "200", "404", "422"),
			"patch":  op(tag, "Actualizar parcialmente registro de "+ep.Label(), []any{idParam, body}, "200", "404", "422"),
			"delete": op(tag, "Eliminar registro de "+ep.Label(), []any{idParam}, "200", "404", "409"),
		}
	}

	doc := map[string]any{
		"swagger":  "2.0",
		"info":     map[string]any{"title": title, "version": version},
		"basePath": "/",
		"consumes": []string{"application/json"},
		"produces": []string{"application/json"},
		"securityDefinitions": map[string]any{
			"Bearer": map[string]any{"type": "apiKey", "name": "Authorization", "in": "header"},
		},
		"paths":       paths,
		"definitions": definitions,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// WriteOpenAPI escribe el documento en path creando el directorio si hace falta.
func WriteOpenAPI(path string, reg *resource.Registry, title, version string) error {
	raw, err := OpenAPI(reg, title, version)
	if err != nil {
		return fmt.Errorf("openapi: generar: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("openapi: crear directorio: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("openapi: escribir %s: %w", path, err)
	}
	return nil
}

func op(tags []string, summary string, params []any, codes ...string) map[string]any {
	responses := map[string]any{}
	for _, code := range codes {
		if code[0] == '2' {
			responses[code] = map[string]any{"description": "OK"}
			continue
		}
		responses[code] = map[string]any{
			"description": "Error",
			"schema":      map[string]any{"$ref": "#/definitions/ErrorResponse"},
		}
	}
	return map[string]any{
		"tags":       tags,
		"summary":    summary,
		"parameters": params,
		"responses":  responses,
		"security":   []any{map[string]any{"Bearer": []string{}}},
	}
}

func query(name, typ, desc string) map[string]any {
	return map[string]any{"name": name, "in": "query", "type": typ, "description": desc}
}

func prop(typ string) map[string]any { return map[string]any{"type": typ} }

func object(props map[string]any, required []string) map[string]any {
	out := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// definitionName "tax-rates" -> "TaxRates".
func definitionName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

func schemaOf(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == decimalType:
		return prop("number")
	case t == timeType:
		return map[string]any{"type": "string", "format": "date-time"}
	}
	switch t.Kind() {
	case reflect.String:
		return prop("string")
	case reflect.Bool:
		return prop("boolean")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return prop("integer")
	case reflect.Float32, reflect.Float64:
		return prop("number")
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": schemaOf(t.Elem())}
	case reflect.Map:
		return map[string]any{"type": "object", "additionalProperties": schemaOf(t.Elem())}
	case reflect.Struct:
		props := map[string]any{}
		var required []string
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := strings.Split(f.Tag.Get("json"), ",")[0]
			if name == "-" {
				continue
			}
			if name == "" {
				name = f.Name
			}
			s := schemaOf(f.Type)
			rules := strings.Split(f.Tag.Get("validate"), ",")
			for _, rule := range rules {
				if rule == "dive" {
					break
				}
				applyRule(s, rule)
				if rule == "required" {
					required = append(required, name)
				}
			}
			props[name] = s
		}
		return object(props, required)
	default:
		return map[string]any{}
	}
}

func applyRule(s map[string]any, rule string) {
	key, val, _ := strings.Cut(rule, "=")
	isString := s["type"] == "string"
	switch key {
	case "oneof":
		s["enum"] = strings.Fields(val)
	case "max":
		if n, err := strconv.Atoi(val); err == nil && isString {
			s["maxLength"] = n
		} else if f, err := strconv.ParseFloat(val, 64); err == nil && !isString {
			s["maximum"] = f
		}
	case "lte":
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			s["maximum"] = f
		}
	case "gte", "min":
		if f, err := strconv.ParseFloat(val, 64); err == nil && !isString {
			s["minimum"] = f
		}
	case "gt":
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			s["minimum"] = f
			s["exclusiveMinimum"] = true
		}
	case "email":
		s["format"] = "email"
	case "datetime":
		if val == "2006-01-02" {
			s["format"] = "date"
		}
	}
}
