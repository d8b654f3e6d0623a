package repository

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// DecodeFields decodifica el payload de un documento preservando los números tal cual (json.Number).
func DecodeFields(data json.RawMessage) (map[string]any, error) {
	fields := map[string]any{}
	if len(data) == 0 {
		return fields, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// FieldText devuelve la representación textual de un campo escalar, la misma que
// produce `data->>'campo'` en PostgreSQL. ok=false si el campo es null, no existe o no es escalar.
func FieldText(fields map[string]any, key string) (string, bool) {
	return ScalarText(fields[key])
}

// ScalarText convierte un valor JSON escalar a texto.
func ScalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

// FieldTexts devuelve los valores textuales de un campo que puede ser escalar o arreglo de escalares.
func FieldTexts(fields map[string]any, key string) []string {
	switch t := fields[key].(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := ScalarText(v); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s, ok := ScalarText(t); ok && s != "" {
			return []string{s}
		}
		return nil
	}
}
