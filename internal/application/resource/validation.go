package resource

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	"github.com/shopspring/decimal"
)

// fieldValidator envuelve validator/v10 con mensajes en español y nombres de campo JSON.
type fieldValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

var (
	sharedValidator     *fieldValidator
	sharedValidatorOnce sync.Once
)

// defaultValidator devuelve el validador compartido (validator.Validate cachea por tipo y es thread-safe).
func defaultValidator() *fieldValidator {
	sharedValidatorOnce.Do(func() {
		sharedValidator = newFieldValidator()
	})
	return sharedValidator
}

func newFieldValidator() *fieldValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// Los montos se validan como números (gte, lte, gt).
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	locale := es.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("es")
	_ = es_translations.RegisterDefaultTranslations(v, trans)
	_ = v.RegisterTranslation("datetime", trans, func(t ut.Translator) error {
		return t.Add("datetime", "{0} debe tener el formato {1}", true)
	}, func(t ut.Translator, fe validator.FieldError) string {
		layout := fe.Param()
		if layout == "2006-01-02" {
			layout = "AAAA-MM-DD"
		}
		msg, err := t.T("datetime", fe.Field(), layout)
		if err != nil {
			return fe.Error()
		}
		return msg
	})
	return &fieldValidator{validate: v, trans: trans}
}

// Struct valida rec y devuelve los errores por campo, con claves en notación de puntos
// relativa a la raíz del registro ("name", "config.webhook_url", "contents.items.0.quantity").
func (fv *fieldValidator) Struct(rec any) (map[string][]string, error) {
	err := fv.validate.Struct(rec)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe.Namespace())
		msg := fe.Translate(fv.trans)
		if msg == "" || msg == fe.Tag() {
			msg = fe.Error()
		}
		out[key] = append(out[key], msg)
	}
	return out, nil
}

// fieldKey quita el nombre del struct raíz y convierte índices [n] en segmentos .n
func fieldKey(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

// rootKey primer segmento de una clave de error ("config.mode" -> "config").
func rootKey(key string) string {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i]
	}
	return key
}
