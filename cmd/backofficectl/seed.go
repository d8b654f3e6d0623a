package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/backoffice-api/pkg/client"
)

// fixture entrada del archivo de seed. Los strings "@clave" se reemplazan por el id
// creado para una entrada anterior con esa clave.
type fixture struct {
	Resource string         `yaml:"resource"`
	Key      string         `yaml:"key"`
	Data     map[string]any `yaml:"data"`
}

func newSeedCommand(o *globalOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Carga fixtures YAML en orden, resolviendo referencias @clave",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrapf(err, "leer %s", file)
			}
			fixtures, err := parseFixtures(raw)
			if err != nil {
				return err
			}
			_, err = seed(cmd.Context(), o.client(), fixtures, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "fixtures.yaml", "archivo YAML de fixtures")
	return cmd
}

func parseFixtures(raw []byte) ([]fixture, error) {
	var out []fixture
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "fixtures YAML inválido")
	}
	for i, f := range out {
		if f.Resource == "" {
			return nil, errors.Errorf("fixture #%d sin resource", i+1)
		}
	}
	return out, nil
}

// seed crea cada fixture y devuelve clave -> id.
func seed(ctx context.Context, c *client.Client, fixtures []fixture, out io.Writer) (map[string]string, error) {
	ids := map[string]string{}
	for i, f := range fixtures {
		data, err := resolveRefs(f.Data, ids)
		if err != nil {
			return ids, errors.Wrapf(err, "fixture #%d (%s)", i+1, f.Resource)
		}
		item, err := client.NewResource[map[string]any](c, f.Resource).Create(ctx, data)
		if err != nil {
			return ids, errors.Wrapf(explain(err), "fixture #%d (%s)", i+1, f.Resource)
		}
		id, _ := item["id"].(string)
		if f.Key != "" {
			ids[f.Key] = id
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", f.Resource, id, f.Key)
	}
	return ids, nil
}

func resolveRefs(v any, ids map[string]string) (any, error) {
	switch t := v.(type) {
	case string:
		if key, ok := strings.CutPrefix(t, "@"); ok && key != "" {
			id, found := ids[key]
			if !found {
				return nil, errors.Errorf("referencia @%s sin definir", key)
			}
			return id, nil
		}
		return t, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			r, err := resolveRefs(val, ids)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			r, err := resolveRefs(val, ids)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}
