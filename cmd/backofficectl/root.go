package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/jhoicas/backoffice-api/pkg/client"
	"github.com/jhoicas/backoffice-api/pkg/jwt"
)

// globalOptions flags compartidos por todos los comandos.
type globalOptions struct {
	server string
	token  string
	secret string
	issuer string
	role   string
	rps    float64
}

func (o *globalOptions) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.server, "server", envOr("BACKOFFICE_SERVER", "http://localhost:8080"), "URL base del API")
	fs.StringVar(&o.token, "token", os.Getenv("BACKOFFICE_TOKEN"), "Bearer token ya emitido")
	fs.StringVar(&o.secret, "secret", os.Getenv("JWT_SECRET"), "secreto JWT para firmar tokens localmente")
	fs.StringVar(&o.issuer, "issuer", envOr("JWT_ISSUER", "backoffice-api"), "issuer de los tokens firmados")
	fs.StringVar(&o.role, "role", "admin", "rol de los tokens firmados con --secret")
	fs.Float64Var(&o.rps, "rps", 0, "máximo de peticiones por segundo (0 = sin límite)")
}

// client arma el cliente con la cadena de middlewares según los flags.
func (o *globalOptions) client() *client.Client {
	mws := []client.Middleware{client.Retry(3, nil)}
	if o.rps > 0 {
		mws = append(mws, client.RateLimit(rate.NewLimiter(rate.Limit(o.rps), 1)))
	}
	switch {
	case o.token != "":
		mws = append(mws, client.WithBearer(client.StaticToken(o.token)))
	case o.secret != "":
		src := &client.JWTSource{Secret: o.secret, UserID: "backofficectl", Role: o.role, Issuer: o.issuer}
		mws = append(mws, client.WithBearer(src), client.RefreshOn401(src))
	}
	return client.New(o.server, client.WithMiddleware(mws...))
}

func newRootCommand() *cobra.Command {
	o := &globalOptions{}
	root := &cobra.Command{
		Use:           "backofficectl",
		Short:         "Cliente de línea de comandos del API de back-office",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	o.bind(root.PersistentFlags())

	root.AddCommand(
		newTokenCommand(o),
		newListCommand(o),
		newGetCommand(o),
		newCreateCommand(o),
		newUpdateCommand(o),
		newDeleteCommand(o),
		newSeedCommand(o),
	)
	return root
}

func newTokenCommand(o *globalOptions) *cobra.Command {
	var userID string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Firma un token JWT con --secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.secret == "" {
				return errors.New("--secret es requerido")
			}
			tok, err := jwt.Generate(o.secret, userID, o.role, o.issuer, int(ttl/time.Minute))
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), tok+"\n")
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "backofficectl", "user_id del token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "vigencia del token")
	return cmd
}

func newListCommand(o *globalOptions) *cobra.Command {
	var q client.ListQuery
	cmd := &cobra.Command{
		Use:   "list <recurso>",
		Short: "Lista registros (keyword, paginación y filtros exactos)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := client.NewResource[map[string]any](o.client(), args[0]).List(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().StringVar(&q.Keyword, "keyword", "", "búsqueda parcial")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "tamaño de página (0 = todo)")
	cmd.Flags().IntVar(&q.Page, "page", 1, "página")
	cmd.Flags().StringToStringVar(&q.Filters, "filter", nil, "filtros exactos campo=valor")
	return cmd
}

func newGetCommand(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <recurso> <id>",
		Short: "Muestra un registro con sus relaciones",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := client.NewResource[map[string]any](o.client(), args[0]).Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}
}

func newCreateCommand(o *globalOptions) *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:   "create <recurso>",
		Short: "Crea un registro desde --data o --file (- = stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readPayload(cmd.InOrStdin(), data, file)
			if err != nil {
				return err
			}
			item, err := client.NewResource[map[string]any](o.client(), args[0]).Create(cmd.Context(), body)
			if err != nil {
				return explain(err)
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}
	payloadFlags(cmd.Flags(), &data, &file)
	return cmd
}

func newUpdateCommand(o *globalOptions) *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:   "update <recurso> <id>",
		Short: "Actualiza solo las claves enviadas",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readPayload(cmd.InOrStdin(), data, file)
			if err != nil {
				return err
			}
			item, err := client.NewResource[map[string]any](o.client(), args[0]).Update(cmd.Context(), args[1], body)
			if err != nil {
				return explain(err)
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}
	payloadFlags(cmd.Flags(), &data, &file)
	return cmd
}

func newDeleteCommand(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <recurso> <id>",
		Short: "Elimina un registro",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.NewResource[map[string]any](o.client(), args[0]).Delete(cmd.Context(), args[1]); err != nil {
				return explain(err)
			}
			_, err := io.WriteString(cmd.OutOrStdout(), "eliminado "+args[1]+"\n")
			return err
		},
	}
}

func payloadFlags(fs *pflag.FlagSet, data, file *string) {
	fs.StringVarP(data, "data", "d", "", "cuerpo JSON")
	fs.StringVarP(file, "file", "f", "", "archivo JSON (- = stdin)")
}

func readPayload(stdin io.Reader, data, file string) ([]byte, error) {
	switch {
	case data != "":
		return []byte(data), nil
	case file == "-":
		b, err := io.ReadAll(stdin)
		return b, errors.Wrap(err, "leer stdin")
	case file != "":
		b, err := os.ReadFile(file)
		return b, errors.Wrapf(err, "leer %s", file)
	default:
		return nil, errors.New("indique --data o --file")
	}
}

// explain agrega los errores por campo de un 422 al mensaje.
func explain(err error) error {
	apiErr, ok := client.AsAPIError(err)
	if !ok || len(apiErr.Errors) == 0 {
		return err
	}
	var b strings.Builder
	b.WriteString(apiErr.Message)
	for field, msgs := range apiErr.Errors {
		b.WriteString("\n  " + field + ": " + strings.Join(msgs, "; "))
	}
	return errors.New(b.String())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
