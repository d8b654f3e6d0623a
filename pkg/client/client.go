// Package client cliente HTTP explícito del API de back-office.
//
// Cada instancia lleva su propia cadena de middlewares (token, refresco en 401, límite de
// tasa, reintentos); no hay estado global.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client instancia ligada a una URL base.
type Client struct {
	baseURL string
	doer    Doer
}

// Option configura el cliente.
type Option func(*clientOptions)

type clientOptions struct {
	http        *http.Client
	middlewares []Middleware
}

// WithHTTPClient reemplaza el *http.Client de transporte.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.http = hc }
}

// WithMiddleware agrega middlewares; el primero queda más afuera.
func WithMiddleware(mws ...Middleware) Option {
	return func(o *clientOptions) { o.middlewares = append(o.middlewares, mws...) }
}

// New crea un cliente para baseURL (p. ej. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	o := clientOptions{http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    Chain(o.http, o.middlewares...),
	}
}

// Do envía la petición y decodifica el JSON de respuesta en out (si no es nil).
// Respuestas fuera de 2xx se devuelven como *APIError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		raw, ok := body.([]byte)
		if !ok {
			var err error
			if raw, err = json.Marshal(body); err != nil {
				return errors.Wrap(err, "codificar cuerpo")
			}
		}
		payload = raw
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "crear petición %s %s", method, path)
	}
	if payload == nil {
		req.Body, req.GetBody, req.ContentLength = nil, nil, 0
	} else {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "leer respuesta")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(raw, out), "decodificar respuesta")
}
