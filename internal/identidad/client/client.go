// Package client queries the national identity service over HTTP.
package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"registro/internal/identidad/models"
	pmodels "registro/internal/persona/models"
	"registro/internal/platform/metrics"
	id "registro/pkg/domain"
	"registro/pkg/platform/circuit"
	"registro/pkg/platform/tracer"
	"registro/pkg/platform/upstream"
)

const serviceName = "cedula_api"

// HTTPClient looks up cedulas at {baseURL}/cedulas/{cedula}.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuit.Breaker
	tracer     tracer.Tracer
	metrics    *metrics.Metrics
}

type Option func(*HTTPClient)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *HTTPClient) { cl.httpClient = c }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *HTTPClient) { cl.breaker = b }
}

func WithTracer(t tracer.Tracer) Option {
	return func(cl *HTTPClient) { cl.tracer = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *HTTPClient) { cl.metrics = m }
}

func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cedulaResponse struct {
	Cedula          string `json:"cedula"`
	Nombres         string `json:"nombres"`
	Apellidos       string `json:"apellidos"`
	FechaNacimiento string `json:"fecha_nacimiento"`
	Sexo            string `json:"sexo"`
}

// Lookup returns the identity registered under cedula. Failures are
// *upstream.Error values.
func (c *HTTPClient) Lookup(ctx context.Context, cedula id.Cedula) (ident *models.Identidad, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanCedulaCall, tracer.String(tracer.AttrCedula, tracer.HashCedula(cedula.String())))
	start := time.Now()
	defer func() {
		span.End(err)
		c.observe(err, time.Since(start))
	}()

	if c.baseURL == "" {
		return nil, upstream.New(upstream.CategoryInternal, serviceName, "CEDULA_API_URL is not configured", nil)
	}
	if c.breaker != nil {
		if berr := c.breaker.Allow(); berr != nil {
			return nil, upstream.New(upstream.CategoryCircuitOpen, serviceName, "circuit open", berr)
		}
	}

	ident, err = c.do(ctx, cedula, span)
	if c.breaker != nil {
		if upstream.CountsAsFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return ident, err
}

func (c *HTTPClient) do(ctx context.Context, cedula id.Cedula, span tracer.Span) (*models.Identidad, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cedulas/"+url.PathEscape(cedula.String()), nil)
	if err != nil {
		return nil, upstream.New(upstream.CategoryInternal, serviceName, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstream.FromTransport(ctx, serviceName, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(tracer.Int(tracer.AttrHTTPStatus, resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, upstream.FromStatus(serviceName, resp.StatusCode)
	}

	var body cedulaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return nil, upstream.New(upstream.CategoryBadData, serviceName, "decode response", err)
	}
	return toIdentidad(cedula, body)
}

func toIdentidad(requested id.Cedula, body cedulaResponse) (*models.Identidad, error) {
	got, err := id.ParseCedula(body.Cedula)
	if err != nil || got != requested {
		return nil, upstream.New(upstream.CategoryBadData, serviceName, "response cedula does not match request", err)
	}
	ident := &models.Identidad{
		Cedula:    got,
		Nombres:   strings.TrimSpace(body.Nombres),
		Apellidos: strings.TrimSpace(body.Apellidos),
		Sexo:      models.NormalizeSexo(body.Sexo),
	}
	if ident.Nombres == "" {
		return nil, upstream.New(upstream.CategoryBadData, serviceName, "response without nombres", nil)
	}
	if raw := strings.TrimSpace(body.FechaNacimiento); raw != "" {
		// Some records carry a full timestamp.
		if len(raw) > len(pmodels.DateLayout) {
			raw = raw[:len(pmodels.DateLayout)]
		}
		if t, err := time.Parse(pmodels.DateLayout, raw); err == nil {
			ident.FechaNacimiento = &t
		}
	}
	return ident, nil
}

func (c *HTTPClient) observe(err error, d time.Duration) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(upstream.CategoryOf(err))
	}
	c.metrics.ObserveExternalLookup(serviceName, outcome, d)
}
