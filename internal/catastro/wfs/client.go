// Package wfs fetches parcel geometries from the national cadastre's OGC
// Web Feature Service.
package wfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"registro/internal/catastro/models"
	"registro/internal/platform/metrics"
	"registro/pkg/platform/circuit"
	"registro/pkg/platform/tracer"
	"registro/pkg/platform/upstream"
)

const serviceName = "catastro_wfs"

// maxBodyBytes bounds a GetFeature response. A single parcel is small.
const maxBodyBytes = 4 << 20

// Client issues GetFeature requests filtered by the cadastral key.
type Client struct {
	baseURL    string
	layer      string
	httpClient *http.Client
	breaker    *circuit.Breaker
	tracer     tracer.Tracer
	metrics    *metrics.Metrics
	now        func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the default client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBreaker guards calls with a circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) { cl.breaker = b }
}

func WithTracer(t tracer.Tracer) Option {
	return func(cl *Client) { cl.tracer = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

func New(baseURL, layer string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "?"),
		layer:      layer,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     tracer.NewNoop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type featureCollection struct {
	Type     string `json:"type"`
	Features []struct {
		Geometry   json.RawMessage `json:"geometry"`
		Properties json.RawMessage `json:"properties"`
	} `json:"features"`
}

// GetFeature returns the first feature matching key. Failures are
// *upstream.Error values.
func (c *Client) GetFeature(ctx context.Context, key models.ParcelaKey) (feature *models.GeoFeature, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanWFSGetFeature, tracer.String(tracer.AttrParcela, key.String()))
	start := c.now()
	defer func() {
		span.End(err)
		c.observe(err, c.now().Sub(start))
	}()

	if c.baseURL == "" {
		return nil, upstream.New(upstream.CategoryInternal, serviceName, "CATASTRO_WFS_URL is not configured", nil)
	}
	if c.breaker != nil {
		if berr := c.breaker.Allow(); berr != nil {
			return nil, upstream.New(upstream.CategoryCircuitOpen, serviceName, "circuit open", berr)
		}
	}

	feature, err = c.fetch(ctx, key, span)
	if c.breaker != nil {
		if upstream.CountsAsFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return feature, err
}

func (c *Client) fetch(ctx context.Context, key models.ParcelaKey, span tracer.Span) (*models.GeoFeature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(key), nil)
	if err != nil {
		return nil, upstream.New(upstream.CategoryInternal, serviceName, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstream.FromTransport(ctx, serviceName, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(tracer.Int(tracer.AttrHTTPStatus, resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, upstream.FromStatus(serviceName, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, upstream.FromTransport(ctx, serviceName, err)
	}
	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		// GeoServer answers filter errors with an XML ExceptionReport and status 200.
		return nil, upstream.New(upstream.CategoryBadData, serviceName, "response is not GeoJSON", err)
	}
	if len(fc.Features) == 0 {
		return nil, upstream.New(upstream.CategoryNotFound, serviceName, "parcela "+key.String()+" not found", nil)
	}

	first := fc.Features[0]
	if err := checkPolygon(first.Geometry); err != nil {
		return nil, upstream.New(upstream.CategoryBadData, serviceName, "unexpected geometry", err)
	}
	f := &models.GeoFeature{
		ParcelaKey: key,
		Geometry:   first.Geometry,
		Properties: first.Properties,
		FetchedAt:  c.now(),
	}
	f.Properties = f.PropertiesObject()
	return f, nil
}

// requestURL builds a WFS 2.0 GetFeature query with a CQL filter on the
// three key columns.
func (c *Client) requestURL(key models.ParcelaKey) string {
	q := url.Values{}
	q.Set("service", "WFS")
	q.Set("version", "2.0.0")
	q.Set("request", "GetFeature")
	q.Set("typeNames", c.layer)
	q.Set("outputFormat", "application/json")
	q.Set("srsName", "EPSG:4326")
	q.Set("count", "1")
	q.Set("CQL_FILTER", fmt.Sprintf("departamento='%s' AND distrito='%s' AND padron='%s'",
		cqlEscape(key.Departamento), cqlEscape(key.Distrito), cqlEscape(key.Padron)))

	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep + q.Encode()
}

func cqlEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func checkPolygon(geometry json.RawMessage) error {
	var g struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(geometry, &g); err != nil {
		return err
	}
	switch g.Type {
	case "Polygon", "MultiPolygon":
		return nil
	case "":
		return errors.New("feature has no geometry")
	default:
		return fmt.Errorf("geometry type %s", g.Type)
	}
}

func (c *Client) observe(err error, d time.Duration) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(upstream.CategoryOf(err))
	}
	c.metrics.ObserveExternalLookup(serviceName, outcome, d)
}
