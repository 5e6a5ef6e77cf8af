package wfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registro/internal/catastro/models"
	"registro/pkg/platform/circuit"
	"registro/pkg/platform/upstream"
)

const parcelaJSON = `{"type":"FeatureCollection","features":[{"type":"Feature",
	"geometry":{"type":"Polygon","coordinates":[[[-57.6,-25.3],[-57.5,-25.3],[-57.5,-25.2],[-57.6,-25.3]]]},
	"properties":{"padron":"1234","zona":"urbana"}}]}`

var key = models.ParcelaKey{Departamento: "11", Distrito: "1", Padron: "1234"}

func TestGetFeature(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(parcelaJSON))
	}))
	defer srv.Close()

	c := New(srv.URL, "catastro:parcelas", time.Second)
	f, err := c.GetFeature(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, key, f.ParcelaKey)
	assert.Contains(t, string(f.Geometry), "Polygon")
	assert.JSONEq(t, `{"padron":"1234","zona":"urbana"}`, string(f.Properties))
	assert.Equal(t, []string{"GetFeature"}, gotQuery["request"])
	assert.Equal(t, []string{"catastro:parcelas"}, gotQuery["typeNames"])
	assert.Equal(t, []string{"departamento='11' AND distrito='1' AND padron='1234'"}, gotQuery["CQL_FILTER"])
}

func TestGetFeatureNullProperties(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature",
			"geometry":{"type":"Polygon","coordinates":[[[-57.6,-25.3],[-57.5,-25.3],[-57.5,-25.2],[-57.6,-25.3]]]},
			"properties":null}]}`))
	}))
	defer srv.Close()

	f, err := New(srv.URL, "catastro:parcelas", time.Second).GetFeature(context.Background(), key)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(f.Properties))
}

func TestGetFeatureErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    upstream.Category
	}{
		{"empty collection", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
		}, upstream.CategoryNotFound},
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}, upstream.CategoryOutage},
		{"xml exception report", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<ows:ExceptionReport/>`))
		}, upstream.CategoryBadData},
		{"point geometry", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"features":[{"geometry":{"type":"Point","coordinates":[1,2]}}]}`))
		}, upstream.CategoryBadData},
		{"slow upstream", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		}, upstream.CategoryTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(srv.URL, "l", 50*time.Millisecond)
			_, err := c.GetFeature(context.Background(), key)
			require.Error(t, err)
			assert.Equal(t, tt.want, upstream.CategoryOf(err))
		})
	}
}

func TestGetFeatureBreaker(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "l", time.Second, WithBreaker(circuit.New("wfs", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))))
	for range 2 {
		_, err := c.GetFeature(context.Background(), key)
		assert.Equal(t, upstream.CategoryOutage, upstream.CategoryOf(err))
	}

	_, err := c.GetFeature(context.Background(), key)
	assert.Equal(t, upstream.CategoryCircuitOpen, upstream.CategoryOf(err))
	assert.Equal(t, 2, calls, "open circuit short-circuits the request")
}

func TestGetFeatureNotConfigured(t *testing.T) {
	_, err := New("", "l", time.Second).GetFeature(context.Background(), key)
	assert.Equal(t, upstream.CategoryInternal, upstream.CategoryOf(err))
}

func TestCQLEscape(t *testing.T) {
	assert.Equal(t, "O''Higgins", cqlEscape("O'Higgins"))
}
