package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "registro/pkg/domain"
	"registro/pkg/platform/upstream"
)

func TestLookup(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		_, _ = w.Write([]byte(`{"cedula":"1.234.567","nombres":" Maria ","apellidos":"Benitez",
			"fecha_nacimiento":"1990-03-04T00:00:00","sexo":"FEMENINO"}`))
	}))
	defer srv.Close()

	ident, err := New(srv.URL+"/", "secret", time.Second).Lookup(context.Background(), id.Cedula("1234567"))
	require.NoError(t, err)

	assert.Equal(t, "/cedulas/1234567", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "Maria", ident.Nombres)
	assert.Equal(t, "F", ident.Sexo)
	require.NotNil(t, ident.FechaNacimiento)
	assert.Equal(t, "1990-03-04", ident.FechaNacimiento.Format("2006-01-02"))
}

func TestLookupErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   upstream.Category
	}{
		{"not found", http.StatusNotFound, "", upstream.CategoryNotFound},
		{"unauthorized", http.StatusUnauthorized, "", upstream.CategoryAuthentication},
		{"outage", http.StatusServiceUnavailable, "", upstream.CategoryOutage},
		{"garbage", http.StatusOK, "<html>", upstream.CategoryBadData},
		{"other cedula", http.StatusOK, `{"cedula":"999","nombres":"X"}`, upstream.CategoryBadData},
		{"no nombres", http.StatusOK, `{"cedula":"1234567"}`, upstream.CategoryBadData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, "", time.Second).Lookup(context.Background(), id.Cedula("1234567"))
			assert.Equal(t, tt.want, upstream.CategoryOf(err))
		})
	}
}

func TestLookupNotConfigured(t *testing.T) {
	_, err := New("", "", time.Second).Lookup(context.Background(), id.Cedula("1"))
	assert.Equal(t, upstream.CategoryInternal, upstream.CategoryOf(err))
}
