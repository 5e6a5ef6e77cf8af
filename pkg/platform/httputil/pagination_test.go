package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "registro/pkg/domain-errors"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
		wantErr   bool
	}{
		{query: "", wantPage: 1, wantLimit: DefaultPageLimit},
		{query: "page=3&limit=10", wantPage: 3, wantLimit: 10},
		{query: "limit=500", wantPage: 1, wantLimit: MaxPageLimit},
		{query: "page=0", wantErr: true},
		{query: "page=-2", wantErr: true},
		{query: "limit=abc", wantErr: true},
		{query: "page=21474836&limit=100", wantPage: MaxPage, wantLimit: 100},
		{query: "page=99999999999999999&limit=100", wantErr: true},
		{query: "page=21474837", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/abogados?"+tt.query, nil)
			got, err := ParsePage(r)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, PageRequest{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, PageRequest{Page: 3, Limit: 20}.Offset())
	assert.Positive(t, PageRequest{Page: MaxPage, Limit: MaxPageLimit}.Offset())
}

func TestNewListResponse(t *testing.T) {
	resp := NewListResponse[string](nil, PageRequest{Page: 2, Limit: 10}, 21)

	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 21, TotalPages: 3}, resp.Pagination)
}

func TestOptionalInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?departamento=11", nil)
	v, err := OptionalInt(r, "departamento")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 11, *v)

	v, err = OptionalInt(r, "distrito")
	require.NoError(t, err)
	assert.Nil(t, v)

	r = httptest.NewRequest(http.MethodGet, "/?distrito=x", nil)
	_, err = OptionalInt(r, "distrito")
	assert.Error(t, err)
}
