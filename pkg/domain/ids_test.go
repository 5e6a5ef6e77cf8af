package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "registro/pkg/domain-errors"
)

func TestParseUUID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRecordID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParsePropertyID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, PropertyID(raw), id)
		assert.False(t, id.IsNil())
	})
}

func TestParseCedula(t *testing.T) {
	tests := []struct {
		in      string
		want    Cedula
		wantErr bool
	}{
		{in: "1234567", want: "1234567"},
		{in: "1.234.567", want: "1234567"},
		{in: " 4 567 890 ", want: "4567890"},
		{in: "0045678", want: "45678"},
		{in: "", wantErr: true},
		{in: "12a45", wantErr: true},
		{in: "12345678901", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCedula(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Editor ")
	require.NoError(t, err)
	assert.Equal(t, RoleEditor, r)
	assert.True(t, r.CanWrite())
	assert.False(t, RoleReader.CanWrite())

	_, err = ParseRole("root")
	require.Error(t, err)
}
