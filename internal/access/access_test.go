package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/requestcontext"
)

func TestCanAccessRecord(t *testing.T) {
	owner := id.UserID(uuid.New())
	other := id.UserID(uuid.New())

	tests := []struct {
		name      string
		principal requestcontext.AuthPrincipal
		ownerID   *id.UserID
		want      bool
	}{
		{"admin on someone else's row", requestcontext.AuthPrincipal{UserID: other, Role: id.RoleAdmin}, &owner, true},
		{"admin on ownerless row", requestcontext.AuthPrincipal{UserID: other, Role: id.RoleAdmin}, nil, true},
		{"editor on own row", requestcontext.AuthPrincipal{UserID: owner, Role: id.RoleEditor}, &owner, true},
		{"editor on someone else's row", requestcontext.AuthPrincipal{UserID: other, Role: id.RoleEditor}, &owner, false},
		{"editor on ownerless row", requestcontext.AuthPrincipal{UserID: owner, Role: id.RoleEditor}, nil, false},
		{"lector on own row", requestcontext.AuthPrincipal{UserID: owner, Role: id.RoleReader}, &owner, true},
		{"anonymous", requestcontext.AuthPrincipal{}, &owner, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessRecord(tt.principal, tt.ownerID))
		})
	}
}

func TestRequireRecordAccess(t *testing.T) {
	owner := id.UserID(uuid.New())
	err := RequireRecordAccess(requestcontext.AuthPrincipal{UserID: id.UserID(uuid.New()), Role: id.RoleEditor}, &owner)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	assert.NoError(t, RequireRecordAccess(requestcontext.AuthPrincipal{UserID: owner, Role: id.RoleEditor}, &owner))
}

func TestRequireWriter(t *testing.T) {
	assert.NoError(t, RequireWriter(requestcontext.AuthPrincipal{UserID: id.UserID(uuid.New()), Role: id.RoleEditor}))
	assert.True(t, dErrors.HasCode(RequireWriter(requestcontext.AuthPrincipal{UserID: id.UserID(uuid.New()), Role: id.RoleReader}), dErrors.CodeForbidden))
	assert.True(t, dErrors.HasCode(RequireWriter(requestcontext.AuthPrincipal{}), dErrors.CodeUnauthorized))
}
