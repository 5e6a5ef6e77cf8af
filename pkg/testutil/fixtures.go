package testutil

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authmodels "registro/internal/auth/models"
	id "registro/pkg/domain"
)

// TestIDs provides deterministic identifiers for tests.
var TestIDs = struct {
	AdminID  id.UserID
	EditorID id.UserID
	ReaderID id.UserID
}{
	AdminID:  id.UserID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	EditorID: id.UserID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	ReaderID: id.UserID(uuid.MustParse("33333333-3333-3333-3333-333333333333")),
}

// UserBuilder provides a fluent interface for building test users.
type UserBuilder struct {
	user *authmodels.User
}

// NewUserBuilder creates an active editor with a random ID.
func NewUserBuilder() *UserBuilder {
	now := time.Now()
	return &UserBuilder{
		user: &authmodels.User{
			ID:        id.UserID(uuid.New()),
			Username:  "usuario-" + uuid.NewString()[:8],
			Nombre:    "Usuario de Prueba",
			Role:      id.RoleEditor,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (b *UserBuilder) WithID(userID id.UserID) *UserBuilder {
	b.user.ID = userID
	return b
}

func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.user.Username = username
	return b
}

func (b *UserBuilder) WithRole(role id.Role) *UserBuilder {
	b.user.Role = role
	return b
}

func (b *UserBuilder) Inactive() *UserBuilder {
	b.user.Active = false
	return b
}

// WithPassword stores a low-cost bcrypt hash of password.
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	b.user.PasswordHash = string(hash)
	return b
}

func (b *UserBuilder) Build() *authmodels.User {
	return b.user
}
