package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registro/internal/auth/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
)

func newUser(username string, role id.Role) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id.UserID(uuid.New()),
		Username:  username,
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInMemoryUserStore(t *testing.T) {
	ctx := context.Background()

	t.Run("usernames are unique case-insensitively", func(t *testing.T) {
		s := NewInMemoryUserStore()
		require.NoError(t, s.Create(ctx, newUser("ana", id.RoleAdmin)))
		err := s.Create(ctx, newUser("ANA", id.RoleEditor))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("find by username", func(t *testing.T) {
		s := NewInMemoryUserStore()
		u := newUser("ana", id.RoleAdmin)
		require.NoError(t, s.Create(ctx, u))

		got, err := s.FindByUsername(ctx, "Ana")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = s.FindByUsername(ctx, "nadie")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list pages sorted by username", func(t *testing.T) {
		s := NewInMemoryUserStore()
		for _, name := range []string{"carla", "ana", "beto"} {
			require.NoError(t, s.Create(ctx, newUser(name, id.RoleReader)))
		}
		page, total, err := s.List(ctx, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 2)
		assert.Equal(t, "beto", page[0].Username)
		assert.Equal(t, "carla", page[1].Username)
	})

	t.Run("active admins and status", func(t *testing.T) {
		s := NewInMemoryUserStore()
		admin := newUser("ana", id.RoleAdmin)
		inactive := newUser("beto", id.RoleAdmin)
		inactive.Active = false
		require.NoError(t, s.Create(ctx, admin))
		require.NoError(t, s.Create(ctx, inactive))

		n, err := s.CountActiveAdmins(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		active, err := s.IsActive(ctx, inactive.ID)
		require.NoError(t, err)
		assert.False(t, active)

		active, err = s.IsActive(ctx, id.UserID(uuid.New()))
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("update and delete unknown users", func(t *testing.T) {
		s := NewInMemoryUserStore()
		assert.ErrorIs(t, s.Update(ctx, newUser("x", id.RoleReader)), sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, id.UserID(uuid.New())), sentinel.ErrNotFound)
	})
}
