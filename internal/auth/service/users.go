package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"registro/internal/auth/models"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

// Me returns the authenticated caller's account.
func (s *Service) Me(ctx context.Context, userID id.UserID) (*models.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "failed to load user")
	}
	return models.ToUserResponse(user), nil
}

func (s *Service) ListUsers(ctx context.Context, page httputil.PageRequest) (httputil.ListResponse[*models.UserResponse], error) {
	users, total, err := s.users.List(ctx, page.Limit, page.Offset())
	if err != nil {
		return httputil.ListResponse[*models.UserResponse]{}, translate(err, "failed to list users")
	}
	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, models.ToUserResponse(u))
	}
	return httputil.NewListResponse(out, page, total), nil
}

func (s *Service) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	now := requestcontext.Now(ctx)
	user := &models.User{
		ID:           id.UserID(uuid.New()),
		Username:     req.Username,
		PasswordHash: string(hash),
		Nombre:       req.Nombre,
		Role:         id.Role(req.Role),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, translate(err, "failed to create user")
	}

	s.logAudit(ctx, "user_created",
		"user_id", user.ID.String(),
		"role", user.Role.String(),
		"actor_id", requestcontext.UserID(ctx).String(),
	)
	s.incrementUsersCreated()
	return models.ToUserResponse(user), nil
}

// UpdateUser applies an admin edit. Deactivation or a password change revokes
// the user's refresh tokens. The last active admin cannot be demoted or disabled.
func (s *Service) UpdateUser(ctx context.Context, userID id.UserID, upd models.UserUpdate) (*models.UserResponse, error) {
	var updated *models.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return err
		}

		losesAdmin := user.Role == id.RoleAdmin && user.Active &&
			((upd.Role != nil && *upd.Role != id.RoleAdmin) || (upd.Active != nil && !*upd.Active))
		if losesAdmin {
			if err := s.ensureAnotherAdmin(ctx); err != nil {
				return err
			}
		}

		revoke := false
		if upd.Nombre != nil {
			user.Nombre = *upd.Nombre
		}
		if upd.Role != nil {
			user.Role = *upd.Role
		}
		if upd.Active != nil {
			revoke = user.Active && !*upd.Active
			user.Active = *upd.Active
		}
		if upd.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), s.bcryptCost)
			if err != nil {
				return err
			}
			user.PasswordHash = string(hash)
			revoke = true
		}
		user.UpdatedAt = requestcontext.Now(ctx)

		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		if revoke {
			if _, err := s.tokens.DeleteByUser(ctx, user.ID); err != nil {
				return err
			}
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to update user")
	}

	s.logAudit(ctx, "user_updated",
		"user_id", userID.String(),
		"actor_id", requestcontext.UserID(ctx).String(),
	)
	return models.ToUserResponse(updated), nil
}

// DeleteUser removes an account. Admins cannot delete themselves or the last active admin.
func (s *Service) DeleteUser(ctx context.Context, userID id.UserID) error {
	if requestcontext.UserID(ctx) == userID {
		return errSelfDelete
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.Role == id.RoleAdmin && user.Active {
			if err := s.ensureAnotherAdmin(ctx); err != nil {
				return err
			}
		}
		return s.users.Delete(ctx, userID)
	})
	if err != nil {
		return translate(err, "failed to delete user")
	}

	s.logAudit(ctx, "user_deleted",
		"user_id", userID.String(),
		"actor_id", requestcontext.UserID(ctx).String(),
	)
	return nil
}

func (s *Service) ensureAnotherAdmin(ctx context.Context) error {
	n, err := s.users.CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return errLastAdmin
	}
	return nil
}
