package service

import (
	"github.com/google/uuid"

	"registro/internal/auth/models"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
)

func ptr[T any](v T) *T { return &v }

func (s *ServiceSuite) TestCreateUser() {
	s.Run("creates an active user with a hashed password", func() {
		res, err := s.service.CreateUser(s.asAdmin(), &models.CreateUserRequest{
			Username: "maria", Password: "contrasena1", Nombre: "Maria", Role: "editor",
		})
		s.Require().NoError(err)
		s.Equal("editor", res.Role)
		s.True(res.Active)

		stored, err := s.users.FindByUsername(s.ctx, "maria")
		s.Require().NoError(err)
		s.NotEqual("contrasena1", stored.PasswordHash)

		_, err = s.service.Login(s.ctx, &models.LoginRequest{Username: "maria", Password: "contrasena1"})
		s.NoError(err)
	})

	s.Run("duplicate username is a conflict", func() {
		_, err := s.service.CreateUser(s.asAdmin(), &models.CreateUserRequest{
			Username: "admin", Password: "contrasena1", Role: "lector",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestUpdateUser() {
	s.Run("last admin cannot be demoted", func() {
		_, err := s.service.UpdateUser(s.asAdmin(), s.admin.ID, models.UserUpdate{Role: ptr(id.RoleEditor)})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("deactivation revokes refresh tokens", func() {
		editor := s.addUser("editor", id.RoleEditor, true)
		login, err := s.service.Login(s.ctx, &models.LoginRequest{Username: "editor", Password: testPassword})
		s.Require().NoError(err)

		res, err := s.service.UpdateUser(s.asAdmin(), editor.ID, models.UserUpdate{Active: ptr(false)})
		s.Require().NoError(err)
		s.False(res.Active)

		_, err = s.tokens.Find(s.ctx, HashRefreshToken(login.RefreshToken))
		s.Error(err)
	})

	s.Run("password change takes effect", func() {
		reader := s.addUser("lector", id.RoleReader, true)
		_, err := s.service.UpdateUser(s.asAdmin(), reader.ID, models.UserUpdate{Password: ptr("nueva-clave-1")})
		s.Require().NoError(err)

		_, err = s.service.Login(s.ctx, &models.LoginRequest{Username: "lector", Password: "nueva-clave-1"})
		s.NoError(err)
	})

	s.Run("unknown user", func() {
		_, err := s.service.UpdateUser(s.asAdmin(), id.UserID(uuid.New()), models.UserUpdate{Nombre: ptr("x")})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDeleteUser() {
	s.Run("admins cannot delete themselves", func() {
		err := s.service.DeleteUser(s.asAdmin(), s.admin.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("deletes other users", func() {
		reader := s.addUser("lector", id.RoleReader, true)
		s.Require().NoError(s.service.DeleteUser(s.asAdmin(), reader.ID))
		_, err := s.service.Me(s.ctx, reader.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestListUsers() {
	s.addUser("beto", id.RoleReader, true)
	s.addUser("carla", id.RoleEditor, true)

	res, err := s.service.ListUsers(s.ctx, httputil.PageRequest{Page: 1, Limit: 2})
	s.Require().NoError(err)
	s.Len(res.Data, 2)
	s.Equal(3, res.Pagination.Total)
	s.Equal(2, res.Pagination.TotalPages)
}
