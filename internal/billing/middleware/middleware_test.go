package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	id "registro/pkg/domain"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) HasActiveSubscription(ctx context.Context, userID id.UserID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func serve(t *testing.T, checker SubscriptionChecker, principal *requestcontext.AuthPrincipal) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/mapa?bbox=0,0,1,1", nil)
	if principal != nil {
		req = req.WithContext(requestcontext.WithPrincipal(req.Context(), *principal))
	}
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	RequireActiveSubscription(checker, logger)(next).ServeHTTP(w, req)
	return w, called
}

func TestRequireActiveSubscription(t *testing.T) {
	userID := id.UserID(uuid.New())
	reader := &requestcontext.AuthPrincipal{UserID: userID, Role: id.RoleReader}

	t.Run("active subscription passes", func(t *testing.T) {
		checker := new(mockChecker)
		checker.On("HasActiveSubscription", mock.Anything, userID).Return(true, nil)
		w, called := serve(t, checker, reader)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, called)
	})

	t.Run("no subscription is 402", func(t *testing.T) {
		checker := new(mockChecker)
		checker.On("HasActiveSubscription", mock.Anything, userID).Return(false, nil)
		w, called := serve(t, checker, reader)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.False(t, called)

		var body httputil.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "subscription_required", body.Error)
	})

	t.Run("admins bypass the check", func(t *testing.T) {
		checker := new(mockChecker)
		w, called := serve(t, checker, &requestcontext.AuthPrincipal{UserID: userID, Role: id.RoleAdmin})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, called)
		checker.AssertNotCalled(t, "HasActiveSubscription", mock.Anything, mock.Anything)
	})

	t.Run("anonymous is 401", func(t *testing.T) {
		w, called := serve(t, new(mockChecker), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
	})

	t.Run("lookup failure is 500", func(t *testing.T) {
		checker := new(mockChecker)
		checker.On("HasActiveSubscription", mock.Anything, userID).Return(false, errors.New("db down"))
		w, called := serve(t, checker, reader)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, called)
	})
}
