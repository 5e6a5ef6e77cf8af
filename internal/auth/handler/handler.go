package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"registro/internal/auth/models"
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/httputil"
	"registro/pkg/requestcontext"
)

const (
	RefreshCookieName = "refresh_token"
	refreshCookiePath = "/api/auth"
)

// Service defines the interface for authentication and user administration.
type Service interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResult, error)
	Refresh(ctx context.Context, rawToken string) (*models.TokenResult, error)
	Logout(ctx context.Context, rawToken string) error
	Me(ctx context.Context, userID id.UserID) (*models.UserResponse, error)
	ListUsers(ctx context.Context, page httputil.PageRequest) (httputil.ListResponse[*models.UserResponse], error)
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.UserResponse, error)
	UpdateUser(ctx context.Context, userID id.UserID, upd models.UserUpdate) (*models.UserResponse, error)
	DeleteUser(ctx context.Context, userID id.UserID) error
}

// Handler serves login, refresh-cookie rotation and user administration.
type Handler struct {
	auth         Service
	logger       *slog.Logger
	cookieSecure bool
}

// New creates an auth Handler. cookieSecure marks the refresh cookie Secure.
func New(auth Service, logger *slog.Logger, cookieSecure bool) *Handler {
	return &Handler{auth: auth, logger: logger, cookieSecure: cookieSecure}
}

// Register mounts the routes that do not require a bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/auth/logout", h.HandleLogout)
}

// RegisterAuthenticated mounts routes that need an authenticated caller.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Get("/auth/me", h.HandleMe)
}

// RegisterAdmin mounts user administration. The parent router enforces the admin role.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/usuarios", h.HandleListUsers)
	r.Post("/usuarios", h.HandleCreateUser)
	r.Patch("/usuarios/{id}", h.HandleUpdateUser)
	r.Delete("/usuarios/{id}", h.HandleDeleteUser)
}

// HandleLogin verifies credentials, returns an access token and sets the refresh cookie.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.auth.Login(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	h.setRefreshCookie(w, res.RefreshToken, res.RefreshTTL)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleRefresh rotates the refresh cookie and returns a new access token.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sesion expirada, inicie sesion nuevamente"))
		return
	}

	res, err := h.auth.Refresh(ctx, cookie.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "token refresh failed", "error", err, "request_id", requestID)
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			h.clearRefreshCookie(w)
		}
		httputil.WriteError(w, err)
		return
	}

	h.setRefreshCookie(w, res.RefreshToken, res.RefreshTTL)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleLogout revokes the refresh cookie and clears it.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var raw string
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		raw = cookie.Value
	}
	if err := h.auth.Logout(ctx, raw); err != nil {
		h.logger.ErrorContext(ctx, "logout failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	h.clearRefreshCookie(w)
	httputil.WriteNoContent(w)
}

// HandleMe returns the authenticated user.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	res, err := h.auth.Me(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "get current user failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.auth.ListUsers(ctx, page)
	if err != nil {
		h.logger.ErrorContext(ctx, "list users failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateUserRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.auth.CreateUser(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "create user failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateUserRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.auth.UpdateUser(ctx, userID, req.ToUpdate())
	if err != nil {
		h.logger.ErrorContext(ctx, "update user failed", "error", err, "request_id", requestID, "user_id", userID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.auth.DeleteUser(ctx, userID); err != nil {
		h.logger.ErrorContext(ctx, "delete user failed", "error", err, "request_id", requestID, "user_id", userID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
