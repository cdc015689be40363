package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nhadat/listing-auth/internal/apperr"
	"github.com/nhadat/listing-auth/internal/http/respond"
	"github.com/nhadat/listing-auth/internal/middleware"
	"github.com/nhadat/listing-auth/internal/models/dto"
	"github.com/nhadat/listing-auth/internal/session"
)

// RouteGuards holds the middleware the auth routes are mounted behind.
// Nil guards are skipped.
type RouteGuards struct {
	Authenticate func(http.Handler) http.Handler
	RateLimit    func(http.Handler) http.Handler
	AdminOnly    func(http.Handler) http.Handler
}

// AuthHandler serves the /auth endpoints on top of the session service.
type AuthHandler struct {
	sessions *session.Service
	cookies  CookieConfig
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(sessions *session.Service, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies}
}

// Register mounts the auth routes under /auth.
func (h *AuthHandler) Register(r chi.Router, g RouteGuards) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			use(r, g.RateLimit)
			r.Post("/register", h.handleRegister)
			r.Post("/login", h.handleLogin)
		})
		r.Post("/refresh-token", h.handleRefresh)

		r.Group(func(r chi.Router) {
			use(r, g.Authenticate)
			r.Get("/me", h.handleMe)
			r.Put("/change-password", h.handleChangePassword)
			r.Post("/logout", h.handleLogout)

			r.Group(func(r chi.Router) {
				use(r, g.AdminOnly)
				r.Get("/users/{id}", h.handleLookupUser)
			})
		})
	})
}

func use(r chi.Router, mw func(http.Handler) http.Handler) {
	if mw != nil {
		r.Use(mw)
	}
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respond.Error(w, r, err)
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateStruct(req); err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := h.sessions.Register(r.Context(), session.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusCreated, "Đăng ký thành công", result)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respond.Error(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusOK, "Đăng nhập thành công", result)
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respond.Error(w, r, err)
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		if c, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
			req.RefreshToken = c.Value
		}
	}
	if err := validateStruct(req); err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := h.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusOK, "Làm mới token thành công", result)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, r, apperr.New(apperr.CodeUnauthorized, "Authentication required"))
		return
	}
	profile, err := h.sessions.CurrentUser(r.Context(), id.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "", profile)
}

func (h *AuthHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, r, apperr.New(apperr.CodeUnauthorized, "Authentication required"))
		return
	}
	var req dto.ChangePasswordRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		respond.Error(w, r, err)
		return
	}

	err := h.sessions.ChangePassword(r.Context(), id.ID, session.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "Đổi mật khẩu thành công", nil)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.clearTokens(w)
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		h.sessions.Logout(r.Context(), id.ID)
	}
	respond.JSON(w, r, http.StatusOK, "Đăng xuất thành công", nil)
}

func (h *AuthHandler) handleLookupUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.sessions.CurrentUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "", profile)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, status int, message string, result *session.AuthResult) {
	h.cookies.setTokens(w, result.Tokens)
	respond.JSON(w, r, status, message, dto.AuthResponse{
		User:         result.User,
		AccessToken:  result.Tokens.Access.Value,
		RefreshToken: result.Tokens.Refresh.Value,
	})
}
