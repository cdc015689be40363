// Package session implements registration, login, token refresh and password changes
// on top of the credential store and the token codec.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhadat/listing-auth/internal/apperr"
	"github.com/nhadat/listing-auth/internal/auth"
	"github.com/nhadat/listing-auth/internal/cache"
	"github.com/nhadat/listing-auth/internal/models"
	"github.com/nhadat/listing-auth/internal/storage"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailTaken         = "This email is already registered"
	msgPhoneTaken         = "This phone number is already registered"
	msgUserNotFound       = "User not found"
	msgWrongPassword      = "Current password is incorrect"
	msgPasswordMismatch   = "Xác nhận mật khẩu không khớp"
	msgRefreshExpired     = "Refresh token expired"
)

// IdentityCache caches profiles served by CurrentUser.
type IdentityCache interface {
	Get(ctx context.Context, id string) (*models.Profile, bool, error)
	Set(ctx context.Context, p models.Profile) error
	Delete(ctx context.Context, id string) error
}

// AvatarResolver turns stored avatar keys into URLs.
type AvatarResolver interface {
	URL(ctx context.Context, key string) (string, error)
}

// EventRecorder counts session outcomes.
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

// Options configures a Service. Zero values fall back to sensible defaults.
type Options struct {
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	DefaultRole string
	Avatars     AvatarResolver
	Cache       IdentityCache
	Events      EventRecorder
	Logger      *slog.Logger
}

// TokenPair is the access and refresh token minted together.
type TokenPair struct {
	Access  auth.Token
	Refresh auth.Token
}

// AuthResult is returned by operations that start or extend a session.
type AuthResult struct {
	User   models.UserSummary
	Tokens TokenPair
}

type RegisterInput struct {
	FullName string
	Email    string
	Phone    string
	Password string
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// Service orchestrates session operations.
type Service struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	hasher auth.PasswordHasher
	opts   Options
	log    *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService wires a Service.
func NewService(store storage.UserStore, tokens *auth.TokenManager, hasher auth.PasswordHasher, opts Options) *Service {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	if opts.DefaultRole == "" {
		opts.DefaultRole = models.RoleUser
	}
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}
	if opts.Events == nil {
		opts.Events = noopEvents{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		store:  store,
		tokens: tokens,
		hasher: hasher,
		opts:   opts,
		log:    opts.Logger.With(slog.String("component", "session")),
	}
}

// Register creates an identity and starts a session for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.FullName = strings.TrimSpace(in.FullName)

	if _, err := s.store.FindByEmail(ctx, in.Email); err == nil {
		s.opts.Events.RecordAuthEvent("register", "email_taken")
		return nil, apperr.New(apperr.CodeEmailTaken, msgEmailTaken)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, s.internal("register: find by email", err)
	}

	if _, err := s.store.FindByPhone(ctx, in.Phone); err == nil {
		s.opts.Events.RecordAuthEvent("register", "phone_taken")
		return nil, apperr.New(apperr.CodePhoneTaken, msgPhoneTaken)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, s.internal("register: find by phone", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal("register: hash password", err)
	}

	user, err := s.store.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Phone:        in.Phone,
		FullName:     in.FullName,
		PasswordHash: hash,
		RoleName:     s.opts.DefaultRole,
	})
	switch {
	case errors.Is(err, storage.ErrDuplicateEmail):
		s.opts.Events.RecordAuthEvent("register", "email_taken")
		return nil, apperr.Wrap(err, apperr.CodeEmailTaken, msgEmailTaken)
	case errors.Is(err, storage.ErrDuplicatePhone):
		s.opts.Events.RecordAuthEvent("register", "phone_taken")
		return nil, apperr.Wrap(err, apperr.CodePhoneTaken, msgPhoneTaken)
	case err != nil:
		return nil, s.internal("register: create user", err)
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.opts.Events.RecordAuthEvent("register", "success")
	s.log.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return result, nil
}

// Login verifies credentials and starts a session. Unknown email and wrong password
// produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, s.internal("login: find by email", err)
		}
		// Keep response time close to the wrong-password path.
		s.hasher.Verify(s.dummyPasswordHash(), password)
		s.opts.Events.RecordAuthEvent("login", "invalid_credentials")
		return nil, apperr.New(apperr.CodeInvalidCredentials, msgInvalidCredentials)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.opts.Events.RecordAuthEvent("login", "invalid_credentials")
		return nil, apperr.New(apperr.CodeInvalidCredentials, msgInvalidCredentials)
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.opts.Events.RecordAuthEvent("login", "success")
	s.log.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return result, nil
}

// Refresh exchanges a refresh token for a freshly minted pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.DecodeKind(refreshToken, auth.KindRefresh)
	if err != nil {
		s.opts.Events.RecordAuthEvent("refresh", outcomeOf(err))
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperr.Wrap(err, apperr.CodeTokenExpired, msgRefreshExpired)
		}
		return nil, apperr.From(err)
	}

	user, err := s.store.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.opts.Events.RecordAuthEvent("refresh", "user_not_found")
			return nil, apperr.Wrap(err, apperr.CodeUserNotFound, msgUserNotFound)
		}
		return nil, s.internal("refresh: find user", err)
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.opts.Events.RecordAuthEvent("refresh", "success")
	return result, nil
}

// CurrentUser returns the profile of a non-deleted identity.
func (s *Service) CurrentUser(ctx context.Context, id string) (*models.Profile, error) {
	if p, hit, err := s.opts.Cache.Get(ctx, id); err != nil {
		s.log.WarnContext(ctx, "profile cache read failed", slog.String("user_id", id), slog.Any("error", err))
	} else if hit {
		return p, nil
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Wrap(err, apperr.CodeUserNotFound, msgUserNotFound)
		}
		return nil, s.internal("current user: find user", err)
	}

	profile := models.ProfileOf(user, s.avatarURL(ctx, user))
	if err := s.opts.Cache.Set(ctx, profile); err != nil {
		s.log.WarnContext(ctx, "profile cache write failed", slog.String("user_id", id), slog.Any("error", err))
	}
	return &profile, nil
}

// ChangePassword replaces the password hash after verifying the current password.
// Issued tokens stay valid.
func (s *Service) ChangePassword(ctx context.Context, id string, in ChangePasswordInput) error {
	if in.NewPassword != in.ConfirmPassword {
		s.opts.Events.RecordAuthEvent("change_password", "password_mismatch")
		e := apperr.New(apperr.CodePasswordMismatch, msgPasswordMismatch)
		e.Details = []apperr.FieldError{{Field: "confirmPassword", Message: msgPasswordMismatch}}
		return e
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Wrap(err, apperr.CodeUserNotFound, msgUserNotFound)
		}
		return s.internal("change password: find user", err)
	}

	if !s.hasher.Verify(user.PasswordHash, in.CurrentPassword) {
		s.opts.Events.RecordAuthEvent("change_password", "invalid_credentials")
		return apperr.New(apperr.CodeInvalidCredentials, msgWrongPassword)
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return s.internal("change password: hash password", err)
	}
	if err := s.store.UpdatePasswordHash(ctx, id, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Wrap(err, apperr.CodeUserNotFound, msgUserNotFound)
		}
		return s.internal("change password: update hash", err)
	}

	if err := s.opts.Cache.Delete(ctx, id); err != nil {
		s.log.WarnContext(ctx, "profile cache evict failed", slog.String("user_id", id), slog.Any("error", err))
	}
	s.opts.Events.RecordAuthEvent("change_password", "success")
	s.log.InfoContext(ctx, "password changed", slog.String("user_id", id))
	return nil
}

// Logout has no server-side state to clear; the transport drops the cookies.
func (s *Service) Logout(ctx context.Context, id string) {
	s.opts.Events.RecordAuthEvent("logout", "success")
	s.log.InfoContext(ctx, "user logged out", slog.String("user_id", id))
}

func (s *Service) startSession(ctx context.Context, user models.User) (*AuthResult, error) {
	claims := auth.Claims{ID: user.ID, FullName: user.FullName, RoleName: user.RoleName}

	access, err := s.tokens.Mint(claims, auth.KindAccess, s.opts.AccessTTL)
	if err != nil {
		return nil, s.internal("mint access token", err)
	}
	refresh, err := s.tokens.Mint(claims, auth.KindRefresh, s.opts.RefreshTTL)
	if err != nil {
		return nil, s.internal("mint refresh token", err)
	}

	return &AuthResult{
		User:   models.Summary(user, s.avatarURL(ctx, user)),
		Tokens: TokenPair{Access: access, Refresh: refresh},
	}, nil
}

func (s *Service) avatarURL(ctx context.Context, user models.User) string {
	if s.opts.Avatars == nil || user.AvatarKey == "" {
		return ""
	}
	u, err := s.opts.Avatars.URL(ctx, user.AvatarKey)
	if err != nil {
		s.log.WarnContext(ctx, "resolve avatar failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return ""
	}
	return u
}

func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *Service) internal(op string, err error) error {
	s.log.Error(op, slog.Any("error", err))
	return apperr.Internal(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "expired"
	case errors.Is(err, auth.ErrInvalidTokenType):
		return "invalid_type"
	case errors.Is(err, auth.ErrTokenMissing):
		return "missing"
	default:
		return "malformed"
	}
}

type noopEvents struct{}

func (noopEvents) RecordAuthEvent(string, string) {}
