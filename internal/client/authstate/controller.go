// Package authstate tracks whether the current browser session is signed in and
// derives the navigation and modal state from it.
package authstate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nhadat/listing-auth/internal/client/authapi"
	"github.com/nhadat/listing-auth/internal/models"
)

// StatusChecker fetches the signed-in profile.
type StatusChecker interface {
	Me(ctx context.Context) (*models.Profile, error)
}

// SessionClient is the part of the auth API the controller drives.
type SessionClient interface {
	StatusChecker
	Logout(ctx context.Context) error
	// ClearSession forgets the session credentials held locally.
	ClearSession()
}

// Controller keeps the last applied navigation view.
type Controller struct {
	client SessionClient
	log    *slog.Logger

	mu   sync.Mutex
	view NavView
}

// NewController starts anonymous until the first check.
func NewController(client SessionClient, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		client: client,
		log:    logger.With(slog.String("component", "authstate")),
		view:   RenderNav(nil),
	}
}

// CheckStatus asks the service who is signed in. Any failure means anonymous.
func (c *Controller) CheckStatus(ctx context.Context) *models.Profile {
	p, err := c.client.Me(ctx)
	if err != nil {
		if !authapi.IsUnauthorized(err) {
			c.log.DebugContext(ctx, "auth status check failed", slog.Any("error", err))
		}
		return nil
	}
	return p
}

// OnPageLoad re-checks the session and applies the result.
func (c *Controller) OnPageLoad(ctx context.Context) NavView {
	return c.apply(RenderNav(IdentityFromProfile(c.CheckStatus(ctx))))
}

// OnPageShow re-checks only when the page was restored from the back-forward cache.
func (c *Controller) OnPageShow(ctx context.Context, persisted bool) NavView {
	if !persisted {
		return c.View()
	}
	return c.OnPageLoad(ctx)
}

// OnAuthResult renders from a login or register result without another request.
func (c *Controller) OnAuthResult(p *authapi.AuthPayload) NavView {
	if p == nil {
		return c.apply(RenderNav(nil))
	}
	return c.apply(RenderNav(IdentityFromSummary(p.User)))
}

// OnLogout clears the view first, then tells the server. The local credentials
// are dropped after the server call, which needs them, whether or not it succeeds.
// A server failure is logged and does not restore the signed-in view.
func (c *Controller) OnLogout(ctx context.Context) NavView {
	view := c.apply(RenderNav(nil))
	defer c.client.ClearSession()
	if err := c.client.Logout(ctx); err != nil {
		c.log.WarnContext(ctx, "server logout failed", slog.Any("error", err))
	}
	return view
}

// View returns the last applied view.
func (c *Controller) View() NavView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) apply(v NavView) NavView {
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
	return v
}
