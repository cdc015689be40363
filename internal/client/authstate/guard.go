package authstate

import (
	"context"
	"fmt"

	"github.com/nhadat/listing-auth/internal/models"
)

// Action is what a guarded interaction does once the user is signed in: either
// run Callback or navigate to URL.
type Action struct {
	Callback func(*models.Profile)
	URL      string
}

// Prompter shows notices and the auth modal.
type Prompter interface {
	Notify(message string)
	OpenModal(mode ModalMode)
}

// Navigator moves the browser to another page.
type Navigator interface {
	Navigate(url string)
}

// Guard gates actions behind a signed-in session.
type Guard struct {
	checker  StatusChecker
	prompter Prompter
	nav      Navigator
}

func NewGuard(checker StatusChecker, prompter Prompter, nav Navigator) *Guard {
	return &Guard{checker: checker, prompter: prompter, nav: nav}
}

// AuthRequiredMessage is the notice shown when label needs a signed-in user.
func AuthRequiredMessage(label string) string {
	if label == "" {
		label = "thực hiện hành động này"
	}
	return fmt.Sprintf("Bạn cần đăng nhập để %s", label)
}

// RequireAuth runs action when the session is signed in and reports whether it did.
// Otherwise, including when the status check fails, it prompts for login.
func (g *Guard) RequireAuth(ctx context.Context, action Action, label string) bool {
	profile, err := g.checker.Me(ctx)
	if err != nil || profile == nil {
		g.prompter.Notify(AuthRequiredMessage(label))
		g.prompter.OpenModal(ModeLogin)
		return false
	}

	switch {
	case action.Callback != nil:
		action.Callback(profile)
	case action.URL != "" && g.nav != nil:
		g.nav.Navigate(action.URL)
	}
	return true
}
