package authstate

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/nhadat/listing-auth/internal/models"
)

// NavIdentity is the part of an identity the navigation needs.
type NavIdentity struct {
	FullName string
	Email    string
}

// IdentityFromProfile adapts a profile for rendering. A nil profile yields nil.
func IdentityFromProfile(p *models.Profile) *NavIdentity {
	if p == nil {
		return nil
	}
	return &NavIdentity{FullName: p.FullName, Email: p.Email}
}

// IdentityFromSummary adapts a login or register result for rendering.
func IdentityFromSummary(s models.UserSummary) *NavIdentity {
	return &NavIdentity{FullName: s.FullName, Email: s.Email}
}

// NavLink is one entry of the signed-in menu.
type NavLink struct {
	Href   string
	Label  string
	Action string
}

// NavButton opens the auth modal in the given mode.
type NavButton struct {
	Label string
	Mode  ModalMode
}

// NavView is the rendered state of the navigation auth area.
type NavView struct {
	Authenticated bool
	DisplayName   string
	Links         []NavLink
	Buttons       []NavButton
}

// RenderNav builds the navigation for identity, or the anonymous navigation when
// identity is nil. The same input always yields an equal view.
func RenderNav(identity *NavIdentity) NavView {
	if identity == nil {
		return NavView{
			Buttons: []NavButton{
				{Label: "Đăng nhập", Mode: ModeLogin},
				{Label: "Đăng ký", Mode: ModeRegister},
			},
		}
	}
	return NavView{
		Authenticated: true,
		DisplayName:   displayName(identity),
		Links: []NavLink{
			{Href: "/dashboard", Label: "Dashboard"},
			{Href: "/profile", Label: "Hồ sơ cá nhân", Action: "profile"},
			{Href: "/my-listings", Label: "Tin đăng của tôi"},
			{Href: "/logout", Label: "Đăng xuất", Action: "logout"},
		},
	}
}

func displayName(id *NavIdentity) string {
	if name := strings.TrimSpace(id.FullName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(id.Email, "@")
	return local
}

var navTemplate = template.Must(template.New("nav").Parse(`<div class="nav-auth">
{{- if .Authenticated}}
<div class="user-dropdown">
<button class="user-btn" type="button"><span>{{.DisplayName}}</span></button>
<div class="dropdown-menu">
{{- range .Links}}
<a href="{{.Href}}" class="dropdown-item"{{if .Action}} data-action="{{.Action}}"{{end}}><span>{{.Label}}</span></a>
{{- end}}
</div>
</div>
{{- else}}
{{- range .Buttons}}
<button class="btn-{{.Mode}}" type="button" data-modal="{{.Mode}}">{{.Label}}</button>
{{- end}}
{{- end}}
</div>`))

// HTML renders the view as an escaped HTML fragment.
func (v NavView) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := navTemplate.Execute(&buf, v); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
