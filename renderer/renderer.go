package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"breadcrumb": Breadcrumb,
	"dash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "—"
		}
		return s
	},
}

// RenderHoldings renders the holdings page to a markdown string.
func RenderHoldings(p *HoldingsPage) string {
	return renderTemplate("holdings", "holdings.md", map[string]string{"summary": "summary.md"}, p)
}

// RenderPositions renders the positions page to a markdown string.
func RenderPositions(p *PositionsPage) string {
	return renderTemplate("positions", "positions.md", map[string]string{"summary": "summary.md"}, p)
}

// RenderAccounts renders the account selection page.
func RenderAccounts(p *AccountsPage) string {
	return renderTemplate("accounts", "accounts.md", nil, p)
}

func RenderProfile(p *ProfilePage) string {
	return renderTemplate("profile", "profile.md", nil, p)
}

func RenderMembers(p *MembersPage) string {
	return renderTemplate("members", "members.md", nil, p)
}

func RenderCredentials(p *CredentialsPage) string {
	return renderTemplate("credentials", "credentials.md", nil, p)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// ToHTML converts a rendered page to a standalone HTML fragment.
func ToHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("cannot convert page to HTML: %w", err)
	}
	return buf.String(), nil
}
