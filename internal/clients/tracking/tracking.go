// Package tracking renders the embeddable form-capture snippet for a client.
package tracking

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed snippet.js.tmpl
var snippetSource string

var snippet = template.Must(template.New("snippet").Parse(snippetSource))

// Params are the values substituted into the snippet.
type Params struct {
	ClientName string
	PublicID   string
	// APIBaseURL is the public origin of this API, without a trailing slash.
	APIBaseURL string
}

// Render returns the snippet for p.
func Render(p Params) (string, error) {
	p.APIBaseURL = strings.TrimRight(p.APIBaseURL, "/")

	var b strings.Builder
	if err := snippet.Execute(&b, p); err != nil {
		return "", err
	}
	return b.String(), nil
}
