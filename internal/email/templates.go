package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// leadAlertTemplate is base.html with the lead alert body as its "content" block.
var leadAlertTemplate = template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/lead_alert.html"))

// layout fields shared by every email.
type layout struct {
	Title      string
	Heading    string
	Subheading string
}

type leadAlertEmailData struct {
	layout
	ClientName  string
	FormID      string
	FormType    string
	LeadScore   int
	Name        string
	Email       string
	Phone       string
	Source      string
	SubmittedAt string
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
