package service

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	guestModels "guestlist/internal/guest/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var menuLabels = map[string]string{
	"sin_condicion": "Sin condición",
	"vegetariano":   "Vegetariano",
	"vegano":        "Vegano",
	"celiaco":       "Celíaco",
}

var listTemplate = template.Must(template.New("listado.html").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
	"menuLabel": func(menu string) string {
		if label, ok := menuLabels[menu]; ok {
			return label
		}
		return "-"
	},
}).ParseFS(templateFS, "templates/listado.html"))

// TemplateData is the data rendered into listado.html.
type TemplateData struct {
	Title       string
	GeneratedAt time.Time
	Total       int
	Guests      []*guestModels.Guest
}

func renderHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := listTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
