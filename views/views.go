// Package views holds the embedded HTML templates for every page.
package views

import (
	"embed"
	"html/template"
	"strings"

	"github.com/scrynk/scrynk/models"
)

//go:embed templates/*.tmpl
var files embed.FS

// Load parses all page templates. Each page is addressed by its file name,
// e.g. "extract.tmpl".
func Load() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.tmpl")
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"upper": strings.ToUpper,
	"toastClass": func(l models.ToastLevel) string {
		return "toast toast-" + string(l)
	},
}
