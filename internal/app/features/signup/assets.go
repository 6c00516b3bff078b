package signup

import (
	"embed"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/signup/templates"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Views compiles the signup pages.
func Views(logger *zap.Logger) (*templates.Engine, error) {
	return templates.New(logger,
		templates.Set{Name: "shared", FS: templateFS, Patterns: []string{"templates/shared/*.gohtml"}},
		templates.Set{Name: "signup", FS: templateFS, Patterns: []string{"templates/pages/*.gohtml"}},
	)
}

// Static serves the stylesheet and script. Mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
