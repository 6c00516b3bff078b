// templates/funcs.go
package templates

import (
	"html/template"
	"strings"
)

// Funcs returns helpers available to all templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
	}
}
