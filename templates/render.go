// templates/render.go
package templates

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"
)

// Render writes the named page with the given status. Template failures are
// logged and answered with a bare 500.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := e.Execute(&buf, name, data); err != nil {
		e.logger.Error("template render failed", zap.String("name", name), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
