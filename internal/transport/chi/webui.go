package chi

import (
	_ "embed"
	"net/http"
)

//go:embed webui/index.html
var webUIPage []byte

// WebUI serves the embedded test console. It is mounted only when the web UI is enabled.
func WebUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(webUIPage)
}
