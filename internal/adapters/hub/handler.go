package hub

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/bnema/browserfarm-cli/internal/domain"
)

func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{id}", h.handleOpen)
	return mux
}

func (h *Hub) handleOpen(w http.ResponseWriter, r *http.Request) {
	id := domain.CorrelationID(strings.TrimSpace(r.PathValue("id")))
	if id == "" {
		http.Error(w, "correlation id required", http.StatusBadRequest)
		return
	}

	target, ok := redirectTarget(r.URL.Query().Get("url"))
	if !ok {
		http.Error(w, "valid url query parameter required", http.StatusBadRequest)
		return
	}

	if h.notify(id) {
		h.logger.Info("browser opened", "correlation_id", id)
	}

	http.Redirect(w, r, target, http.StatusFound)
}

func redirectTarget(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	if parsed.Host == "" {
		return "", false
	}

	return parsed.String(), true
}
