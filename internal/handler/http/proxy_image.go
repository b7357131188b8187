package http

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// proxyBodyLimit держит ретранслируемые картинки в разумных пределах.
const proxyBodyLimit = 15 << 20

// ProxyImageHandler ретранслирует картинки сайта-источника, чтобы фронтенд
// не упирался в его CORS. Проксируются только http(s) URL хоста источника.
type ProxyImageHandler struct {
	client      *http.Client
	allowedHost string
}

func NewProxyImageHandler(baseURL string) (*ProxyImageHandler, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &ProxyImageHandler{
		client:      &http.Client{Timeout: 15 * time.Second},
		allowedHost: u.Host,
	}, nil
}

func (h *ProxyImageHandler) RegisterRoutes(router chi.Router) {
	router.Get("/proxy-image", h.handleProxyImage)
}

func (h *ProxyImageHandler) handleProxyImage(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		respondWithError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	target, err := url.Parse(rawURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		respondWithError(w, http.StatusBadRequest, "Invalid url parameter")
		return
	}
	if target.Host != h.allowedHost {
		respondWithError(w, http.StatusForbidden, "Host is not allowed")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid url parameter")
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", target.String()).Msg("Failed to fetch proxied image")
		respondWithError(w, http.StatusBadGateway, "Failed to fetch image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respondWithError(w, http.StatusBadGateway, "Upstream returned an error")
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondWithError(w, http.StatusBadGateway, "Upstream did not return an image")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, io.LimitReader(resp.Body, proxyBodyLimit)); err != nil {
		log.Warn().Err(err).Msg("Failed to stream proxied image")
	}
}
