package httpserver

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"stayhub/internal/adapters/observability"
)

// TrendsProxy forwards market-trends requests for browser clients. The
// wildcard tail and query string are replayed against the configured base,
// and the upstream status code and body come back untouched. One attempt,
// no retries; when the upstream is unreachable the caller gets a 502.
type TrendsProxy struct {
	base string
	key  string
	hc   *http.Client
}

func NewTrendsProxy(base, key string) *TrendsProxy {
	return &TrendsProxy{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *TrendsProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u := p.base + "/" + chi.URLParam(r, "*")
	if r.URL.RawQuery != "" {
		u += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u, nil)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "unusable trends path")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if p.key != "" {
		req.Header.Set("X-API-Key", p.key)
	}

	start := time.Now()
	resp, err := p.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("trends", "proxy", 0, time.Since(start))
		log.Warn().Err(err).Str("url", u).Msg("trends proxy upstream unreachable")
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", "market trends service unreachable")
		return
	}
	defer resp.Body.Close()
	observability.ObserveExternal("trends", "proxy", resp.StatusCode, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Error().Err(err).Msg("trends proxy body relay failed")
	}
}
