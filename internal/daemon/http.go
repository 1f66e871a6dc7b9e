package daemon

import (
	"encoding/json"
	"net/http"

	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// Handler returns the daemon's HTTP routes: /healthz, /status, /metrics, and
// the generated site at /.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", d.handleHealth)
	mux.HandleFunc("GET /status", d.handleStatus)
	mux.Handle("GET /metrics", metrics.HTTPHandler(d.registry))
	mux.Handle("/", d.siteHandler())
	return mux
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := d.status.snapshot()
	code := http.StatusOK
	state := "ok"
	if !st.HasGoodBuild {
		code = http.StatusServiceUnavailable
		state = "no successful build"
	}
	writeJSON(w, code, map[string]string{"status": state})
}

func (d *Daemon) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, d.status.snapshot())
}

func (d *Daemon) siteHandler() http.Handler {
	files := http.FileServer(http.Dir(d.cfg.OutputDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
