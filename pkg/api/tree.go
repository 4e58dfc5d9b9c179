package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/kintree/pkg/buildinfo"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "kintree",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Store().Stats(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	td, err := s.svc.TreeData(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, td)
}

// getLayout answers with the positioned tree as JSON, or with the rendered
// artifact when format is svg or dot.
func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	opts := s.opts.Layout
	q := r.URL.Query()
	if v := q.Get("direction"); v != "" {
		opts.Layout.Direction = v
	}
	if v := q.Get("placer"); v != "" {
		opts.Placer = strings.ToLower(v)
	}
	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = pipeline.FormatJSON
	}
	opts.Formats = []string{format}
	if v := q.Get("detailed"); v != "" {
		detailed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, errors.New(errors.ErrCodeInvalidRequest, "detailed must be a boolean, got %q", v))
			return
		}
		opts.Detailed = detailed
	}

	res, err := s.svc.Layout(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Tree-Hash", res.TreeHash)
	if format == pipeline.FormatJSON {
		writeJSON(w, http.StatusOK, res.Layout)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
