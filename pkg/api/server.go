// Package api serves the kintree REST API.
//
// Routes live under /api/v1 and mirror the service operations:
//
//	GET    /api/v1/members                 ?search=&page=&limit=
//	POST   /api/v1/members
//	GET    /api/v1/members/{id}
//	PATCH  /api/v1/members/{id}
//	DELETE /api/v1/members/{id}
//	GET    /api/v1/members/{id}/family
//	GET    /api/v1/relations               ?memberId=
//	POST   /api/v1/relations
//	DELETE /api/v1/relations/{id}
//	GET    /api/v1/relations/masters
//	POST   /api/v1/relations/masters
//	PATCH  /api/v1/relations/masters/{id}
//	DELETE /api/v1/relations/masters/{id}
//	GET    /api/v1/tree
//	GET    /api/v1/tree/layout             ?direction=&format=&placer=&detailed=
//	GET    /api/v1/dashboard
//
// Errors are JSON objects {"code": ..., "message": ...} with the status from
// [errors.HTTPStatus].
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/service"
)

// Options configures a [Server].
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// CORSOrigin is the single origin allowed cross-origin access. Empty
	// disables CORS.
	CORSOrigin string
	// Layout holds the defaults for /tree/layout. Query parameters override
	// direction, placer and format.
	Layout pipeline.Options
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server is the HTTP front end of a [service.Service].
type Server struct {
	svc    *service.Service
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New builds the router. A nil logger uses log.Default().
func New(svc *service.Service, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{svc: svc, opts: opts, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(recordMetrics)
	if s.opts.CORSOrigin != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{s.opts.CORSOrigin},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", HeaderRequestID},
			ExposedHeaders:   []string{HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           600,
		}))
	}

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.listMembers)
			r.Post("/", s.createMember)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getMember)
				r.Patch("/", s.updateMember)
				r.Put("/", s.updateMember)
				r.Delete("/", s.deleteMember)
				r.Get("/family", s.getFamily)
			})
		})
		r.Route("/relations", func(r chi.Router) {
			r.Get("/", s.listEdges)
			r.Post("/", s.createEdge)
			r.Delete("/{id}", s.deleteEdge)
			r.Get("/masters", s.listMasters)
			r.Post("/masters", s.createMaster)
			r.Patch("/masters/{id}", s.updateMaster)
			r.Delete("/masters/{id}", s.deleteMaster)
		})
		r.Get("/tree", s.getTree)
		r.Get("/tree/layout", s.getLayout)
		r.Get("/dashboard", s.getDashboard)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
