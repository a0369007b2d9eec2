package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/franckalain/ecoscan/internal/database"
	"github.com/franckalain/ecoscan/internal/ml"
	"github.com/franckalain/ecoscan/internal/pipeline"
	"github.com/franckalain/ecoscan/internal/presenter"
	"github.com/franckalain/ecoscan/internal/session"
	"github.com/franckalain/ecoscan/internal/upload"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, this should be more restrictive
	},
}

const shutdownTimeout = 10 * time.Second

type Server struct {
	db        database.DB
	model     ml.Model
	backend   pipeline.Backend
	sessions  *session.Service
	presenter *presenter.Presenter
	maxBytes  int64
	clients   sync.Map // id -> *client
	debug     bool
	log       *logrus.Entry
}

// Option configures a Server
type Option func(*Server)

// WithBackend makes websocket sessions analyse through b instead of the local model
func WithBackend(b pipeline.Backend) Option {
	return func(s *Server) { s.backend = b }
}

// WithSessions replaces the account service
func WithSessions(svc *session.Service) Option {
	return func(s *Server) { s.sessions = svc }
}

// WithMaxUploadBytes sets the largest accepted image
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func New(db database.DB, model ml.Model, debug bool, opts ...Option) *Server {
	s := &Server{
		db:        db,
		model:     model,
		backend:   pipeline.ModelBackend(model),
		presenter: presenter.Default(),
		maxBytes:  upload.DefaultMaxBytes,
		debug:     debug,
		log:       logrus.WithField("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = session.NewService(db)
	}
	if debug {
		s.log.Debug("Debug mode enabled, internal consistency errors will panic")
	}
	return s
}

// Handler returns the HTTP routes. Static files are served from staticDir when set.
func (s *Server) Handler(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/analyze-image", s.handleAnalyzeImage)

	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return corsMiddleware(mux)
}

// Start serves until ctx is done or the process receives SIGINT/SIGTERM
func (s *Server) Start(ctx context.Context, port, staticDir string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(staticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Infof("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeClients()
		return err
	})
	return g.Wait()
}

// closeClients closes hijacked websocket connections, which Shutdown does not track
func (s *Server) closeClients() {
	s.clients.Range(func(_, value any) bool {
		value.(*client).conn.Close()
		return true
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Warn("Error writing response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
