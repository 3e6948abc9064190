package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"
)

// Server owns the HTTP surface. The database pool and blob store are
// shared by reference; the process opens and closes them.
type Server struct {
	httpServer  *http.Server
	cfg         Config
	db          *sql.DB
	store       recordStore
	blobs       blobStorage
	gateLimiter *rateLimiter
}

// New assembles the route table and middleware chain around the given
// dependencies.
func New(cfg Config, db *sql.DB, blobs *BlobStore) *Server {
	s := &Server{
		cfg:   cfg,
		db:    db,
		store: newFileStore(db),
		blobs: blobs,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/upload", s.uploadHandler())

	// The gate re-runs bcrypt on every submission; keep brute force slow.
	s.gateLimiter = newRateLimiter(30, time.Minute)
	mux.Handle("/file/", s.gateLimiter.middleware(s.downloadHandler()))

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// Wrap middleware: requestID -> logging -> security headers -> mux
	var handler http.Handler = mux
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// handleIndex serves the upload form. The "/" pattern matches everything,
// so unknown paths 404 here.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	renderIndexPage(w, "")
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.gateLimiter != nil {
		s.gateLimiter.stop()
	}
	return s.httpServer.Shutdown(ctx)
}
