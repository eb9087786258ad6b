package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/webbuild/internal/buildconfig"
	"github.com/wolfeidau/webbuild/internal/bundler"
)

// DefaultEntry is the entry served at "/" when it exists.
const DefaultEntry = "main"

// Builder is the part of the bundler the dev server drives.
type Builder interface {
	OutDir() string
	Watch(ctx context.Context, onBuild func(*bundler.Result, error)) (func(), error)
}

// Server rebuilds on change and serves the output dir on server.port.
type Server struct {
	config  buildconfig.BuildConfig
	builder Builder
	logger  zerolog.Logger

	mu      sync.RWMutex
	last    *bundler.Result
	lastErr error

	ready     chan struct{}
	readyOnce sync.Once
	addr      string
}

func New(config buildconfig.BuildConfig, builder Builder, logger zerolog.Logger) *Server {
	return &Server{
		config:  config,
		builder: builder,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
}

// Ready is closed once the server listens and the first build finished.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// ListenAddr returns the bound address, valid after Ready is closed.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func (s *Server) onBuild(res *bundler.Result, err error) {
	s.mu.Lock()
	if err != nil {
		s.lastErr = err
	} else {
		s.last, s.lastErr = res, nil
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("Rebuild failed")
	} else {
		s.logger.Info().Str("build_id", res.BuildID).Msg("Rebuilt")
	}
}

// Handler serves the output dir with CORS, gzip and request logging.
func (s *Server) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.builder.OutDir()))

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		s.mu.RLock()
		last, lastErr := s.last, s.lastErr
		s.mu.RUnlock()

		if lastErr != nil {
			http.Error(w, fmt.Sprintf("build failed: %v", lastErr), http.StatusServiceUnavailable)
			return
		}
		if last == nil {
			http.Error(w, "initial build in progress", http.StatusServiceUnavailable)
			return
		}

		if r.URL.Path == "/" {
			if page, ok := indexPage(last.Manifest); ok {
				s.servePage(w, r, page)
				return
			}
		}

		files.ServeHTTP(w, r)
	})

	return RequestLogger(s.logger)(withCORS(s.config.Server.CORSOrigins, gzhttp.GzipHandler(h)))
}

// servePage writes a built page without the index.html redirect the file
// server applies.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request, page string) {
	f, err := os.Open(filepath.Join(s.builder.OutDir(), filepath.FromSlash(page)))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, path.Base(page), info.ModTime(), f)
}

// indexPage picks the HTML entry served at "/": the default entry, otherwise
// the first HTML entry by name.
func indexPage(m *bundler.Manifest) (string, bool) {
	if e, ok := m.Entries[DefaultEntry]; ok && strings.HasSuffix(e.File, ".html") {
		return e.File, true
	}

	names := make([]string, 0, len(m.Entries))
	for name := range m.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if f := m.Entries[name].File; strings.HasSuffix(f, ".html") {
			return f, true
		}
	}
	return "", false
}

// Run watches sources and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	first := make(chan struct{})
	var firstOnce sync.Once

	stop, err := s.builder.Watch(ctx, func(res *bundler.Result, err error) {
		s.onBuild(res, err)
		firstOnce.Do(func() { close(first) })
	})
	if err != nil {
		return err
	}
	defer stop()

	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	go func() {
		select {
		case <-first:
			s.readyOnce.Do(func() { close(s.ready) })
			s.logger.Info().Str("url", "http://"+s.ListenAddr()+"/").Msg("Dev server ready")
		case <-ctx.Done():
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dev server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown dev server: %w", err)
	}

	s.logger.Info().Msg("Dev server stopped")
	return nil
}
