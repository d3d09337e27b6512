package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"
	"time"

	"podcats/internal/library"
	"podcats/internal/models"
)

// ChannelSource assembles a fresh channel for every request.
type ChannelSource interface {
	Assemble() (models.Channel, error)
}

// DocumentRenderer renders channels into the served documents.
type DocumentRenderer interface {
	RenderRSS(w io.Writer, channel models.Channel) error
	RenderHTML(w io.Writer, channel models.Channel) error
}

type serverHandler struct {
	source   ChannelSource
	renderer DocumentRenderer
	root     string
	logger   *log.Logger
}

// New creates the HTTP handler that exposes the feed, the HTML index and the
// files below root.
func New(source ChannelSource, renderer DocumentRenderer, root string, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}

	cleanRoot := filepath.Clean(root)
	absRoot, err := filepath.Abs(cleanRoot)
	if err != nil {
		logger.Printf("warning: unable to resolve absolute root %q: %v", root, err)
		absRoot = cleanRoot
	}

	h := &serverHandler{
		source:   source,
		renderer: renderer,
		root:     absRoot,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handleIndex)
	mux.HandleFunc("/feed.xml", h.handleFeed)
	mux.HandleFunc("/web", h.handleWeb)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc(library.StaticPrefix+"/", h.handleStatic)

	return logRequests(mux, logger)
}

func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (h *serverHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.handleFeed(w, r)
}

func (h *serverHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *serverHandler) handleFeed(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, r, "application/rss+xml; charset=utf-8", h.renderer.RenderRSS)
}

func (h *serverHandler) handleWeb(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, r, "text/html; charset=utf-8", h.renderer.RenderHTML)
}

func (h *serverHandler) serveDocument(w http.ResponseWriter, r *http.Request, contentType string, render func(io.Writer, models.Channel) error) {
	if !allowRead(w, r) {
		return
	}

	channel, err := h.source.Assemble()
	if err != nil {
		h.logger.Printf("failed to assemble channel: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, channel); err != nil {
		h.logger.Printf("failed to render %s: %v", r.URL.Path, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Printf("failed to write %s: %v", r.URL.Path, err)
	}
}

func (h *serverHandler) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, library.StaticPrefix+"/")
	rel = pathpkg.Clean("/" + rel)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	target := filepath.Join(h.root, filepath.FromSlash(rel))
	resolved, err := filepath.Abs(target)
	if err != nil {
		h.logger.Printf("failed to resolve static path %s: %v", target, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if !pathWithinRoot(h.root, resolved) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.logger.Printf("failed to stat static file %s: %v", resolved, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if info.IsDir() {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	http.ServeFile(w, r, resolved)
}

type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func logRequests(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		duration := time.Since(start)
		logger.Printf("%s %s -> %d (%dB) in %s", r.Method, r.URL.Path, sw.status, sw.size, duration)
	})
}

func pathWithinRoot(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}
