// Package daemon hosts the long-lived background process that owns the
// in-memory registry.Index and serves ingest/search/scope/status requests
// over a Unix-domain-socket HTTP server, per spec §4.8 and §5.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alpaylan/ruggle/internal/catalog"
	"github.com/alpaylan/ruggle/internal/config"
	"github.com/alpaylan/ruggle/internal/ingest"
	"github.com/alpaylan/ruggle/internal/registry"
	"github.com/alpaylan/ruggle/internal/rpc"
	"github.com/alpaylan/ruggle/internal/search"
	"golang.org/x/sync/singleflight"
)

// Server wraps the one Index the service layer owns (spec §9) plus the
// sqlite catalog of what has already been ingested, the on-disk JSON
// cache, and the inactivity-expiration timer spec §5 requires of a daemon
// that should not outlive its usefulness.
type Server struct {
	idx        *registry.Index
	cat        *catalog.Catalog
	cache      *ingest.Cache
	cfg        *config.Config
	socketPath string
	httpServer *http.Server
	listener   net.Listener

	mu         sync.Mutex
	expTimer   *time.Timer
	expiration time.Duration

	ingestGroup singleflight.Group
}

func NewServer(cfg *config.Config, idx *registry.Index, cat *catalog.Catalog, cache *ingest.Cache, socketPath string) *Server {
	expSec := cfg.Daemon.ExpirationSeconds
	if expSec <= 0 {
		expSec = 600
	}

	return &Server{
		idx:        idx,
		cat:        cat,
		cache:      cache,
		cfg:        cfg,
		socketPath: socketPath,
		expiration: time.Duration(expSec) * time.Second,
	}
}

func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("setting socket permissions: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ingest", s.withExpReset(s.handleIngest))
	mux.HandleFunc("POST /search", s.withExpReset(s.handleSearch))
	mux.HandleFunc("GET /scopes", s.withExpReset(s.handleScopes))
	mux.HandleFunc("GET /status", s.withExpReset(s.handleStatus))
	mux.HandleFunc("POST /shutdown", s.handleShutdown)

	s.httpServer = &http.Server{Handler: mux}

	s.mu.Lock()
	s.expTimer = time.AfterFunc(s.expiration, s.expire)
	s.mu.Unlock()

	log.Printf("daemon: listening on %s (expires after %s of inactivity)", s.socketPath, s.expiration)

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("daemon: shutdown error: %v", err)
			errs = append(errs, err)
		}
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			log.Printf("daemon: listener close error: %v", err)
			errs = append(errs, err)
		}
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		log.Printf("daemon: socket remove error: %v", err)
		errs = append(errs, err)
	}
	if err := s.cat.Close(); err != nil {
		log.Printf("daemon: catalog close error: %v", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) expire() {
	log.Printf("daemon: expiring due to inactivity")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)
	os.Exit(0)
}

func (s *Server) resetExpiration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expTimer != nil {
		s.expTimer.Stop()
		s.expTimer.Reset(s.expiration)
	}
}

func (s *Server) withExpReset(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.resetExpiration()
		handler(w, r)
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req rpc.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	send := func(line rpc.ProgressLine) bool {
		if line.Message != "" {
			log.Printf("daemon: %s", line.Message)
		}
		if err := enc.Encode(line); err != nil {
			log.Printf("daemon: client disconnected: %v", err)
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	for _, spec := range req.Crates {
		progress := func(msg string) {
			send(rpc.ProgressLine{Type: "progress", Message: msg})
		}
		result := s.ingestCrate(spec, progress)
		if !send(rpc.ProgressLine{Type: "result", Result: &result}) {
			return
		}
	}
}

// ingestCrate dedups concurrent ingests of the same crate@version via
// singleflight: two overlapping requests for the same crate should fetch
// and parse it once.
func (s *Server) ingestCrate(spec rpc.CrateSpec, progress func(string)) rpc.CrateResult {
	version := spec.Version
	key := spec.Name + "@" + version

	v, _, _ := s.ingestGroup.Do(key, func() (interface{}, error) {
		return s.ingestCrateWork(spec.Name, version, progress), nil
	})
	return v.(rpc.CrateResult)
}

func (s *Server) ingestCrateWork(name, version string, progress func(string)) rpc.CrateResult {
	result := rpc.CrateResult{Name: name, Version: version}

	if version != "" {
		if entry, err := s.cat.Get(name, version); err == nil && entry != nil {
			result.Items = entry.ItemCount
			return result
		}
	}

	progress(fmt.Sprintf("fetching docs for %s@%s", name, orLatest(version)))
	var data []byte
	var err error
	if version != "" && s.cache.Has(name, version) {
		data, err = s.cache.Load(name, version)
	} else {
		data, err = ingest.FetchJSON(name, version)
	}
	if err != nil {
		result.Error = fmt.Sprintf("fetching docs: %v", err)
		return result
	}

	realVersion, err := ingest.ResolvedVersion(data)
	if err != nil {
		realVersion = version
	}
	if realVersion == "" {
		result.Error = "could not resolve crate version"
		return result
	}

	if realVersion != version {
		if entry, err := s.cat.Get(name, realVersion); err == nil && entry != nil {
			result.Version = realVersion
			result.Items = entry.ItemCount
			return result
		}
	}

	if err := s.cache.Save(name, realVersion, data); err != nil {
		log.Printf("daemon: failed to cache docs for %s@%s: %v", name, realVersion, err)
	}

	progress(fmt.Sprintf("indexing %s@%s", name, realVersion))
	items, err := s.idx.Ingest(name, realVersion, data)
	if err != nil {
		result.Error = fmt.Sprintf("indexing docs: %v", err)
		return result
	}

	if err := s.cat.Upsert(name, realVersion, items); err != nil {
		log.Printf("daemon: failed to record catalog entry for %s@%s: %v", name, realVersion, err)
	}

	result.Version = realVersion
	result.Items = items
	progress(fmt.Sprintf("finished indexing %s@%s (%d items)", name, realVersion, items))
	return result
}

func orLatest(version string) string {
	if version == "" {
		return "latest"
	}
	return version
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req rpc.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = s.cfg.Search.DefaultThreshold
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.Search.DefaultLimit
	}

	hits, err := search.Search(s.idx, req.Query, req.Scope, limit, threshold)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := make([]rpc.SearchHit, len(hits))
	for i, h := range hits {
		results[i] = rpc.SearchHit{
			ID:        h.ID,
			Name:      h.Name,
			Path:      h.Path,
			Link:      h.Link,
			Docs:      h.Docs,
			Signature: h.Signature,
			Distance:  h.Distance,
		}
	}

	writeJSON(w, http.StatusOK, rpc.SearchResponse{Results: results})
}

func (s *Server) handleScopes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rpc.ScopesResponse{Scopes: s.idx.Directory()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	entries, err := s.cat.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := make([]rpc.CrateStatus, len(entries))
	for i, e := range entries {
		status[i] = rpc.CrateStatus{
			Name:       e.Name,
			Version:    e.Version,
			Items:      e.ItemCount,
			IngestedAt: e.IngestedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, rpc.StatusResponse{Crates: status})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "shutting down"})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
		os.Exit(0)
	}()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
