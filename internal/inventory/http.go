package inventory

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"inventory/pkg/kit"
)

const readyTimeout = 1 * time.Second

type Server struct {
	Store    Store
	Snapshot Snapshotter
	Metrics  *Metrics
	Log      *zap.Logger

	// Autosave flushes the snapshot after every successful mutation.
	Autosave bool

	saveMu sync.Mutex
	dirty  atomic.Bool
}

type addResp struct {
	ID int `json:"id"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.Snapshot == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Snapshot.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.List())
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	p, ok := s.Store.Find(name)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"name": NormalizeName(name)})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var in AddInput
	if err := kit.DecodeJSON(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if !IsKnownCategory(in.Category) {
		writeUnknownCategory(w, r, in.Category)
		return
	}

	id, err := s.Store.Add(in)
	s.Metrics.Observe("add", resultOf(err), s.Store)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.Log.Info("product added", zap.Int("id", id), zap.String("name", NormalizeName(in.Name)), subject(r))
	s.mutated(r.Context())
	kit.WriteJSON(w, http.StatusCreated, addResp{ID: id})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var patch Patch
	if err := kit.DecodeJSON(w, r, &patch); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if patch.Category != nil && !IsKnownCategory(*patch.Category) {
		writeUnknownCategory(w, r, *patch.Category)
		return
	}

	err := s.Store.Update(name, patch)
	s.Metrics.Observe("update", resultOf(err), s.Store)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.Log.Info("product updated", zap.String("name", NormalizeName(name)), subject(r))
	s.mutated(r.Context())

	p, _ := s.Store.Find(name)
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := s.Store.Remove(name)
	s.Metrics.Observe("remove", resultOf(err), s.Store)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.Log.Info("product removed", zap.String("name", NormalizeName(name)), subject(r))
	s.mutated(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	if s.Snapshot == nil {
		kit.WriteError(w, r, http.StatusNotImplemented, "no snapshot configured", nil)
		return
	}

	if err := s.save(r.Context()); err != nil {
		kit.WriteError(w, r, http.StatusInternalServerError, "snapshot failed", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"products": s.Store.Len()})
}

// Flush saves the store if anything changed since the last save. An
// untouched store is never written back, so an unreadable file survives a
// restart that made no changes.
func (s *Server) Flush(ctx context.Context) error {
	if s.Snapshot == nil || !s.dirty.Load() {
		return nil
	}
	return s.save(ctx)
}

func (s *Server) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.dirty.Store(false)
	err := s.Snapshot.Save(ctx, s.Store)
	s.Metrics.snapshot(resultOf(err))
	if err != nil {
		s.dirty.Store(true)
		s.Log.Error("snapshot save failed", zap.Error(err))
		return err
	}
	return nil
}

// mutated runs after a mutation already succeeded, so a failed autosave is
// logged but does not fail the request.
func (s *Server) mutated(ctx context.Context) {
	s.dirty.Store(true)
	if !s.Autosave || s.Snapshot == nil {
		return
	}
	_ = s.save(ctx)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrDuplicateName):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrValidation):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
	default:
		s.Log.Error("store operation failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

// The API only accepts the categories the console offers; records loaded
// from a snapshot may still carry others.
func writeUnknownCategory(w http.ResponseWriter, r *http.Request, category string) {
	kit.WriteError(w, r, http.StatusBadRequest, "unknown category", map[string]any{
		"category":   category,
		"categories": Categories,
	})
}

// subject names the token holder behind a write, when tokens are enforced.
func subject(r *http.Request) zap.Field {
	c, ok := kit.ClaimsFromContext(r.Context())
	if !ok {
		return zap.Skip()
	}
	return zap.String("subject", c.Subject)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
