package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"battle-tracker/internal/constants"
	"battle-tracker/internal/domain"
	"battle-tracker/internal/service"

	"github.com/rs/zerolog"
)

const maxSettingsBody = 1 << 20

// Overlay is the query and settings surface the HTTP handlers serve.
type Overlay interface {
	Scopes(ctx context.Context) ([]service.ScopeInfo, error)
	Layout(ctx context.Context, scope domain.Scope) ([]domain.Field, error)
	Rows(ctx context.Context, scope domain.Scope) ([]domain.DisplayRow, error)
	Status(ctx context.Context) (service.Status, error)
	CreateSnapshot(ctx context.Context) (domain.SettingsSnapshot, error)
	ApplySettings(ctx context.Context, edited domain.SettingsSnapshot, persist bool) error
	SetAllEnabled(ctx context.Context, scope domain.Scope, enabled bool) error
	MoveHeader(ctx context.Context, key string, index int) error
	RenameHeader(ctx context.Context, key, header string) error
	TriggerRefresh(reason string)
	Journal(ctx context.Context, limit int) ([]domain.IngestRecord, error)
}

type OverlayServer struct {
	overlay Overlay
	metrics http.Handler
	logger  zerolog.Logger
}

func NewOverlayServer(overlay Overlay, metrics http.Handler, logger zerolog.Logger) *OverlayServer {
	return &OverlayServer{
		overlay: overlay,
		metrics: metrics,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

func (s *OverlayServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/scopes", s.handleScopes)
	mux.HandleFunc("GET /api/scopes/{scope}/layout", s.handleLayout)
	mux.HandleFunc("GET /api/scopes/{scope}/rows", s.handleRows)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	mux.HandleFunc("POST /api/scopes/{scope}/select", s.handleSelectAll)
	mux.HandleFunc("POST /api/headers/{key}/move", s.handleMoveHeader)
	mux.HandleFunc("POST /api/headers/{key}/rename", s.handleRenameHeader)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/journal", s.handleJournal)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
}

func (s *OverlayServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

func (s *OverlayServer) handleScopes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	scopes, err := s.overlay.Scopes(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scopes)
}

func (s *OverlayServer) handleLayout(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.scopeParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	fields, err := s.overlay.Layout(ctx, scope)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if fields == nil {
		fields = []domain.Field{}
	}
	s.writeJSON(w, http.StatusOK, fields)
}

func (s *OverlayServer) handleRows(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.scopeParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	rows, err := s.overlay.Rows(ctx, scope)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.DisplayRow{}
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *OverlayServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	status, err := s.overlay.Status(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *OverlayServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	snap, err := s.overlay.CreateSnapshot(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *OverlayServer) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	persist := true
	if raw := r.URL.Query().Get("persist"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid persist flag %q", raw))
			return
		}
		persist = parsed
	}

	var edited domain.SettingsSnapshot
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody)).Decode(&edited); err != nil {
		s.writeStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid settings: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	if err := s.overlay.ApplySettings(ctx, edited, persist); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.overlay.CreateSnapshot(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// handleSelectAll enables every metric of a scope, or disables them with ?enabled=false.
func (s *OverlayServer) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.scopeParam(w, r)
	if !ok {
		return
	}
	enabled := true
	if raw := r.URL.Query().Get("enabled"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid enabled flag %q", raw))
			return
		}
		enabled = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	if err := s.overlay.SetAllEnabled(ctx, scope, enabled); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleLayout(w, r)
}

func (s *OverlayServer) handleMoveHeader(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil || index < 0 {
		s.writeStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid index %q", r.URL.Query().Get("index")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	if err := s.overlay.MoveHeader(ctx, r.PathValue("key"), index); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.overlay.CreateSnapshot(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap.GlobalHeaders)
}

type renameRequest struct {
	Header string `json:"header"`
}

// handleRenameHeader applies a label to every scope holding the key. A blank header
// restores the default label.
func (s *OverlayServer) handleRenameHeader(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody)).Decode(&req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid rename: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	if err := s.overlay.RenameHeader(ctx, r.PathValue("key"), req.Header); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.overlay.CreateSnapshot(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap.Scopes)
}

func (s *OverlayServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.overlay.TriggerRefresh("manual")
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (s *OverlayServer) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := constants.JournalListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = min(parsed, constants.JournalMaxLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	records, err := s.overlay.Journal(ctx, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.IngestRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *OverlayServer) scopeParam(w http.ResponseWriter, r *http.Request) (domain.Scope, bool) {
	name := r.PathValue("scope")
	scope, ok := domain.ParseScope(name)
	if !ok {
		s.writeStatus(w, http.StatusNotFound, fmt.Sprintf("unknown scope %q", name))
		return 0, false
	}
	return scope, true
}

func (s *OverlayServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnknownScope), errors.Is(err, service.ErrUnknownMetric):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrStopped), errors.Is(err, service.ErrJournalDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	zerolog.Ctx(r.Context()).Warn().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
	s.writeStatus(w, status, err.Error())
}

func (s *OverlayServer) writeStatus(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *OverlayServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write response")
	}
}
