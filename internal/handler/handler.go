// Package handler exposes every quiz operation as a JSON HTTP API, plus byte
// passthrough for the study notes and the scorecard PDF.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sanketk/quizdeck/internal/bank"
	"github.com/sanketk/quizdeck/internal/i18n"
	"github.com/sanketk/quizdeck/internal/leaderboard"
	"github.com/sanketk/quizdeck/internal/model"
	"github.com/sanketk/quizdeck/internal/notes"
	"github.com/sanketk/quizdeck/internal/report"
	"github.com/sanketk/quizdeck/internal/session"
	"github.com/sanketk/quizdeck/internal/store"
)

// Config carries the handler's tunables, bound from flags and env in main.
type Config struct {
	MinQuestions     int
	MaxQuestions     int
	DefaultQuestions int
	PerQuestion      time.Duration
	// BankPath is where an uploaded question bank workbook is written.
	BankPath string
	// ResultsPath is the raw results file offered for admin download.
	ResultsPath string
	// AdminPassword is the bcrypt hash guarding the admin surface; empty
	// disables it.
	AdminPassword string
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	mu       sync.RWMutex // guards bank, which admin uploads swap out
	bank     *bank.Bank
	registry *session.Registry
	store    store.Store
	notes    *notes.Dir
	config   Config
	rng      *rand.Rand
	now      func() time.Time
}

// New creates a new Handler.
func New(b *bank.Bank, reg *session.Registry, st store.Store, n *notes.Dir, cfg Config) *Handler {
	return &Handler{
		bank:     b,
		registry: reg,
		store:    st,
		notes:    n,
		config:   cfg,
		now:      time.Now,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/setup", h.handleSetup)
		r.Post("/quiz", h.handleStart)
		r.Route("/quiz/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleSessionView)
			r.Post("/answer", h.handleAnswer)
			r.Post("/clear", h.handleClearAnswer)
			r.Post("/mark", h.handleToggleMark)
			r.Post("/goto", h.handleGoto)
			r.Post("/next", h.handleAdvance)
			r.Post("/finish", h.handleFinish)
			r.Get("/scorecard", h.handleScorecard)
			r.Get("/report.pdf", h.handleReport)
		})
		r.Get("/leaderboard", h.handleLeaderboard)
		r.Get("/notes", h.handleNotesList)
		r.Get("/notes/{name}", h.handleNoteFile)
		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Post("/bank", h.handleUploadBank)
			r.Get("/results", h.handleDownloadResults)
		})
	})
}

func (h *Handler) getBank() *bank.Bank {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.bank
}

func (h *Handler) setBank(b *bank.Bank) {
	h.mu.Lock()
	h.bank = b
	h.mu.Unlock()
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// filterParam reads a filter query parameter, defaulting to the wildcard.
func filterParam(r *http.Request, key string) string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return model.FilterAll
	}
	return v
}

func withAll(values []string) []string {
	return append([]string{model.FilterAll}, values...)
}

func (h *Handler) handleSetup(w http.ResponseWriter, r *http.Request) {
	b := h.getBank()
	exam := filterParam(r, "exam")
	section := filterParam(r, "section")
	topic := filterParam(r, "topic")

	available := b.Count(exam, section, topic)
	maxCount := h.config.MaxQuestions
	if available < maxCount {
		maxCount = available
	}
	defaultCount := h.config.DefaultQuestions
	if defaultCount > maxCount {
		defaultCount = maxCount
	}

	respondJSON(w, http.StatusOK, SetupResponse{
		Title:            i18n.T(r.Context(), "AppTitle"),
		Exams:            withAll(b.Exams()),
		Sections:         withAll(b.Sections(exam)),
		Topics:           withAll(b.Topics(exam, section)),
		Available:        available,
		AvailableMessage: i18n.Tp(r.Context(), "QuestionsAvailable", available),
		MinQuestions:     h.config.MinQuestions,
		MaxQuestions:     maxCount,
		DefaultQuestions: defaultCount,
	})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.UserName) == "" {
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "NameRequired"))
		return
	}
	count := req.Count
	if count == 0 {
		count = h.config.DefaultQuestions
	}
	if count < h.config.MinQuestions || count > h.config.MaxQuestions {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("question count must be between %d and %d", h.config.MinQuestions, h.config.MaxQuestions))
		return
	}

	now := h.now()
	s, err := session.Start(h.getBank(), session.Params{
		UserName:    req.UserName,
		Exam:        req.Exam,
		Section:     req.Section,
		Topic:       req.Topic,
		Count:       count,
		PerQuestion: h.config.PerQuestion,
	}, h.rng, now)
	if err != nil {
		var insufficient *session.InsufficientQuestionsError
		if errors.As(err, &insufficient) {
			respondError(w, http.StatusUnprocessableEntity,
				i18n.Td(r.Context(), "InsufficientQuestions", map[string]any{
					"Available": insufficient.Available,
					"Requested": insufficient.Requested,
				}))
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.registry.Put(s)
	slog.Info("quiz started", "session", s.ID(), "user", req.UserName, "count", count)
	respondJSON(w, http.StatusCreated, s.Snapshot(now))
}

// lookupSession resolves the sessionID URL parameter, writing a 404 on a miss.
func (h *Handler) lookupSession(w http.ResponseWriter, r *http.Request) *session.Session {
	s := h.registry.Get(chi.URLParam(r, "sessionID"))
	if s == nil {
		respondError(w, http.StatusNotFound, i18n.T(r.Context(), "SessionNotFound"))
	}
	return s
}

func (h *Handler) respondSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrFinished):
		respondError(w, http.StatusConflict, i18n.T(r.Context(), "SessionFinished"))
	case errors.Is(err, session.ErrInvalidOption):
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidOption"))
	case errors.Is(err, session.ErrIndexOutOfRange):
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidIndex"))
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// mutate runs op against the request's session and responds with a fresh
// snapshot. The timer is evaluated inside the operation itself.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op func(s *session.Session, now time.Time) error) {
	s := h.lookupSession(w, r)
	if s == nil {
		return
	}
	now := h.now()
	if err := op(s, now); err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.Snapshot(now))
}

func (h *Handler) handleSessionView(w http.ResponseWriter, r *http.Request) {
	s := h.lookupSession(w, r)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, s.Snapshot(h.now()))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	h.mutate(w, r, func(s *session.Session, now time.Time) error {
		return s.Answer(req.Option, now)
	})
}

func (h *Handler) handleClearAnswer(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*session.Session).ClearAnswer)
}

func (h *Handler) handleToggleMark(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*session.Session).ToggleMark)
}

func (h *Handler) handleGoto(w http.ResponseWriter, r *http.Request) {
	var req GotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	h.mutate(w, r, func(s *session.Session, now time.Time) error {
		return s.Goto(req.Index, now)
	})
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*session.Session).Advance)
}

func (h *Handler) handleFinish(w http.ResponseWriter, r *http.Request) {
	s := h.lookupSession(w, r)
	if s == nil {
		return
	}
	// Finishing twice, or finishing after the timer already expired, is not
	// an error: the scorecard is returned either way.
	if err := s.FinishNow(h.now()); err != nil && !errors.Is(err, session.ErrFinished) {
		h.respondSessionError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.scorecard(r.Context(), s))
}

func (h *Handler) handleScorecard(w http.ResponseWriter, r *http.Request) {
	s := h.lookupSession(w, r)
	if s == nil {
		return
	}
	if !s.Finished(h.now()) {
		respondError(w, http.StatusConflict, i18n.T(r.Context(), "QuizInProgress"))
		return
	}
	respondJSON(w, http.StatusOK, h.scorecard(r.Context(), s))
}

// scorecard grades a finished session and persists its result rows exactly
// once. A failed append keeps the scorecard response intact but reports
// saved=false with a warning; the next scorecard request retries the append.
func (h *Handler) scorecard(ctx context.Context, s *session.Session) ScorecardResponse {
	v := s.Snapshot(h.now())
	resp := ScorecardResponse{
		SessionID: v.ID,
		UserName:  v.UserName,
		Exam:      v.Exam,
		Section:   v.Section,
		Topic:     v.Topic,
		StartedAt: v.StartedAt,
		Summary:   s.Score(),
		Saved:     true,
	}
	if v.EndedAt != nil {
		resp.EndedAt = *v.EndedAt
		if !v.EndedAt.Before(s.Deadline()) {
			resp.TimedOut = true
			resp.Message = i18n.T(ctx, "TimeUp")
		}
	}

	rows, err := s.Rows()
	if err != nil {
		resp.Saved = false
		resp.Warning = i18n.T(ctx, "ResultsSaveFailed")
		return resp
	}
	if s.TrySave() {
		if err := h.store.Append(rows); err != nil {
			s.ClearSaved()
			slog.Error("saving results", "session", v.ID, "error", err)
			resp.Saved = false
			resp.Warning = i18n.T(ctx, "ResultsSaveFailed")
		}
	}
	return resp
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	s := h.lookupSession(w, r)
	if s == nil {
		return
	}
	now := h.now()
	if !s.Finished(now) {
		respondError(w, http.StatusConflict, i18n.T(r.Context(), "QuizInProgress"))
		return
	}
	v := s.Snapshot(now)
	sc := report.Scorecard{
		UserName:  v.UserName,
		Exam:      v.Exam,
		Section:   v.Section,
		Topic:     v.Topic,
		StartedAt: v.StartedAt,
		Summary:   s.Score(),
	}
	if v.EndedAt != nil {
		sc.EndedAt = *v.EndedAt
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "scorecard-"+v.ID+".pdf"))
	if err := report.Render(w, sc); err != nil {
		slog.Error("rendering scorecard pdf", "session", v.ID, "error", err)
	}
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ReadAll()
	if err != nil {
		slog.Error("reading results", "error", err)
		respondError(w, http.StatusInternalServerError, "reading results failed")
		return
	}
	resp := LeaderboardResponse{Leaderboard: leaderboard.Build(rows)}
	if len(resp.Sessions) == 0 {
		resp.Message = i18n.T(r.Context(), "EmptyLeaderboard")
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleNotesList(w http.ResponseWriter, r *http.Request) {
	files, err := h.notes.List()
	if err != nil {
		slog.Error("listing notes", "error", err)
		respondError(w, http.StatusInternalServerError, "listing notes failed")
		return
	}
	if files == nil {
		files = []notes.File{}
	}
	respondJSON(w, http.StatusOK, NotesResponse{Notes: files})
}

func (h *Handler) handleNoteFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, err := h.notes.Open(name)
	if err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			respondError(w, http.StatusNotFound, i18n.T(r.Context(), "NoteNotFound"))
			return
		}
		slog.Error("opening note", "name", name, "error", err)
		respondError(w, http.StatusInternalServerError, "opening note failed")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		slog.Error("stat note", "name", name, "error", err)
		respondError(w, http.StatusInternalServerError, "opening note failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}
