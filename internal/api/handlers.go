package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/careercompass/compass/internal/store"
	"github.com/careercompass/compass/internal/summary"
	"github.com/careercompass/compass/internal/validation"
)

// Handler implements the API handlers. Upstream callers (the chat layer, the
// web form) only ever see these routes and the repository's record maps.
type Handler struct {
	store      store.Store
	summarizer summary.Summarizer
	apiKey     string
	version    string
}

// NewHandler creates a new Handler over the repository.
func NewHandler(s store.Store, sum summary.Summarizer, apiKey, version string) *Handler {
	return &Handler{
		store:      s,
		summarizer: sum,
		apiKey:     apiKey,
		version:    version,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

// --- Work-log entries ---

// AppendEntry handles POST /api/v1/entries. The timestamp and date default
// to "now" so chat-layer callers can post bare text entries.
func (h *Handler) AppendEntry(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	now := time.Now().UTC()
	if rec["timestamp"] == "" {
		rec["timestamp"] = now.Format(time.RFC3339)
	}
	if rec["date"] == "" {
		rec["date"] = now.Format(time.DateOnly)
	}
	h.append(w, r, rec, h.store.AppendEntry)
}

// ListEntries handles GET /api/v1/entries with optional inclusive
// start/end date filters.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" && end == "" {
		h.list(w, r, h.store.ListEntries)
		return
	}
	for _, d := range []string{start, end} {
		if err := validation.ValidateDate("date", d); err != nil {
			WriteProblem(w, r, http.StatusBadRequest, "start and end must be YYYY-MM-DD dates")
			return
		}
	}
	if start == "" {
		start = "0000-01-01"
	}
	if end == "" {
		end = "9999-12-31"
	}
	h.list(w, r, func(ctx context.Context) ([]store.Record, error) {
		return h.store.EntriesByDateRange(ctx, start, end)
	})
}

// EntriesSummary handles GET /api/v1/entries/summary?days=N.
func (h *Handler) EntriesSummary(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &days); err != nil || days < 1 || days > 90 {
			WriteProblem(w, r, http.StatusBadRequest, "days must be an integer between 1 and 90")
			return
		}
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -(days - 1))
	startStr := start.Format(time.DateOnly)
	endStr := end.Format(time.DateOnly)

	entries, err := h.store.EntriesByDateRange(r.Context(), startStr, endStr)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	text, err := h.summarizer.Summarize(r.Context(), entries, startStr, endStr)
	if err != nil {
		slog.Error("summarize failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Please try again later")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"start":   startStr,
		"end":     endStr,
		"entries": len(entries),
		"summary": text,
	})
}

// --- Goals ---

func (h *Handler) AppendGoal(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	if rec["lastmodified"] == "" {
		rec["lastmodified"] = time.Now().UTC().Format(time.RFC3339)
	}
	h.append(w, r, rec, h.store.AppendGoal)
}

// ListGoals handles GET /api/v1/goals. With ?view=current the goal event log
// is folded down to the latest row per goal id.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("view") == "current" {
		h.list(w, r, h.store.CurrentGoals)
		return
	}
	h.list(w, r, h.store.ListGoals)
}

// --- Milestones ---

func (h *Handler) AppendMilestone(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	h.append(w, r, rec, h.store.AppendMilestone)
}

func (h *Handler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.store.ListMilestones)
}

// MilestoneRollup handles GET /api/v1/goals/milestones/rollup, returning the
// per-goal "done/total (latest date)" progress strings.
func (h *Handler) MilestoneRollup(w http.ResponseWriter, r *http.Request) {
	rollups, err := h.store.MilestoneRollups(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	formatted := make(map[string]string, len(rollups))
	for goalID, rollup := range rollups {
		formatted[goalID] = rollup.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"rollups": formatted})
}

// --- Competencies ---

func (h *Handler) AppendCompetency(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	h.append(w, r, rec, h.store.AppendCompetency)
}

func (h *Handler) ListCompetencies(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.store.ListCompetencies)
}

// --- Mappings ---

func (h *Handler) AppendMapping(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	now := time.Now().UTC()
	if rec["entrytimestamp"] == "" {
		rec["entrytimestamp"] = now.Format(time.RFC3339)
	}
	if rec["entrydate"] == "" {
		rec["entrydate"] = now.Format(time.DateOnly)
	}
	h.append(w, r, rec, h.store.AppendMapping)
}

func (h *Handler) ListMappings(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.store.ListMappings)
}

// --- Reviews and evaluations ---

func (h *Handler) AppendGoalReview(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	h.append(w, r, rec, h.store.AppendGoalReview)
}

func (h *Handler) ListGoalReviews(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.store.ListGoalReviews)
}

func (h *Handler) AppendGoalEvaluation(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	h.append(w, r, rec, h.store.AppendGoalEvaluation)
}

func (h *Handler) ListGoalEvaluations(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.store.ListGoalEvaluations)
}

func (h *Handler) AppendCompetencyEvaluation(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	h.append(w, r, rec, h.store.AppendCompetencyEvaluation)
}

func (h *Handler) ListCompetencyEvaluations(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.store.ListCompetencyEvaluations)
}

// --- Reminder settings ---

func (h *Handler) AppendReminderSetting(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	h.append(w, r, rec, h.store.AppendReminderSetting)
}

func (h *Handler) ListReminderSettings(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.store.ListReminderSettings)
}

// --- Shared plumbing ---

func (h *Handler) append(w http.ResponseWriter, r *http.Request, rec store.Record, fn func(context.Context, store.Record) error) {
	if err := fn(r.Context(), rec); err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fn func(context.Context) ([]store.Record, error)) {
	records, err := fn(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": records,
		"count": len(records),
	})
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (store.Record, bool) {
	var rec store.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return nil, false
	}
	if rec == nil {
		rec = store.Record{}
	}
	return rec, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
