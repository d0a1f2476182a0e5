package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/intentd/intentd/internal/store"
	"github.com/intentd/intentd/internal/types"
	"github.com/intentd/intentd/internal/validation"
)

// Handler implements the API handlers
type Handler struct {
	store   store.Store
	version string
}

// NewHandler creates a new Handler with store.Store interface
func NewHandler(s store.Store, version string) *Handler {
	return &Handler{
		store:   s,
		version: version,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetGoalStats(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	resp := types.HealthResponse{
		Status:      "healthy",
		Version:     h.version,
		GoalCount:   stats.Total,
		ActiveGoals: stats.Active,
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListGoals handles GET /api/v1/goals?active=0|1&sort=order|activity
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	active := r.URL.Query().Get("active") != "0"

	if r.URL.Query().Get("sort") == "activity" {
		goals, err := h.store.ListGoalsByActivity(r.Context(), active)
		if err != nil {
			MapStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, goals)
		return
	}

	goals, err := h.store.ListGoals(r.Context(), active)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// AddGoal handles POST /api/v1/goals
func (h *Handler) AddGoal(w http.ResponseWriter, r *http.Request) {
	var req types.NewGoal
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateNewGoal(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	goal, err := h.store.AddGoal(r.Context(), req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

// EditGoal handles PUT /api/v1/goals/{id}
func (h *Handler) EditGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var goal types.Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	goal.ID = id

	if errs := validation.ValidateGoal(goal); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	if err := h.store.EditGoal(r.Context(), goal); err != nil {
		MapStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateGoals handles PUT /api/v1/goals (batched upsert)
func (h *Handler) UpdateGoals(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateGoalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	for _, g := range req.Goals {
		if errs := validation.ValidateGoal(g); len(errs) > 0 {
			WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
			return
		}
	}

	if err := h.store.UpdateGoals(r.Context(), req.Goals); err != nil {
		MapStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ArchiveGoal handles POST /api/v1/goals/{id}/archive
func (h *Handler) ArchiveGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.ArchiveGoal(r.Context(), id); err != nil {
		MapStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreGoal handles POST /api/v1/goals/{id}/restore
func (h *Handler) RestoreGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.RestoreGoal(r.Context(), id); err != nil {
		MapStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteGoal handles DELETE /api/v1/goals/{id}
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteGoal(r.Context(), id); err != nil {
		slog.Error("goal delete failed", "error", err, "goal_id", id)
		MapStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GoalLogs handles GET /api/v1/goals/{id}/logs
func (h *Handler) GoalLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	logs, err := h.store.GoalLogs(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

// ListIntentions handles GET /api/v1/intentions?start=&end= and
// GET /api/v1/intentions?latest=1
func (h *Handler) ListIntentions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("latest") == "1" {
		intentions, err := h.store.ListIntentionsOnLatestDay(r.Context())
		if err != nil {
			MapStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, intentions)
		return
	}

	start, err := types.ParseDay(r.URL.Query().Get("start"))
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "start must be a YYYY-MM-DD date")
		return
	}
	end, err := types.ParseDay(r.URL.Query().Get("end"))
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "end must be a YYYY-MM-DD date")
		return
	}

	intentions, err := h.store.ListIntentions(r.Context(), start, end)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intentions)
}

// UpsertIntentions handles PUT /api/v1/intentions
func (h *Handler) UpsertIntentions(w http.ResponseWriter, r *http.Request) {
	var req types.UpsertIntentionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var allErrors []validation.ValidationError
	for i, in := range req.Intentions {
		allErrors = append(allErrors, validation.ValidateIntention(i, in)...)
	}
	if len(allErrors) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", allErrors)
		return
	}

	intentions, err := h.store.UpsertIntentions(r.Context(), req.Intentions)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, intentions)
}

// AppendIntentionText handles POST /api/v1/intentions/{id}/append
func (h *Handler) AppendIntentionText(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req types.AppendIntentionTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if err := h.store.AppendIntentionText(r.Context(), id, req.Text); err != nil {
		MapStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListOutcomes handles GET /api/v1/outcomes?start=&end=&limit=&offset=&order=
func (h *Handler) ListOutcomes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListOutcomesOptions{
		StartDay:   q.Get("start"),
		EndDay:     q.Get("end"),
		Descending: q.Get("order") == "desc",
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}

	outcomes, err := h.store.ListOutcomes(r.Context(), opts)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomes)
}

// OutcomeIntentions handles GET /api/v1/outcomes/{id}/intentions
func (h *Handler) OutcomeIntentions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	associations, err := h.store.OutcomeIntentions(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, associations)
}

// ReviewOutcome handles POST /api/v1/outcomes/review
func (h *Handler) ReviewOutcome(w http.ResponseWriter, r *http.Request) {
	var req types.ReviewOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if err := validation.ValidateDay("date", req.Date); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*err})
		return
	}

	outcomeID, err := h.store.ReviewOutcome(r.Context(), req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"outcome_id": outcomeID})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// pathID parses the {id} path parameter, writing a 400 problem on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteProblem(w, r, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
