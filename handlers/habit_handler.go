package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"habitsAPI/internal/habit"
	"habitsAPI/middleware"
	"habitsAPI/services"
)

type HabitHandler struct {
	habitService *services.HabitService
}

func NewHabitHandler(habitService *services.HabitService) *HabitHandler {
	return &HabitHandler{
		habitService: habitService,
	}
}

func (h *HabitHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	habits, err := h.habitService.ListHabits(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondWithServiceError(w, r, "list habits", err)
		return
	}

	respondWithJSON(w, http.StatusOK, habits)
}

func (h *HabitHandler) GetHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.habitService.GetHabit(ctx, middleware.GetUserID(ctx), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, "get habit", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *HabitHandler) AddHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req habit.CreateHabitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.habitService.AddHabit(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		respondWithServiceError(w, r, "create habit", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HabitHandler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req habit.UpdateHabitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.habitService.UpdateHabit(ctx, middleware.GetUserID(ctx), mux.Vars(r)["id"], &req)
	if err != nil {
		respondWithServiceError(w, r, "update habit", err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.habitService.DeleteHabit(ctx, middleware.GetUserID(ctx), mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, "delete habit", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HabitHandler) ReorderHabits(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req habit.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.habitService.ReorderHabits(ctx, middleware.GetUserID(ctx), &req); err != nil {
		respondWithServiceError(w, r, "reorder habits", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
