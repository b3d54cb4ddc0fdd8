package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vidalevel/habits/internal/logger"
	"github.com/vidalevel/habits/pkg/habit"
)

const (
	maxNameLength = 40
	maxNoteLength = 1024
)

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)
	now := s.now()
	records := s.store.habitsFor(userID)
	out := make([]habit.Habit, 0, len(records))
	for _, rec := range records {
		out = append(out, view(rec, now))
	}
	logger.Debug("Listed habits", "user_id", userID, "count", len(out))
	_ = writeJSON(w, http.StatusOK, out)
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)
	var h habit.Habit
	if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validateHabit(&h); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec := s.store.createHabit(userID, h)
	logger.Info("Habit created", "user_id", userID, "habit_id", rec.ID, "name", rec.Name)
	activeHabits.Set(float64(s.store.countActiveHabits()))
	_ = writeJSON(w, http.StatusCreated, view(rec, s.now()))
}

func (s *Server) updateHabit(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)
	id, ok := pathID(w, r, "habit_id")
	if !ok {
		return
	}
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	current, found := s.store.habit(userID, id)
	if !found {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	next := current.Habit
	if err := applyHabitFields(&next, fields); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateHabit(&next); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.store.updateHabit(userID, id, func(h *habit.Habit) { *h = next })
	if err != nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	logger.Info("Habit updated", "user_id", userID, "habit_id", id)
	activeHabits.Set(float64(s.store.countActiveHabits()))
	_ = writeJSON(w, http.StatusOK, view(rec, s.now()))
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)
	id, ok := pathID(w, r, "habit_id")
	if !ok {
		return
	}
	if err := s.store.deleteHabit(userID, id); err != nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	logger.Info("Habit deleted", "user_id", userID, "habit_id", id)
	activeHabits.Set(float64(s.store.countActiveHabits()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) completeHabit(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)
	var c habit.Completion
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if c.HabitID <= 0 {
		writeError(w, http.StatusBadRequest, "habit_id is required")
		return
	}
	if len(c.Notes) > maxNoteLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("notes must be 0-%d characters", maxNoteLength))
		return
	}
	if err := s.store.complete(userID, c.HabitID, s.now()); err != nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	completionsTotal.Inc()
	logger.Info("Habit completed", "user_id", userID, "habit_id", c.HabitID)
	_ = writeJSON(w, http.StatusCreated, map[string]any{"habit_id": c.HabitID, "status": "completed"})
}

func (s *Server) getMyStats(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)
	_ = writeJSON(w, http.StatusOK, computeStats(s.store.habitsFor(userID), s.now()))
}

// validateHabit normalises h in place and derives points from difficulty.
func validateHabit(h *habit.Habit) error {
	h.Name = strings.TrimSpace(h.Name)
	if len(h.Name) == 0 || len(h.Name) > maxNameLength {
		return fmt.Errorf("bad habit name: must be 1-%d characters", maxNameLength)
	}
	if len(h.Description) > maxNoteLength {
		return fmt.Errorf("bad habit description: must be 0-%d characters", maxNoteLength)
	}
	d, err := habit.ParseDifficulty(string(h.Difficulty))
	if err != nil {
		return err
	}
	h.Difficulty = d
	h.Points, _ = d.Points()
	if h.Category == "" {
		h.Category = habit.CategoryOther
	}
	for _, c := range habit.Categories {
		if c == h.Category {
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", h.Category)
}

// applyHabitFields copies the editable fields present in a partial update.
func applyHabitFields(h *habit.Habit, fields map[string]json.RawMessage) error {
	for k, raw := range fields {
		var err error
		switch k {
		case "name":
			err = json.Unmarshal(raw, &h.Name)
		case "description":
			err = json.Unmarshal(raw, &h.Description)
		case "category":
			err = json.Unmarshal(raw, &h.Category)
		case "difficulty":
			err = json.Unmarshal(raw, &h.Difficulty)
		case "icon":
			err = json.Unmarshal(raw, &h.Icon)
		case "color":
			err = json.Unmarshal(raw, &h.Color)
		case "is_active", "isActive":
			err = json.Unmarshal(raw, &h.IsActive)
		}
		if err != nil {
			return fmt.Errorf("bad value for %s", k)
		}
	}
	return nil
}
