package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/vidalevel/habits/internal/logger"
	"github.com/vidalevel/habits/pkg/habit"
)

func (s *Server) sendFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)
	var body struct {
		ReceiverID int64 `json:"receiver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.ReceiverID == userID {
		writeError(w, http.StatusBadRequest, "cannot befriend yourself")
		return
	}
	fr, err := s.store.createRequest(userID, body.ReceiverID)
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "user not found")
		return
	case errors.Is(err, errDuplicate):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	logger.Info("Friend request created", "sender_id", userID, "receiver_id", body.ReceiverID)
	_ = writeJSON(w, http.StatusCreated, fr)
}

func (s *Server) pendingFriendRequests(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, s.store.pendingFor(userIDFromContext(r)))
}

func (s *Server) respondFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)
	id, ok := pathID(w, r, "request_id")
	if !ok {
		return
	}
	var status string
	switch chi.URLParam(r, "action") {
	case "accept":
		status = statusAccepted
	case "reject":
		status = statusRejected
	default:
		writeError(w, http.StatusBadRequest, "action must be accept or reject")
		return
	}
	fr, err := s.store.respond(userID, id, status)
	if err != nil {
		writeError(w, http.StatusNotFound, "friend request not found")
		return
	}
	logger.Info("Friend request answered", "request_id", id, "status", status)
	_ = writeJSON(w, http.StatusOK, fr)
}

// ranking lists the caller and their accepted friends by total points.
func (s *Server) ranking(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)
	now := s.now()
	ids := append([]int64{userID}, s.store.friendsOf(userID)...)

	out := make([]habit.RankingEntry, 0, len(ids))
	for _, id := range ids {
		u, ok := s.store.user(id)
		if !ok {
			continue
		}
		st := computeStats(s.store.habitsFor(id), now)
		out = append(out, habit.RankingEntry{ID: u.ID, Name: u.Name, Points: st.TotalPoints})
	}
	slices.SortStableFunc(out, func(a, b habit.RankingEntry) int { return b.Points - a.Points })
	_ = writeJSON(w, http.StatusOK, out)
}
