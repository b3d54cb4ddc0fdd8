// Package friends covers the social side of the client: finding other users,
// friend requests and the points ranking.
package friends

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/vidalevel/habits/internal/habits"
	"github.com/vidalevel/habits/internal/logger"
	"github.com/vidalevel/habits/internal/notify"
	"github.com/vidalevel/habits/pkg/habit"
)

var ErrSelfRequest = errors.New("you cannot send a friend request to yourself")

type API interface {
	ListUsers(ctx context.Context) ([]habit.User, error)
	SendFriendRequest(ctx context.Context, receiverID int64) (*habit.FriendRequest, error)
	PendingFriendRequests(ctx context.Context) ([]habit.FriendRequest, error)
	RespondFriendRequest(ctx context.Context, id int64, accept bool) error
	Ranking(ctx context.Context) ([]habit.RankingEntry, error)
}

type Session interface {
	IsAuthenticated() bool
	User() *habit.User
}

type Service struct {
	api     API
	session Session
	notify  notify.Notifier
}

func New(api API, session Session, n notify.Notifier) *Service {
	if n == nil {
		n = notify.Discard
	}
	return &Service{api: api, session: session, notify: n}
}

// Search lists other users whose name contains query, ignoring case. An
// empty query matches everyone.
func (s *Service) Search(ctx context.Context, query string) ([]habit.User, error) {
	if !s.session.IsAuthenticated() {
		return []habit.User{}, nil
	}
	users, err := s.api.ListUsers(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Failed to list users", "error", err)
		return nil, s.fail(err)
	}

	var self int64
	if u := s.session.User(); u != nil {
		self = u.ID
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []habit.User{}
	for _, u := range users {
		if u.ID == self {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Service) SendRequest(ctx context.Context, receiverID int64) (*habit.FriendRequest, error) {
	if !s.session.IsAuthenticated() {
		return nil, s.fail(habits.ErrAuthRequired)
	}
	if u := s.session.User(); u != nil && u.ID == receiverID {
		return nil, s.fail(ErrSelfRequest)
	}
	req, err := s.api.SendFriendRequest(ctx, receiverID)
	if err != nil {
		logger.WarnContext(ctx, "Failed to send friend request", "receiver_id", receiverID, "error", err)
		return nil, s.fail(err)
	}
	logger.InfoContext(ctx, "Friend request sent", "receiver_id", receiverID)
	s.notify.Success("Friend request sent")
	return req, nil
}

func (s *Service) Pending(ctx context.Context) ([]habit.FriendRequest, error) {
	if !s.session.IsAuthenticated() {
		return []habit.FriendRequest{}, nil
	}
	reqs, err := s.api.PendingFriendRequests(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Failed to list friend requests", "error", err)
		return nil, s.fail(err)
	}
	if reqs == nil {
		reqs = []habit.FriendRequest{}
	}
	return reqs, nil
}

func (s *Service) Respond(ctx context.Context, id int64, accept bool) error {
	if !s.session.IsAuthenticated() {
		return s.fail(habits.ErrAuthRequired)
	}
	if err := s.api.RespondFriendRequest(ctx, id, accept); err != nil {
		logger.WarnContext(ctx, "Failed to answer friend request", "request_id", id, "accept", accept, "error", err)
		return s.fail(err)
	}
	logger.InfoContext(ctx, "Friend request answered", "request_id", id, "accept", accept)
	if accept {
		s.notify.Success("Friend request accepted")
	} else {
		s.notify.Success("Friend request rejected")
	}
	return nil
}

// Ranking is sorted by points, highest first.
func (s *Service) Ranking(ctx context.Context) ([]habit.RankingEntry, error) {
	if !s.session.IsAuthenticated() {
		return []habit.RankingEntry{}, nil
	}
	entries, err := s.api.Ranking(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Failed to load ranking", "error", err)
		return nil, s.fail(err)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Points > entries[j].Points })
	if entries == nil {
		entries = []habit.RankingEntry{}
	}
	return entries, nil
}

func (s *Service) fail(err error) error {
	s.notify.Error(err.Error())
	return err
}
