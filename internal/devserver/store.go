package devserver

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vidalevel/habits/pkg/habit"
)

var (
	errNotFound   = errors.New("not found")
	errEmailTaken = errors.New("email already registered")
	errDuplicate  = errors.New("friend request already exists")
)

type account struct {
	habit.User
	passwordHash []byte
}

type habitRecord struct {
	habit.Habit
	ownerID     int64
	completions []time.Time
}

// memStore holds every record of the development backend. All methods are
// safe for concurrent use.
type memStore struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]*account
	habits   map[int64]*habitRecord
	requests map[int64]*habit.FriendRequest
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]*account{},
		habits:   map[int64]*habitRecord{},
		requests: map[int64]*habit.FriendRequest{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) createUser(u habit.User, hash []byte) (habit.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.users {
		if strings.EqualFold(a.Email, u.Email) {
			return habit.User{}, errEmailTaken
		}
	}
	u.ID = m.id()
	m.users[u.ID] = &account{User: u, passwordHash: hash}
	return u, nil
}

func (m *memStore) userByEmail(email string) (account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.users {
		if strings.EqualFold(a.Email, email) {
			return *a, true
		}
	}
	return account{}, false
}

func (m *memStore) user(id int64) (habit.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.users[id]
	if !ok {
		return habit.User{}, false
	}
	return a.User, true
}

func (m *memStore) listUsers() []habit.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]habit.User, 0, len(m.users))
	for _, a := range m.users {
		out = append(out, a.User)
	}
	slices.SortFunc(out, func(a, b habit.User) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (m *memStore) updateUser(id int64, fn func(*habit.User)) (habit.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.users[id]
	if !ok {
		return habit.User{}, errNotFound
	}
	fn(&a.User)
	return a.User, nil
}

// habitsFor returns the user's habits, newest first.
func (m *memStore) habitsFor(owner int64) []habitRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []habitRecord
	for _, h := range m.habits {
		if h.ownerID == owner {
			r := *h
			r.completions = slices.Clone(h.completions)
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b habitRecord) int { return cmp.Compare(b.ID, a.ID) })
	return out
}

func (m *memStore) habit(owner, id int64) (habitRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.habits[id]
	if !ok || h.ownerID != owner {
		return habitRecord{}, false
	}
	r := *h
	r.completions = slices.Clone(h.completions)
	return r, true
}

func (m *memStore) createHabit(owner int64, h habit.Habit) habitRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = m.id()
	r := &habitRecord{Habit: h, ownerID: owner}
	m.habits[h.ID] = r
	return *r
}

func (m *memStore) updateHabit(owner, id int64, fn func(*habit.Habit)) (habitRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok || h.ownerID != owner {
		return habitRecord{}, errNotFound
	}
	fn(&h.Habit)
	r := *h
	r.completions = slices.Clone(h.completions)
	return r, nil
}

func (m *memStore) deleteHabit(owner, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok || h.ownerID != owner {
		return errNotFound
	}
	delete(m.habits, id)
	return nil
}

func (m *memStore) complete(owner, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok || h.ownerID != owner {
		return errNotFound
	}
	h.completions = append(h.completions, at)
	return nil
}

func (m *memStore) countActiveHabits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, h := range m.habits {
		if h.IsActive {
			n++
		}
	}
	return n
}

func (m *memStore) createRequest(sender, receiver int64) (habit.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[receiver]; !ok {
		return habit.FriendRequest{}, errNotFound
	}
	for _, r := range m.requests {
		if r.Status == statusRejected {
			continue
		}
		if (r.SenderID == sender && r.ReceiverID == receiver) || (r.SenderID == receiver && r.ReceiverID == sender) {
			return habit.FriendRequest{}, errDuplicate
		}
	}
	fr := habit.FriendRequest{
		ID:         m.id(),
		SenderID:   sender,
		SenderName: m.users[sender].Name,
		ReceiverID: receiver,
		Status:     statusPending,
	}
	m.requests[fr.ID] = &fr
	return fr, nil
}

func (m *memStore) pendingFor(receiver int64) []habit.FriendRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []habit.FriendRequest{}
	for _, r := range m.requests {
		if r.ReceiverID == receiver && r.Status == statusPending {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, func(a, b habit.FriendRequest) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// respond settles a pending request addressed to receiver.
func (m *memStore) respond(receiver, id int64, status string) (habit.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.ReceiverID != receiver || r.Status != statusPending {
		return habit.FriendRequest{}, errNotFound
	}
	r.Status = status
	return *r, nil
}

func (m *memStore) friendsOf(id int64) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []int64
	for _, r := range m.requests {
		if r.Status != statusAccepted {
			continue
		}
		switch id {
		case r.SenderID:
			out = append(out, r.ReceiverID)
		case r.ReceiverID:
			out = append(out, r.SenderID)
		}
	}
	return out
}

const (
	statusPending  = "pending"
	statusAccepted = "accepted"
	statusRejected = "rejected"
)
