package nudge

import "time"

type mockNotifier struct {
	called bool
	habits []string
	window time.Duration
	err    error
}

func (m *mockNotifier) SendNudge(habits []string, window time.Duration) error {
	m.called = true
	m.habits = habits
	m.window = window
	return m.err
}
