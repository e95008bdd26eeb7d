package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"game-reports/report-desk/internal/config"
	"game-reports/report-desk/pkg/workflows"
)

const (
	StateIdle    = "IDLE"
	StateShowing = "SHOWING"
)

const defaultDuration = 6 * time.Second

// Manager shows one visible notification at a time and queues the rest.
// Every notification is logged regardless of visibility.
type Manager struct {
	mu              sync.Mutex
	logger          *zap.Logger
	machine         *workflows.StateMachine
	queue           []Notification
	queueSize       int
	defaultDuration time.Duration
	active          Notification
	shownAt         time.Time
	subscribers     []func(Notification)
	now             func() time.Time
}

// NewManager creates a notification manager owned by one presentation shell
func NewManager(cfg config.NotificationsConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.QueueSize
	if size < 1 {
		size = 1
	}
	duration := cfg.DefaultDuration
	if duration <= 0 {
		duration = defaultDuration
	}
	return &Manager{
		logger: logger,
		machine: workflows.NewStateMachine(StateIdle, map[string][]string{
			StateIdle:    {StateShowing},
			StateShowing: {StateIdle, StateShowing},
		}),
		queueSize:       size,
		defaultDuration: duration,
		now:             time.Now,
	}
}

// Subscribe registers a sink that receives every visible notification
func (m *Manager) Subscribe(fn func(Notification)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Notify logs n and, when visible, shows it or queues it behind the active one
func (m *Manager) Notify(_ context.Context, n Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now()
	}
	if n.Duration <= 0 {
		n.Duration = m.defaultDuration
	}

	logNotification(m.logger, n)
	if !n.Visible {
		return
	}

	m.mu.Lock()
	if m.machine.Current() == StateIdle {
		m.show(n)
	} else {
		if len(m.queue) >= m.queueSize {
			dropped := m.queue[0]
			m.queue = m.queue[1:]
			m.logger.Warn("Notification queue full, dropping oldest",
				zap.String("message", dropped.Message))
		}
		m.queue = append(m.queue, n)
	}
	subscribers := make([]func(Notification), len(m.subscribers))
	copy(subscribers, m.subscribers)
	m.mu.Unlock()

	for _, fn := range subscribers {
		fn(n)
	}
}

func (m *Manager) show(n Notification) {
	if err := m.machine.Transition(StateShowing); err != nil {
		m.logger.Error("Invalid notification state", zap.Error(err))
		return
	}
	m.active = n
	m.shownAt = m.now()
}

// Current returns the visible notification, if any
func (m *Manager) Current() (Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.machine.Current() != StateShowing {
		return Notification{}, false
	}
	return m.active, true
}

// Dismiss closes the visible notification and shows the next queued one
func (m *Manager) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dismissLocked()
}

func (m *Manager) dismissLocked() {
	if m.machine.Current() != StateShowing {
		return
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		m.show(next)
		return
	}
	if err := m.machine.Transition(StateIdle); err != nil {
		m.logger.Error("Invalid notification state", zap.Error(err))
		return
	}
	m.active = Notification{}
}

// Expire dismisses the visible notification once its duration has elapsed.
// It reports whether anything was dismissed.
func (m *Manager) Expire(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.machine.Current() != StateShowing {
		return false
	}
	if now.Sub(m.shownAt) < m.active.Duration {
		return false
	}
	m.dismissLocked()
	return true
}

// Pending returns the number of queued notifications
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// State returns IDLE or SHOWING
func (m *Manager) State() string {
	return m.machine.Current()
}
