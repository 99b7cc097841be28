package monitor

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/ativo/internal/cache"
	"github.com/fragmede/ativo/internal/config"
	"github.com/fragmede/ativo/internal/logging"
	"github.com/fragmede/ativo/internal/ui/messages"
)

// Counter reports the approval backlog.
type Counter interface {
	PendingCounts(ctx context.Context) (feedbacks, inspections int, err error)
}

// Sender delivers messages to the TUI. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Monitor polls the approval backlog while a user is signed in.
type Monitor struct {
	client   Counter
	cache    *cache.DB
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger
	program  Sender

	mu     sync.Mutex
	active bool
	// since is when polling was last switched on. Counts recorded before it
	// belong to an earlier session.
	since time.Time

	kick   chan struct{}
	stopCh chan struct{}
}

// New creates a new background monitor.
func New(cfg config.Config, client Counter, db *cache.DB, log logging.Logger) *Monitor {
	if log == nil {
		log = logging.Nop()
	}
	interval := cfg.MonitorInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		client:   client,
		cache:    db,
		interval: interval,
		timeout:  cfg.RequestTimeout,
		log:      log,
		kick:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background polling loop.
func (m *Monitor) Start(program Sender) {
	m.program = program
	go m.loop()
}

// Stop halts the background polling.
func (m *Monitor) Stop() {
	select {
	case <-m.stopCh:
	default:
		close(m.stopCh)
	}
}

// SetActive turns polling on or off. Turning it on polls right away.
func (m *Monitor) SetActive(active bool) {
	m.mu.Lock()
	changed := m.active != active
	m.active = active
	if active && changed {
		m.since = time.Now()
	}
	m.mu.Unlock()

	if active && changed {
		select {
		case m.kick <- struct{}{}:
		default:
		}
	}
}

func (m *Monitor) isActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Monitor) activeSince() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.since
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
		case <-m.kick:
		}
		m.Poll()
	}
}

// Poll checks the backlog once and reports it. It does nothing while
// inactive.
func (m *Monitor) Poll() {
	if !m.isActive() {
		return
	}

	ctx := context.Background()
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	feedbacks, inspections, err := m.client.PendingCounts(ctx)
	if err != nil {
		m.log.Debug("polling pending approvals", "err", err)
		return
	}
	// The session may have ended while the request was in flight.
	if !m.isActive() {
		return
	}

	cur := cache.PendingCounts{Feedbacks: feedbacks, Inspections: inspections, CheckedAt: time.Now()}
	var fresh int
	if m.cache != nil {
		prev, err := m.cache.GetPendingCounts()
		if err != nil {
			m.log.Warn("reading pending counts", "err", err)
		}
		// checked_at is stored in whole seconds.
		if prev != nil && prev.CheckedAt.Before(m.activeSince().Truncate(time.Second)) {
			prev = nil
		}
		if prev != nil && cur.Total() > prev.Total() {
			fresh = cur.Total() - prev.Total()
		}
		if err := m.cache.PutPendingCounts(cur); err != nil {
			m.log.Warn("saving pending counts", "err", err)
		}
	}

	if m.program != nil {
		m.program.Send(messages.PendingCountMsg{
			Feedbacks:   feedbacks,
			Inspections: inspections,
			New:         fresh,
		})
	}
}
