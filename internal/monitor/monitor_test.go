package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/ativo/internal/cache"
	"github.com/fragmede/ativo/internal/config"
	"github.com/fragmede/ativo/internal/ui/messages"
)

type fakeCounter struct {
	feedbacks, inspections int
	err                    error
}

func (f *fakeCounter) PendingCounts(context.Context) (int, int, error) {
	return f.feedbacks, f.inspections, f.err
}

type recorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recorder) Send(msg tea.Msg) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recorder) counts() []messages.PendingCountMsg {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []messages.PendingCountMsg
	for _, m := range r.msgs {
		if pc, ok := m.(messages.PendingCountMsg); ok {
			out = append(out, pc)
		}
	}
	return out
}

func newTestMonitor(t *testing.T, c Counter) (*Monitor, *recorder) {
	t.Helper()
	db, err := cache.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return newMonitorWithDB(db, c)
}

func newMonitorWithDB(db *cache.DB, c Counter) (*Monitor, *recorder) {
	m := New(config.Default(), c, db, nil)
	rec := &recorder{}
	m.program = rec
	return m, rec
}

func TestPoll_InactiveDoesNothing(t *testing.T) {
	m, rec := newTestMonitor(t, &fakeCounter{feedbacks: 1})
	m.Poll()
	if len(rec.counts()) != 0 {
		t.Fatal("inactive monitor must not report")
	}
}

func TestPoll_ReportsNewItems(t *testing.T) {
	c := &fakeCounter{feedbacks: 2, inspections: 1}
	m, rec := newTestMonitor(t, c)
	m.mu.Lock()
	m.active = true
	m.mu.Unlock()

	m.Poll()
	c.inspections = 3
	m.Poll()
	c.feedbacks = 0
	m.Poll()

	got := rec.counts()
	want := []messages.PendingCountMsg{
		{Feedbacks: 2, Inspections: 1, New: 0},
		{Feedbacks: 2, Inspections: 3, New: 2},
		{Feedbacks: 0, Inspections: 3, New: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPoll_ErrorIsQuiet(t *testing.T) {
	m, rec := newTestMonitor(t, &fakeCounter{err: errors.New("offline")})
	m.mu.Lock()
	m.active = true
	m.mu.Unlock()
	m.Poll()
	if len(rec.counts()) != 0 {
		t.Fatal("failed poll must not report")
	}
}

func TestPoll_IgnoresCountsFromEarlierSession(t *testing.T) {
	db, err := cache.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	// Left behind by a previous session whose cleanup failed.
	stale := cache.PendingCounts{Feedbacks: 1, CheckedAt: time.Now().Add(-time.Hour)}
	if err := db.PutPendingCounts(stale); err != nil {
		t.Fatal(err)
	}

	c := &fakeCounter{feedbacks: 4, inspections: 2}
	m, rec := newMonitorWithDB(db, c)
	m.SetActive(true)
	m.Poll()
	c.inspections = 3
	m.Poll()

	got := rec.counts()
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].New != 0 {
		t.Errorf("first poll diffed against stale counts: New = %d", got[0].New)
	}
	if got[1].New != 1 {
		t.Errorf("second poll New = %d, want 1", got[1].New)
	}
}
