package cache

import (
	"database/sql"
	"time"
)

// PendingCounts is the last approval backlog seen by the monitor.
type PendingCounts struct {
	Feedbacks   int
	Inspections int
	CheckedAt   time.Time
}

// Total returns the number of items awaiting review.
func (p PendingCounts) Total() int {
	return p.Feedbacks + p.Inspections
}

// GetPendingCounts returns the last recorded counts, or nil if none.
func (d *DB) GetPendingCounts() (*PendingCounts, error) {
	var p PendingCounts
	var checked int64
	err := d.db.QueryRow(`SELECT feedbacks, inspections, checked_at FROM pending_counts WHERE id = 1`).
		Scan(&p.Feedbacks, &p.Inspections, &checked)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.CheckedAt = time.Unix(checked, 0)
	return &p, nil
}

// PutPendingCounts records the latest counts.
func (d *DB) PutPendingCounts(p PendingCounts) error {
	if p.CheckedAt.IsZero() {
		p.CheckedAt = time.Now()
	}
	_, err := d.db.Exec(`INSERT OR REPLACE INTO pending_counts (id, feedbacks, inspections, checked_at)
		VALUES (1, ?, ?, ?)`, p.Feedbacks, p.Inspections, p.CheckedAt.Unix())
	return err
}
