package cache

import "time"

// AddRecentLookup records a public lookup query, keeping the newest max.
func (d *DB) AddRecentLookup(query string, max int) error {
	if query == "" {
		return nil
	}
	if _, err := d.db.Exec(`INSERT OR REPLACE INTO recent_lookups (query, searched_at) VALUES (?, ?)`,
		query, time.Now().UnixNano()); err != nil {
		return err
	}
	_, err := d.db.Exec(`DELETE FROM recent_lookups WHERE query NOT IN
		(SELECT query FROM recent_lookups ORDER BY searched_at DESC LIMIT ?)`, max)
	return err
}

// RecentLookups returns recent queries, newest first.
func (d *DB) RecentLookups(limit int) ([]string, error) {
	rows, err := d.db.Query(`SELECT query FROM recent_lookups ORDER BY searched_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
