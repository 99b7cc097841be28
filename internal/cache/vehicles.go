package cache

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/fragmede/ativo/internal/api"
)

// GetVehicleByPlate retrieves a cached vehicle. Returns (vehicle, isFresh,
// error); vehicle is nil on cache miss.
func (d *DB) GetVehicleByPlate(plate string, ttl time.Duration) (*api.Vehicle, bool, error) {
	row := d.db.QueryRow(`SELECT payload, fetched_at FROM vehicles WHERE plate = ?
		ORDER BY fetched_at DESC LIMIT 1`, api.NormalizePlate(plate))

	var payload string
	var fetchedAt int64
	err := row.Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var v api.Vehicle
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, false, err
	}
	isFresh := time.Since(time.Unix(fetchedAt, 0)) < ttl
	return &v, isFresh, nil
}

// PutVehicle stores a vehicle in the cache.
func (d *DB) PutVehicle(v *api.Vehicle) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`INSERT OR REPLACE INTO vehicles (id, plate, document, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)`,
		v.ID, api.NormalizePlate(v.Plate), nullStr(api.NormalizeDocument(v.CustomerDocument)),
		string(payload), time.Now().Unix())
	return err
}

// GetVehicleList retrieves a cached table read such as the fleet list.
// Returns (vehicles, isFresh, error); vehicles is nil on cache miss.
func (d *DB) GetVehicleList(listType string, ttl time.Duration) ([]api.Vehicle, bool, error) {
	row := d.db.QueryRow(`SELECT payload, fetched_at FROM table_lists WHERE list_type = ?`, listType)

	var payload string
	var fetchedAt int64
	err := row.Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var vs []api.Vehicle
	if err := json.Unmarshal([]byte(payload), &vs); err != nil {
		return nil, false, err
	}
	isFresh := time.Since(time.Unix(fetchedAt, 0)) < ttl
	return vs, isFresh, nil
}

// PutVehicleList stores a table read in the cache.
func (d *DB) PutVehicleList(listType string, vs []api.Vehicle) error {
	payload, err := json.Marshal(vs)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`INSERT OR REPLACE INTO table_lists (list_type, payload, fetched_at) VALUES (?, ?, ?)`,
		listType, string(payload), time.Now().Unix())
	return err
}

// ForgetTables drops every cached table read. Called on sign-out so the next
// user does not see the previous user's data.
func (d *DB) ForgetTables() error {
	if _, err := d.db.Exec(`DELETE FROM table_lists`); err != nil {
		return err
	}
	_, err := d.db.Exec(`DELETE FROM pending_counts`)
	return err
}
