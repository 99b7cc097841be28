package fakebackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// Tables readable without signing in. Everything else needs a user token.
var publicTables = map[string]bool{
	"veiculos":     true,
	"atualizacoes": true,
	"oficinas":     true,
}

// uniqueColumns names the column each table keeps unique.
var uniqueColumns = map[string]string{
	"veiculos": "placa",
}

var reservedParams = map[string]bool{"select": true, "order": true, "limit": true, "offset": true}

// Seed appends rows to a table. Rows without an id get the next one.
func (s *Server) Seed(table string, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		r := make(map[string]any, len(row))
		for k, v := range row {
			r[k] = v
		}
		if id, ok := toInt(r["id"]); ok {
			if id > s.nextID[table] {
				s.nextID[table] = id
			}
		} else {
			s.nextID[table]++
			r["id"] = s.nextID[table]
		}
		s.tables[table] = append(s.tables[table], r)
	}
}

// Rows returns a copy of a table's rows.
func (s *Server) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		out = append(out, copyRow(row))
	}
	return out
}

// UserID returns the id of a registered user.
func (s *Server) UserID(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return "", false
	}
	return u.id, true
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request, table string, write bool) bool {
	tok := bearer(r)
	if tok == s.opts.AnonKey || tok == "" {
		if !write && publicTables[table] {
			return true
		}
		restError(w, http.StatusUnauthorized, "42501", fmt.Sprintf("permission denied for table %s", table))
		return false
	}
	if _, err := s.verify(tok); err != nil {
		restError(w, http.StatusUnauthorized, "PGRST301", "JWT expired or invalid")
		return false
	}
	return true
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	if !s.authorize(w, r, table, false) {
		return
	}
	q := r.URL.Query()

	s.mu.Lock()
	rows, ok := s.tables[table]
	var out []map[string]any
	if ok {
		for _, row := range rows {
			if matches(row, q) {
				out = append(out, s.shapeLocked(table, row, q.Get("select")))
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		restError(w, http.StatusNotFound, "42P01", fmt.Sprintf("relation \"public.%s\" does not exist", table))
		return
	}

	if order := q.Get("order"); order != "" {
		sortRows(out, order)
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	if out == nil {
		out = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	if !s.authorize(w, r, table, true) {
		return
	}
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		restError(w, http.StatusBadRequest, "PGRST102", "Empty or invalid json")
		return
	}
	q := r.URL.Query()

	s.mu.Lock()
	var out []map[string]any
	for _, row := range s.tables[table] {
		if !matches(row, q) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		out = append(out, s.shapeLocked(table, row, q.Get("select")))
	}
	s.mu.Unlock()

	if !strings.Contains(r.Header.Get("Prefer"), "return=representation") {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if out == nil {
		out = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	if !s.authorize(w, r, table, true) {
		return
	}
	rows, err := decodeRows(r)
	if err != nil {
		restError(w, http.StatusBadRequest, "PGRST102", "Empty or invalid json")
		return
	}
	sel := r.URL.Query().Get("select")

	s.mu.Lock()
	if _, ok := s.tables[table]; !ok {
		s.mu.Unlock()
		restError(w, http.StatusNotFound, "42P01", fmt.Sprintf("relation \"public.%s\" does not exist", table))
		return
	}
	if col, ok := uniqueColumns[table]; ok {
		for _, row := range rows {
			if s.existsLocked(table, col, row[col]) {
				s.mu.Unlock()
				restError(w, http.StatusConflict, "23505",
					fmt.Sprintf("duplicate key value violates unique constraint \"%s_%s_key\"", table, col))
				return
			}
		}
	}
	now := s.now().UTC().Format(time.RFC3339)
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		delete(row, "id")
		s.nextID[table]++
		row["id"] = s.nextID[table]
		if _, ok := row["created_at"]; !ok {
			row["created_at"] = now
		}
		s.tables[table] = append(s.tables[table], row)
		out = append(out, s.shapeLocked(table, row, sel))
	}
	s.mu.Unlock()

	if !strings.Contains(r.Header.Get("Prefer"), "return=representation") {
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// decodeRows accepts a single object or an array of objects.
func decodeRows(r *http.Request) ([]map[string]any, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, err
		}
		rows = []map[string]any{row}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows")
	}
	return rows, nil
}

func (s *Server) existsLocked(table, col string, v any) bool {
	for _, row := range s.tables[table] {
		if fmt.Sprint(row[col]) == fmt.Sprint(v) {
			return true
		}
	}
	return false
}

// shapeLocked copies a row and resolves the oficina embed when selected.
func (s *Server) shapeLocked(table string, row map[string]any, sel string) map[string]any {
	out := copyRow(row)
	if table == "veiculos" && strings.Contains(sel, "oficina:oficinas(") {
		wid, _ := toInt(row["oficina_id"])
		for _, w := range s.tables["oficinas"] {
			if id, _ := toInt(w["id"]); id == wid {
				out["oficina"] = map[string]any{"nome": w["nome"]}
				break
			}
		}
	}
	return out
}

// matches applies eq. and ilike. filters from the query string.
func matches(row map[string]any, q url.Values) bool {
	for col, vals := range q {
		if reservedParams[col] {
			continue
		}
		for _, v := range vals {
			op, arg, ok := strings.Cut(v, ".")
			if !ok {
				return false
			}
			cell := fmt.Sprint(row[col])
			if row[col] == nil {
				cell = "null"
			}
			switch op {
			case "eq":
				if cell != arg {
					return false
				}
			case "neq":
				if cell == arg {
					return false
				}
			case "ilike":
				needle := strings.ToLower(strings.Trim(arg, "*%"))
				if !strings.Contains(strings.ToLower(cell), needle) {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}

func sortRows(rows []map[string]any, order string) {
	col, dir, _ := strings.Cut(order, ".")
	desc := strings.HasPrefix(dir, "desc")
	sort.SliceStable(rows, func(i, j int) bool {
		less := lessValue(rows[i][col], rows[j][col])
		if desc {
			return lessValue(rows[j][col], rows[i][col])
		}
		return less
	})
}

func lessValue(a, b any) bool {
	ai, aok := toInt(a)
	bi, bok := toInt(b)
	if aok && bok {
		return ai < bi
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), n == float64(int64(n))
	}
	return 0, false
}

func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
