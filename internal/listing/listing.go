// Package listing filters, paginates and summarizes vehicle lists for the
// admin views.
package listing

import (
	"strings"
	"time"

	"github.com/fragmede/ativo/internal/api"
)

// Filter narrows a vehicle list. Zero fields match everything.
type Filter struct {
	// Plate and Model are case-insensitive substring matches.
	Plate      string
	Model      string
	WorkshopID int64
	Status     api.VehicleStatus
}

// Empty reports whether f matches everything.
func (f Filter) Empty() bool {
	return f == Filter{}
}

// Match reports whether v passes the filter.
func (f Filter) Match(v api.Vehicle) bool {
	if f.Plate != "" && !strings.Contains(api.NormalizePlate(v.Plate), api.NormalizePlate(f.Plate)) {
		return false
	}
	if f.Model != "" && !strings.Contains(strings.ToLower(v.Model), strings.ToLower(strings.TrimSpace(f.Model))) {
		return false
	}
	if f.WorkshopID != 0 && v.WorkshopID != f.WorkshopID {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	return true
}

// Apply returns the vehicles matching f, keeping order.
func Apply(vs []api.Vehicle, f Filter) []api.Vehicle {
	if f.Empty() {
		return vs
	}
	out := make([]api.Vehicle, 0, len(vs))
	for _, v := range vs {
		if f.Match(v) {
			out = append(out, v)
		}
	}
	return out
}

// AwaitingInspection returns the vehicles whose inspection is not approved.
func AwaitingInspection(vs []api.Vehicle) []api.Vehicle {
	var out []api.Vehicle
	for _, v := range vs {
		if v.InspectionStatus != api.InspectionApproved {
			out = append(out, v)
		}
	}
	return out
}

// NeedsInspection returns the vehicles with no entry inspection on record
// yet, or whose last one was rejected.
func NeedsInspection(vs []api.Vehicle) []api.Vehicle {
	var out []api.Vehicle
	for _, v := range vs {
		if v.InspectionStatus == "" || v.InspectionStatus == api.InspectionRejected {
			out = append(out, v)
		}
	}
	return out
}

// Page is one page of a list.
type Page[T any] struct {
	Items []T
	// Number is 1-based and clamped to [1, Total].
	Number int
	// Total is at least 1, even for an empty list.
	Total int
}

// Paginate returns page number n of items with perPage entries per page.
func Paginate[T any](items []T, n, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = 10
	}
	total := (len(items) + perPage - 1) / perPage
	if total < 1 {
		total = 1
	}
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	start := (n - 1) * perPage
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return Page[T]{Items: items[start:end], Number: n, Total: total}
}

// DaysSince returns whole days from t to now, never negative.
func DaysSince(t, now time.Time) int {
	if t.IsZero() || now.Before(t) {
		return 0
	}
	return int(now.Sub(t).Hours() / 24)
}

// Summary is the dashboard's headline numbers.
type Summary struct {
	Total      int
	ByStatus   map[api.VehicleStatus]int
	ThirdParty int
	// AvgDays is the mean time in the workshop of unfinished vehicles.
	AvgDays          float64
	PendingFeedbacks int
	// PerWorkshop counts vehicles by workshop id.
	PerWorkshop map[int64]int
}

// Summarize computes dashboard numbers for the loaded tables.
func Summarize(d *api.Dashboard, now time.Time) Summary {
	s := Summary{
		ByStatus:    make(map[api.VehicleStatus]int),
		PerWorkshop: make(map[int64]int),
	}
	if d == nil {
		return s
	}
	var days, open int
	for _, v := range d.Vehicles {
		s.Total++
		s.ByStatus[v.Status]++
		s.PerWorkshop[v.WorkshopID]++
		if v.ThirdParty {
			s.ThirdParty++
		}
		if v.Status != api.StatusDone {
			days += DaysSince(v.EnteredAt.Time, now)
			open++
		}
	}
	if open > 0 {
		s.AvgDays = float64(days) / float64(open)
	}
	s.PendingFeedbacks = len(d.PendingFeedbacks)
	return s
}
