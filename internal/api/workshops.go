package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

const workshopSelect = "id,nome,cnpj,endereco,cidade,estado,telefone,email,responsavel,status"

// ListWorkshops returns all workshops sorted by name.
func (c *Client) ListWorkshops(ctx context.Context) ([]Workshop, error) {
	var out []Workshop
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/oficinas",
		query: url.Values{
			"select": {workshopSelect},
			"order":  {"nome.asc"},
		},
	}, &out)
	return out, err
}

// SaveWorkshop inserts w when it has no id and updates it otherwise. It
// returns the stored row.
func (c *Client) SaveWorkshop(ctx context.Context, w Workshop) (*Workshop, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if w.Status == "" {
		w.Status = WorkshopActive
	}
	row := map[string]any{
		"nome":        strings.TrimSpace(w.Name),
		"cnpj":        strings.TrimSpace(w.CNPJ),
		"telefone":    strings.TrimSpace(w.Phone),
		"email":       nullable(w.Email),
		"endereco":    strings.TrimSpace(w.Address),
		"cidade":      nullable(w.City),
		"estado":      nullable(strings.ToUpper(w.State)),
		"responsavel": strings.TrimSpace(w.Manager),
		"status":      w.Status,
	}

	if w.ID == 0 {
		var out Workshop
		if err := c.insert(ctx, "oficinas", row, url.Values{"select": {workshopSelect}}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}

	var out []Workshop
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/rest/v1/oficinas",
		query: url.Values{
			"id":     {"eq." + strconv.FormatInt(w.ID, 10)},
			"select": {workshopSelect},
		},
		body:   row,
		header: http.Header{"Prefer": {"return=representation"}},
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// ListPendingFeedbacks returns customer feedbacks awaiting moderation.
func (c *Client) ListPendingFeedbacks(ctx context.Context) ([]Feedback, error) {
	var out []Feedback
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/feedbacks",
		query: url.Values{
			"status": {"eq." + string(ApprovalPending)},
			"order":  {"data.desc"},
		},
	}, &out)
	return out, err
}

// SetFeedbackStatus approves or rejects a feedback.
func (c *Client) SetFeedbackStatus(ctx context.Context, id int64, status ApprovalStatus) (*Feedback, error) {
	var out []Feedback
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/rest/v1/feedbacks",
		query:  url.Values{"id": {"eq." + strconv.FormatInt(id, 10)}},
		body:   map[string]any{"status": status},
		header: http.Header{"Prefer": {"return=representation"}},
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// PendingCounts returns how many feedbacks and inspections await review.
func (c *Client) PendingCounts(ctx context.Context) (feedbacks, inspections int, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fs, err := c.ListPendingFeedbacks(ctx)
		feedbacks = len(fs)
		return err
	})
	g.Go(func() error {
		vs, err := c.ListPendingInspections(ctx)
		inspections = len(vs)
		return err
	})
	err = g.Wait()
	return feedbacks, inspections, err
}

// LoadDashboard fetches the overview tables concurrently.
func (c *Client) LoadDashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	g.Go(func() error {
		vs, err := c.ListVehicles(ctx)
		if err != nil {
			return fmt.Errorf("vehicles: %w", err)
		}
		d.Vehicles = vs
		return nil
	})
	g.Go(func() error {
		ws, err := c.ListWorkshops(ctx)
		if err != nil {
			return fmt.Errorf("workshops: %w", err)
		}
		d.Workshops = ws
		return nil
	})
	g.Go(func() error {
		fs, err := c.ListPendingFeedbacks(ctx)
		if err != nil {
			return fmt.Errorf("feedbacks: %w", err)
		}
		d.PendingFeedbacks = fs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
