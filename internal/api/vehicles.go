package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const vehicleSelect = "*,oficina:oficinas(nome)"

// ListVehicles returns every vehicle, newest first.
func (c *Client) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	var out []Vehicle
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/veiculos",
		query: url.Values{
			"select": {vehicleSelect},
			"order":  {"created_at.desc"},
		},
	}, &out)
	return out, err
}

// ListVehiclesByStatus returns the vehicles in one status, oldest entry
// first.
func (c *Client) ListVehiclesByStatus(ctx context.Context, status VehicleStatus) ([]Vehicle, error) {
	var out []Vehicle
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/veiculos",
		query: url.Values{
			"select": {vehicleSelect},
			"status": {"eq." + string(status)},
			"order":  {"data_entrada.asc"},
		},
	}, &out)
	return out, err
}

// GetVehicleByPlate returns the vehicle with the given plate. Plates are
// compared after NormalizePlate.
func (c *Client) GetVehicleByPlate(ctx context.Context, plate string) (*Vehicle, error) {
	plate = NormalizePlate(plate)
	if plate == "" {
		return nil, ErrNotFound
	}
	var out []Vehicle
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/veiculos",
		query: url.Values{
			"select": {vehicleSelect},
			"placa":  {"eq." + plate},
			"limit":  {"1"},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// FindVehiclesByDocument returns the vehicles of a customer CPF/CNPJ.
func (c *Client) FindVehiclesByDocument(ctx context.Context, document string) ([]Vehicle, error) {
	document = NormalizeDocument(document)
	if document == "" {
		return nil, ErrNotFound
	}
	var out []Vehicle
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/veiculos",
		query: url.Values{
			"select":           {vehicleSelect},
			"cpf_cnpj_cliente": {"eq." + document},
			"order":            {"data_entrada.desc"},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// LookupVehicles resolves a public lookup query. Inputs of 11 or 14 digits
// are treated as CPF/CNPJ, anything else as a plate.
func (c *Client) LookupVehicles(ctx context.Context, query string) ([]Vehicle, error) {
	if IsDocument(query) {
		return c.FindVehiclesByDocument(ctx, query)
	}
	v, err := c.GetVehicleByPlate(ctx, query)
	if err != nil {
		return nil, err
	}
	return []Vehicle{*v}, nil
}

// UpdateVehicleStatus sets a vehicle's status. Finishing a vehicle also
// stamps its exit date.
func (c *Client) UpdateVehicleStatus(ctx context.Context, id int64, status VehicleStatus) (*Vehicle, error) {
	patch := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if status == StatusDone {
		patch["data_saida"] = time.Now().UTC().Format(time.RFC3339)
	}
	return c.patchVehicle(ctx, id, patch)
}

// CreateVehicle registers a vehicle arriving at a workshop. It starts out
// awaiting service with no inspection recorded.
func (c *Client) CreateVehicle(ctx context.Context, d VehicleDraft) (*Vehicle, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	consultant := strings.TrimSpace(d.Consultant)
	row := map[string]any{
		"placa":            NormalizePlate(d.Plate),
		"modelo":           strings.TrimSpace(d.Model),
		"chassi":           strings.ToUpper(strings.TrimSpace(d.Chassis)),
		"renavam":          strings.TrimSpace(d.Renavam),
		"cpf_cnpj_cliente": NormalizeDocument(d.CustomerDocument),
		"nome_cliente":     strings.TrimSpace(d.CustomerName),
		"telefone_cliente": strings.TrimSpace(d.CustomerPhone),
		"valor_fipe":       d.FipeValue,
		"oficina_id":       d.WorkshopID,
		"consultor_id":     consultant,
		"nome_consultor":   consultant,
		"is_terceiro":      d.ThirdParty,
		"status":           StatusAwaiting,
		"data_entrada":     time.Now().UTC().Format("2006-01-02"),
	}
	var v Vehicle
	if err := c.insert(ctx, "veiculos", row, url.Values{"select": {vehicleSelect}}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateInspectionEntry records a vehicle's entry inspection and queues the
// vehicle for inspection approval.
func (c *Client) CreateInspectionEntry(ctx context.Context, e InspectionEntry) (*Vehicle, error) {
	if e.VehicleID <= 0 {
		return nil, fmt.Errorf("%w: vehicle", ErrIncomplete)
	}
	e.ID = 0
	e.Status = InspectionPending
	if e.InspectedAt.IsZero() {
		e.InspectedAt = Date{time.Now().UTC()}
	}
	if err := c.insert(ctx, "vistorias_entrada", e, nil, nil); err != nil {
		return nil, fmt.Errorf("recording inspection: %w", err)
	}
	v, err := c.SetInspectionStatus(ctx, e.VehicleID, InspectionPending)
	if err != nil {
		return nil, fmt.Errorf("queueing inspection for approval: %w", err)
	}
	return v, nil
}

// SetInspectionStatus approves or rejects a vehicle's entry inspection.
func (c *Client) SetInspectionStatus(ctx context.Context, id int64, status InspectionStatus) (*Vehicle, error) {
	return c.patchVehicle(ctx, id, map[string]any{"inspection_status": status})
}

// ListPendingInspections returns vehicles whose inspection awaits review.
func (c *Client) ListPendingInspections(ctx context.Context) ([]Vehicle, error) {
	var out []Vehicle
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/veiculos",
		query: url.Values{
			"select":            {vehicleSelect},
			"inspection_status": {"eq." + string(InspectionPending)},
			"order":             {"data_entrada.asc"},
		},
	}, &out)
	return out, err
}

// ListUpdates returns the progress notes of a vehicle, oldest first.
func (c *Client) ListUpdates(ctx context.Context, vehicleID int64) ([]Update, error) {
	var out []Update
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/atualizacoes",
		query: url.Values{
			"veiculo_id": {"eq." + strconv.FormatInt(vehicleID, 10)},
			"order":      {"created_at.asc"},
		},
	}, &out)
	return out, err
}

func (c *Client) patchVehicle(ctx context.Context, id int64, patch map[string]any) (*Vehicle, error) {
	var out []Vehicle
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/rest/v1/veiculos",
		query: url.Values{
			"id":     {"eq." + strconv.FormatInt(id, 10)},
			"select": {vehicleSelect},
		},
		body:   patch,
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

// NormalizePlate uppercases a plate and strips separators.
func NormalizePlate(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeDocument keeps only the digits of a CPF/CNPJ.
func NormalizeDocument(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsDocument reports whether s looks like a CPF (11 digits) or CNPJ (14).
func IsDocument(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return false
		}
	}
	n := len(NormalizeDocument(s))
	return n == 11 || n == 14
}
