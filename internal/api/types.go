package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// VehicleStatus is the repair progress of a vehicle.
type VehicleStatus string

const (
	StatusAwaiting   VehicleStatus = "aguardando"
	StatusInProgress VehicleStatus = "em_andamento"
	StatusDone       VehicleStatus = "finalizado"
	StatusLate       VehicleStatus = "atrasado"
)

// Next returns the status a vehicle advances to from s. Late vehicles resume
// as in progress; finished vehicles do not advance.
func (s VehicleStatus) Next() (VehicleStatus, bool) {
	switch s {
	case StatusAwaiting, StatusLate:
		return StatusInProgress, true
	case StatusInProgress:
		return StatusDone, true
	}
	return s, false
}

// ApprovalStatus is the review state of a feedback or an inspection.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pendente"
	ApprovalApproved ApprovalStatus = "aprovado"
	ApprovalRejected ApprovalStatus = "rejeitado"
)

// InspectionStatus uses the inspection column's own vocabulary.
type InspectionStatus string

const (
	InspectionPending  InspectionStatus = "pending"
	InspectionApproved InspectionStatus = "approved"
	InspectionRejected InspectionStatus = "rejected"
)

// Date decodes both date-only and full timestamp columns.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	_, err := time.Parse(time.RFC3339, s)
	return err
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.RFC3339))
}

// WorkshopRef is the embedded workshop name on vehicle rows.
type WorkshopRef struct {
	Name string `json:"nome"`
}

// Vehicle is a row of the veiculos table.
type Vehicle struct {
	ID               int64            `json:"id"`
	Plate            string           `json:"placa"`
	Model            string           `json:"modelo"`
	Chassis          string           `json:"chassi"`
	Renavam          string           `json:"renavam"`
	CustomerDocument string           `json:"cpf_cnpj_cliente"`
	CustomerName     string           `json:"nome_cliente"`
	CustomerPhone    string           `json:"telefone_cliente"`
	FipeValue        float64          `json:"valor_fipe"`
	WorkshopID       int64            `json:"oficina_id"`
	ThirdParty       bool             `json:"is_terceiro"`
	ConsultantName   string           `json:"nome_consultor"`
	Status           VehicleStatus    `json:"status"`
	InspectionStatus InspectionStatus `json:"inspection_status"`
	EnteredAt        Date             `json:"data_entrada"`
	LeftAt           *Date            `json:"data_saida"`
	CreatedAt        Date             `json:"created_at"`
	UpdatedAt        Date             `json:"updated_at"`
	Workshop         *WorkshopRef     `json:"oficina,omitempty"`
}

// WorkshopName returns the embedded workshop name, or "" when absent.
func (v *Vehicle) WorkshopName() string {
	if v.Workshop == nil {
		return ""
	}
	return v.Workshop.Name
}

// WorkshopStatus is a partner workshop's standing.
type WorkshopStatus string

const (
	WorkshopActive   WorkshopStatus = "ativa"
	WorkshopIdle     WorkshopStatus = "ociosa"
	WorkshopInReview WorkshopStatus = "analise"
)

// WorkshopStatuses lists the statuses in display order.
var WorkshopStatuses = []WorkshopStatus{WorkshopActive, WorkshopIdle, WorkshopInReview}

// Workshop is a row of the oficinas table.
type Workshop struct {
	ID      int64          `json:"id"`
	Name    string         `json:"nome"`
	CNPJ    string         `json:"cnpj"`
	Address string         `json:"endereco"`
	City    string         `json:"cidade"`
	State   string         `json:"estado"`
	Phone   string         `json:"telefone"`
	Email   string         `json:"email"`
	Manager string         `json:"responsavel"`
	Status  WorkshopStatus `json:"status"`
}

// Validate reports the required workshop fields left empty.
func (w Workshop) Validate() error {
	return required(map[string]string{
		"name":    w.Name,
		"cnpj":    w.CNPJ,
		"phone":   w.Phone,
		"address": w.Address,
		"manager": w.Manager,
	})
}

// VehicleDraft is a vehicle being registered at intake.
type VehicleDraft struct {
	Plate            string
	Model            string
	Chassis          string
	Renavam          string
	CustomerDocument string
	CustomerName     string
	CustomerPhone    string
	FipeValue        float64
	WorkshopID       int64
	Consultant       string
	ThirdParty       bool
}

// Validate reports the required intake fields left empty.
func (d VehicleDraft) Validate() error {
	workshop := ""
	if d.WorkshopID > 0 {
		workshop = "set"
	}
	return required(map[string]string{
		"plate":      NormalizePlate(d.Plate),
		"renavam":    d.Renavam,
		"workshop":   workshop,
		"consultant": d.Consultant,
	})
}

// InspectionEntry is the entry inspection recorded when a vehicle arrives
// (vistorias_entrada table).
type InspectionEntry struct {
	ID               int64            `json:"id,omitempty"`
	VehicleID        int64            `json:"veiculo_id"`
	SafetyKitPresent bool             `json:"kit_seguranca_presente"`
	SafetyKitNotes   string           `json:"kit_seguranca_descricao"`
	WithIgnitionKey  bool             `json:"com_chave_ignicao"`
	Notes            string           `json:"observacoes"`
	VideoNotes       string           `json:"video_descricao"`
	InspectedAt      Date             `json:"data_vistoria"`
	Status           InspectionStatus `json:"status"`
}

// Update is a progress note on a vehicle (atualizacoes table). Description
// may hold HTML.
type Update struct {
	ID          int64         `json:"id"`
	VehicleID   int64         `json:"veiculo_id"`
	Description string        `json:"descricao"`
	Status      VehicleStatus `json:"status"`
	DueDate     *Date         `json:"data_prevista"`
	CreatedAt   Date          `json:"created_at"`
}

// Feedback is a customer review awaiting moderation (feedbacks table).
type Feedback struct {
	ID             int64          `json:"id"`
	VehicleID      int64          `json:"veiculo_id"`
	Rating         int            `json:"avaliacao"`
	Comment        string         `json:"comentario"`
	PublishAllowed bool           `json:"autoriza_publicacao"`
	Status         ApprovalStatus `json:"status"`
	Date           Date           `json:"data"`
}

// Dashboard is the data behind the admin overview.
type Dashboard struct {
	Vehicles         []Vehicle
	Workshops        []Workshop
	PendingFeedbacks []Feedback
}

// required returns ErrIncomplete naming every blank field, or nil.
func required(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(missing, ", "))
}
