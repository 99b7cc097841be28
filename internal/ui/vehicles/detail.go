package vehicles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/listing"
	"github.com/fragmede/ativo/internal/render"
	"github.com/fragmede/ativo/internal/ui/badge"
	"github.com/fragmede/ativo/internal/ui/messages"
)

var (
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")).Width(14)
	updateMetaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true)
	separatorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
)

const dateLayout = "02/01/2006"

// Detail shows one vehicle and its update timeline.
type Detail struct {
	viewport viewport.Model
	vehicle  api.Vehicle
	updates  []api.Update
	client   Source
	loading  bool
	err      string
	width    int
	height   int
}

// NewDetail creates the detail view for v.
func NewDetail(v api.Vehicle, client Source) Detail {
	vp := viewport.New(0, 0)
	d := Detail{
		viewport: vp,
		vehicle:  v,
		client:   client,
		loading:  true,
	}
	d.rebuild()
	return d
}

// Init loads the update timeline.
func (d Detail) Init() tea.Cmd {
	client := d.client
	id := d.vehicle.ID
	return func() tea.Msg {
		ups, err := client.ListUpdates(context.Background(), id)
		return messages.UpdatesLoadedMsg{VehicleID: id, Updates: ups, Err: err}
	}
}

// SetSize updates viewport dimensions.
func (d *Detail) SetSize(w, h int) {
	d.width = w
	d.height = h
	d.viewport.Width = w
	d.viewport.Height = h - 1
	if d.viewport.Height < 1 {
		d.viewport.Height = 1
	}
	d.rebuild()
}

// Update handles messages.
func (d Detail) Update(msg tea.Msg) (Detail, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.UpdatesLoadedMsg:
		if msg.VehicleID != d.vehicle.ID {
			return d, nil
		}
		d.loading = false
		if msg.Err != nil {
			d.err = "Error loading updates: " + msg.Err.Error()
		} else {
			d.updates = msg.Updates
		}
		d.rebuild()
		return d, nil
	}

	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return d, cmd
}

func (d *Detail) rebuild() {
	d.viewport.SetContent(d.content())
}

func (d Detail) content() string {
	v := d.vehicle
	var sb strings.Builder
	row := func(label, value string) {
		if value == "" {
			value = "-"
		}
		sb.WriteString(labelStyle.Render(label) + value + "\n")
	}

	sb.WriteString(headerStyle.Render(v.Plate+"  "+v.Model) + " " + badge.Vehicle(v.Status) + "\n\n")
	row("Workshop", v.WorkshopName())
	row("Customer", v.CustomerName)
	row("CPF/CNPJ", v.CustomerDocument)
	row("Phone", v.CustomerPhone)
	row("Chassis", v.Chassis)
	row("Renavam", v.Renavam)
	if v.FipeValue > 0 {
		row("FIPE value", fmt.Sprintf("R$ %.2f", v.FipeValue))
	}
	row("Third party", yesNo(v.ThirdParty))
	row("Inspection", badge.Approval(string(v.InspectionStatus)))
	if !v.EnteredAt.IsZero() {
		row("Entered", fmt.Sprintf("%s (%d days)", v.EnteredAt.Format(dateLayout),
			listing.DaysSince(v.EnteredAt.Time, time.Now())))
	}
	if v.LeftAt != nil && !v.LeftAt.IsZero() {
		row("Left", v.LeftAt.Format(dateLayout))
	}

	sb.WriteString("\n" + separatorStyle.Render(strings.Repeat("─", max(d.width, 20))) + "\n")
	sb.WriteString(headerStyle.Render("Updates") + "\n\n")
	switch {
	case d.err != "":
		sb.WriteString(errorStyle.Render(d.err))
	case d.loading:
		sb.WriteString(metaStyle.Render("Loading..."))
	default:
		sb.WriteString(Timeline(d.updates, d.width))
	}
	return sb.String()
}

// View renders the detail.
func (d Detail) View() string {
	help := metaStyle.Render(" j/k scroll  s advance status  esc back")
	return d.viewport.View() + "\n" + help
}

// Timeline renders updates oldest first with their notes as plain text.
func Timeline(updates []api.Update, width int) string {
	if len(updates) == 0 {
		return metaStyle.Render("No updates yet.")
	}
	wrap := width - 4
	if wrap < 20 {
		wrap = 60
	}
	var sb strings.Builder
	for i, u := range updates {
		if i > 0 {
			sb.WriteString("\n")
		}
		meta := u.CreatedAt.Format(dateLayout)
		if u.Status != "" {
			meta += "  " + badge.Label(u.Status)
		}
		if u.DueDate != nil && !u.DueDate.IsZero() {
			meta += "  due " + u.DueDate.Format(dateLayout)
		}
		sb.WriteString(updateMetaStyle.Render(meta) + "\n")
		for _, line := range strings.Split(render.NoteToText(u.Description, wrap), "\n") {
			sb.WriteString("  " + line + "\n")
		}
	}
	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
