package vehicles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/cache"
	"github.com/fragmede/ativo/internal/config"
	"github.com/fragmede/ativo/internal/listing"
	"github.com/fragmede/ativo/internal/render"
	"github.com/fragmede/ativo/internal/ui/badge"
	"github.com/fragmede/ativo/internal/ui/messages"
)

const (
	fleetList = "fleet"
	listTTL   = 2 * time.Minute
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Padding(0, 1)
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#333333")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	columnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true)
)

// statusCycle is the order the status filter steps through; "" is all.
var statusCycle = []api.VehicleStatus{"", api.StatusAwaiting, api.StatusInProgress, api.StatusLate, api.StatusDone}

// Source is the data access the view needs.
type Source interface {
	ListVehicles(ctx context.Context) ([]api.Vehicle, error)
	ListWorkshops(ctx context.Context) ([]api.Workshop, error)
	UpdateVehicleStatus(ctx context.Context, id int64, status api.VehicleStatus) (*api.Vehicle, error)
	ListUpdates(ctx context.Context, vehicleID int64) ([]api.Update, error)
}

// Model is the vehicle list with local filters and pagination.
type Model struct {
	all       []api.Vehicle
	workshops []api.Workshop
	filter    listing.Filter
	page      int
	cursor    int
	perPage   int

	search    textinput.Model
	searching bool
	detail    *Detail

	loading  bool
	updating bool
	cached   bool
	err      string

	client Source
	cache  *cache.DB
	width  int
	height int
}

// New creates the vehicle list. db may be nil.
func New(cfg config.Config, client Source, db *cache.DB) Model {
	search := textinput.New()
	search.Placeholder = "plate or model"
	search.Width = 24

	return Model{
		page:    1,
		perPage: cfg.PageSize,
		search:  search,
		loading: true,
		client:  client,
		cache:   db,
	}
}

// Init loads the fleet, preferring a fresh cached copy.
func (m Model) Init() tea.Cmd {
	return load(m.client, m.cache, false)
}

func load(client Source, db *cache.DB, force bool) tea.Cmd {
	return func() tea.Msg {
		var stale []api.Vehicle
		if db != nil && !force {
			vs, fresh, _ := db.GetVehicleList(fleetList, listTTL)
			if fresh && len(vs) > 0 {
				ws, _ := client.ListWorkshops(context.Background())
				return messages.VehiclesLoadedMsg{Vehicles: vs, Workshops: ws, Cached: true}
			}
			stale = vs
		}

		ctx := context.Background()
		vs, err := client.ListVehicles(ctx)
		if err != nil {
			if len(stale) > 0 {
				return messages.VehiclesLoadedMsg{Vehicles: stale, Cached: true}
			}
			return messages.VehiclesLoadedMsg{Err: err}
		}
		ws, err := client.ListWorkshops(ctx)
		if err != nil {
			return messages.VehiclesLoadedMsg{Err: err}
		}
		if db != nil {
			db.PutVehicleList(fleetList, vs)
		}
		return messages.VehiclesLoadedMsg{Vehicles: vs, Workshops: ws}
	}
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	if m.detail != nil {
		m.detail.SetSize(w, h)
	}
}

// Capturing reports whether the view consumes every key.
func (m Model) Capturing() bool {
	return m.searching || m.detail != nil
}

// Filter returns the active filter.
func (m Model) Filter() listing.Filter {
	return m.filter
}

// Page returns the page currently shown.
func (m Model) Page() listing.Page[api.Vehicle] {
	return listing.Paginate(listing.Apply(m.all, m.filter), m.page, m.perPage)
}

// Selected returns the vehicle under the cursor.
func (m Model) Selected() (api.Vehicle, bool) {
	p := m.Page()
	if m.cursor < 0 || m.cursor >= len(p.Items) {
		return api.Vehicle{}, false
	}
	return p.Items[m.cursor], true
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.VehiclesLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = "Error: " + msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.all = msg.Vehicles
		if msg.Workshops != nil {
			m.workshops = msg.Workshops
		}
		m.cached = msg.Cached
		m.clamp()
		return m, nil

	case messages.VehicleUpdatedMsg:
		m.updating = false
		if msg.Err != nil {
			return m, status("Status update failed: "+msg.Err.Error(), true)
		}
		m.replace(*msg.Vehicle)
		if m.detail != nil && m.detail.vehicle.ID == msg.Vehicle.ID {
			m.detail.vehicle = *msg.Vehicle
			m.detail.rebuild()
		}
		all, db, v := m.all, m.cache, *msg.Vehicle
		return m, tea.Batch(
			status(fmt.Sprintf("%s is now %s", v.Plate, badge.Label(v.Status)), false),
			func() tea.Msg {
				if db != nil {
					db.PutVehicle(&v)
					db.PutVehicleList(fleetList, all)
				}
				return nil
			},
		)

	case messages.UpdatesLoadedMsg:
		if m.detail != nil {
			d := *m.detail
			d, cmd := d.Update(msg)
			m.detail = &d
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.detail != nil {
			if msg.String() == "esc" || msg.String() == "q" {
				m.detail = nil
				return m, nil
			}
			if msg.String() == "s" {
				return m.advance(m.detail.vehicle)
			}
			d := *m.detail
			d, cmd := d.Update(msg)
			m.detail = &d
			return m, cmd
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		m.applyText(m.search.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// applyText routes free text to the plate filter when it looks like a
// plate and to the model filter otherwise.
func (m *Model) applyText(text string) {
	text = strings.TrimSpace(text)
	m.filter.Plate, m.filter.Model = "", ""
	if text != "" {
		if looksLikePlate(text) {
			m.filter.Plate = text
		} else {
			m.filter.Model = text
		}
	}
	m.page, m.cursor = 1, 0
}

func looksLikePlate(s string) bool {
	p := api.NormalizePlate(s)
	if p == "" || len(p) > 7 {
		return false
	}
	for _, r := range p {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	page := m.Page()
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(page.Items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "n", "right", "pgdown":
		if m.page < page.Total {
			m.page++
			m.cursor = 0
		}
	case "p", "left", "pgup":
		if m.page > 1 {
			m.page--
			m.cursor = 0
		}
	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case "f":
		m.filter.Status = nextStatus(m.filter.Status)
		m.page, m.cursor = 1, 0
	case "w":
		m.filter.WorkshopID = m.nextWorkshop()
		m.page, m.cursor = 1, 0
	case "c":
		m.filter = listing.Filter{}
		m.search.SetValue("")
		m.page, m.cursor = 1, 0
	case "r", "ctrl+r":
		m.loading = true
		return m, load(m.client, m.cache, true)
	case "s":
		if v, ok := m.Selected(); ok {
			return m.advance(v)
		}
	case "enter":
		if v, ok := m.Selected(); ok {
			d := NewDetail(v, m.client)
			d.SetSize(m.width, m.height)
			m.detail = &d
			return m, d.Init()
		}
	}
	return m, nil
}

// advance moves v to its next status. Finished vehicles stay put.
func (m Model) advance(v api.Vehicle) (Model, tea.Cmd) {
	if m.updating {
		return m, nil
	}
	next, ok := v.Status.Next()
	if !ok {
		return m, status(v.Plate+" is already finished", false)
	}
	m.updating = true
	client := m.client
	return m, func() tea.Msg {
		updated, err := client.UpdateVehicleStatus(context.Background(), v.ID, next)
		return messages.VehicleUpdatedMsg{Vehicle: updated, Err: err}
	}
}

func (m *Model) replace(v api.Vehicle) {
	for i := range m.all {
		if m.all[i].ID == v.ID {
			if v.Workshop == nil {
				v.Workshop = m.all[i].Workshop
			}
			m.all[i] = v
			return
		}
	}
}

func (m *Model) clamp() {
	p := m.Page()
	m.page = p.Number
	if m.cursor >= len(p.Items) {
		m.cursor = len(p.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func nextStatus(cur api.VehicleStatus) api.VehicleStatus {
	for i, s := range statusCycle {
		if s == cur {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return ""
}

func (m Model) nextWorkshop() int64 {
	if len(m.workshops) == 0 {
		return 0
	}
	if m.filter.WorkshopID == 0 {
		return m.workshops[0].ID
	}
	for i, w := range m.workshops {
		if w.ID == m.filter.WorkshopID && i+1 < len(m.workshops) {
			return m.workshops[i+1].ID
		}
	}
	return 0
}

func (m Model) workshopName(id int64) string {
	for _, w := range m.workshops {
		if w.ID == id {
			return w.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return messages.StatusMsg{Text: text, IsError: isError} }
}

// View renders the list or the open detail.
func (m Model) View() string {
	if m.detail != nil {
		return m.detail.View()
	}

	var sb strings.Builder
	title := "Vehicles"
	if m.loading {
		title += " (loading...)"
	} else if m.cached {
		title += " (cached)"
	}
	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n")
	sb.WriteString(metaStyle.Render(" " + m.filterLine()))
	sb.WriteString("\n")
	if m.searching {
		sb.WriteString(" / " + m.search.View() + "\n")
	}
	sb.WriteString("\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(" " + m.err))
		sb.WriteString("\n")
		return sb.String()
	}

	page := m.Page()
	if len(page.Items) == 0 && !m.loading {
		sb.WriteString(metaStyle.Render(" No vehicles match the current filters."))
		sb.WriteString("\n")
	}

	now := time.Now()
	sb.WriteString(columnStyle.Render(fmt.Sprintf(" %-8s %-22s %-18s %5s", "Plate", "Model", "Workshop", "Days")))
	sb.WriteString("\n")
	for i, v := range page.Items {
		line := fmt.Sprintf(" %-8s %-22s %-18s %5d ",
			v.Plate,
			render.Truncate(v.Model, 22),
			render.Truncate(v.WorkshopName(), 18),
			listing.DaysSince(v.EnteredAt.Time, now))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		sb.WriteString(line + badge.Vehicle(v.Status) + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(metaStyle.Render(fmt.Sprintf(" Page %d/%d  j/k move  n/p page  / search  f status  w workshop  c clear  s advance  enter detail",
		page.Number, page.Total)))
	return sb.String()
}

func (m Model) filterLine() string {
	if m.filter.Empty() {
		return "All vehicles"
	}
	var parts []string
	if m.filter.Plate != "" {
		parts = append(parts, "plate ~ "+m.filter.Plate)
	}
	if m.filter.Model != "" {
		parts = append(parts, "model ~ "+m.filter.Model)
	}
	if m.filter.WorkshopID != 0 {
		parts = append(parts, "workshop: "+m.workshopName(m.filter.WorkshopID))
	}
	if m.filter.Status != "" {
		parts = append(parts, "status: "+badge.Label(m.filter.Status))
	}
	return strings.Join(parts, " | ")
}
