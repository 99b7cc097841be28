package approvals

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/ui/messages"
)

// Source is the data access the view needs.
type Source interface {
	ListPendingFeedbacks(ctx context.Context) ([]api.Feedback, error)
	ListPendingInspections(ctx context.Context) ([]api.Vehicle, error)
	SetFeedbackStatus(ctx context.Context, id int64, status api.ApprovalStatus) (*api.Feedback, error)
	SetInspectionStatus(ctx context.Context, id int64, status api.InspectionStatus) (*api.Vehicle, error)
}

// Model lists feedbacks and inspections awaiting review.
type Model struct {
	list      list.Model
	client    Source
	loading   bool
	reviewing bool
	width     int
	height    int
}

// New creates the approvals view.
func New(client Source) Model {
	l := list.New(nil, Delegate{}, 0, 0)
	l.Title = "Awaiting approval (loading...)"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	return Model{
		list:    l,
		client:  client,
		loading: true,
	}
}

// Init loads both queues.
func (m Model) Init() tea.Cmd {
	return load(m.client)
}

func load(client Source) tea.Cmd {
	return func() tea.Msg {
		var msg messages.ApprovalsLoadedMsg
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			fs, err := client.ListPendingFeedbacks(ctx)
			msg.Feedbacks = fs
			return err
		})
		g.Go(func() error {
			vs, err := client.ListPendingInspections(ctx)
			msg.Inspections = vs
			return err
		})
		msg.Err = g.Wait()
		return msg
	}
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.list.SetSize(w, h)
}

// Capturing reports whether the view consumes every key.
func (m Model) Capturing() bool {
	return m.list.FilterState() == list.Filtering
}

// Len returns the number of items awaiting review.
func (m Model) Len() int {
	return len(m.list.Items())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.ApprovalsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Error: " + msg.Err.Error()
			return m, nil
		}
		plates := make(map[int64]string, len(msg.Inspections))
		for _, v := range msg.Inspections {
			plates[v.ID] = v.Plate
		}
		items := make([]list.Item, 0, len(msg.Feedbacks)+len(msg.Inspections))
		for _, f := range msg.Feedbacks {
			items = append(items, Item{Kind: KindFeedback, Feedback: f, Plate: plates[f.VehicleID]})
		}
		for _, v := range msg.Inspections {
			items = append(items, Item{Kind: KindInspection, Vehicle: v})
		}
		cmd := m.list.SetItems(items)
		m.setTitle()
		return m, cmd

	case messages.ReviewResultMsg:
		m.reviewing = false
		if msg.Err != nil {
			return m, status(fmt.Sprintf("Could not review %s: %v", msg.Target, msg.Err), true)
		}
		for i, it := range m.list.Items() {
			item := it.(Item)
			if item.Kind.String() == msg.Target && item.ID() == msg.ID {
				m.list.RemoveItem(i)
				break
			}
		}
		m.setTitle()
		verb := "rejected"
		if msg.Approved {
			verb = "approved"
		}
		return m, status(fmt.Sprintf("%s %s", msg.Target, verb), false)

	case messages.PendingCountMsg:
		if msg.New > 0 && !m.loading {
			return m, load(m.client)
		}
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "a":
			return m.review(true)
		case "x":
			return m.review(false)
		case "r", "ctrl+r":
			m.loading = true
			m.list.Title = "Awaiting approval (refreshing...)"
			return m, load(m.client)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) review(approve bool) (Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(Item)
	if !ok || m.reviewing {
		return m, nil
	}
	m.reviewing = true
	client := m.client
	return m, func() tea.Msg {
		ctx := context.Background()
		var err error
		switch item.Kind {
		case KindInspection:
			s := api.InspectionRejected
			if approve {
				s = api.InspectionApproved
			}
			_, err = client.SetInspectionStatus(ctx, item.ID(), s)
		default:
			s := api.ApprovalRejected
			if approve {
				s = api.ApprovalApproved
			}
			_, err = client.SetFeedbackStatus(ctx, item.ID(), s)
		}
		return messages.ReviewResultMsg{Target: item.Kind.String(), ID: item.ID(), Approved: approve, Err: err}
	}
}

func (m *Model) setTitle() {
	n := len(m.list.Items())
	if n == 0 {
		m.list.Title = "Awaiting approval: nothing to review"
		return
	}
	m.list.Title = fmt.Sprintf("Awaiting approval (%d)", n)
}

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return messages.StatusMsg{Text: text, IsError: isError} }
}

// View renders the list.
func (m Model) View() string {
	return m.list.View() + "\n" + descStyle.Render("  a approve  x reject  / filter  r refresh")
}
