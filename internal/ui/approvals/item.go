package approvals

import (
	"fmt"
	"strings"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/render"
)

// Kind tells feedback reviews from inspection reviews.
type Kind int

const (
	KindFeedback Kind = iota
	KindInspection
)

func (k Kind) String() string {
	if k == KindInspection {
		return "inspection"
	}
	return "feedback"
}

// Item wraps a pending feedback or inspection for the bubbles list.
type Item struct {
	Kind     Kind
	Feedback api.Feedback
	Vehicle  api.Vehicle
	// Plate labels feedback rows with their vehicle when known.
	Plate string
}

// ID returns the row id of the reviewed record.
func (i Item) ID() int64 {
	if i.Kind == KindInspection {
		return i.Vehicle.ID
	}
	return i.Feedback.ID
}

// Status returns the stored review status.
func (i Item) Status() string {
	if i.Kind == KindInspection {
		return string(i.Vehicle.InspectionStatus)
	}
	return string(i.Feedback.Status)
}

func (i Item) Title() string {
	if i.Kind == KindInspection {
		return fmt.Sprintf("Inspection  %s  %s", i.Vehicle.Plate, i.Vehicle.Model)
	}
	stars := strings.Repeat("★", clamp(i.Feedback.Rating, 0, 5)) + strings.Repeat("☆", 5-clamp(i.Feedback.Rating, 0, 5))
	label := fmt.Sprintf("vehicle #%d", i.Feedback.VehicleID)
	if i.Plate != "" {
		label = i.Plate
	}
	return fmt.Sprintf("Feedback  %s  %s", stars, label)
}

func (i Item) Description() string {
	if i.Kind == KindInspection {
		parts := []string{}
		if name := i.Vehicle.WorkshopName(); name != "" {
			parts = append(parts, name)
		}
		if i.Vehicle.CustomerName != "" {
			parts = append(parts, i.Vehicle.CustomerName)
		}
		if !i.Vehicle.EnteredAt.IsZero() {
			parts = append(parts, "entered "+i.Vehicle.EnteredAt.Format("02/01/2006"))
		}
		return strings.Join(parts, " | ")
	}
	desc := render.Truncate(strings.Join(strings.Fields(i.Feedback.Comment), " "), 70)
	if !i.Feedback.PublishAllowed {
		desc += "  (private)"
	}
	return desc
}

func (i Item) FilterValue() string {
	if i.Kind == KindInspection {
		return i.Vehicle.Plate + " " + i.Vehicle.Model
	}
	return i.Plate + " " + i.Feedback.Comment
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
