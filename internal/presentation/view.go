package presentation

import (
	"github.com/rxkshit04/nightpulse/internal/controller"
	"github.com/rxkshit04/nightpulse/internal/models"
)

const (
	DefaultZoom    = 13
	WaitingMessage = "Waiting for location..."
	SelfPopup      = "Your Location"
)

type View struct {
	Version    uint64           `json:"version"`
	State      controller.State `json:"state"`
	Banner     string           `json:"banner,omitempty"`
	Map        *MapView         `json:"map,omitempty"`
	Cards      []Card           `json:"cards"`
	Popup      DeletePopup      `json:"delete_popup"`
	Form       models.Form      `json:"form"`
	Categories []string         `json:"categories"`
	CanSubmit  bool             `json:"can_submit"`
	Notice     string           `json:"notice,omitempty"`
	Loaded     bool             `json:"loaded"`
}

type MapView struct {
	Center  models.Position `json:"center"`
	Zoom    int             `json:"zoom"`
	Self    Marker          `json:"self"`
	Markers []Marker        `json:"markers"`
}

type Marker struct {
	ID       string          `json:"id,omitempty"`
	Position models.Position `json:"position"`
	IconURL  string          `json:"icon_url"`
	Popup    string          `json:"popup"`
}

type Card struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    models.Category `json:"category"`
	Icon        string          `json:"icon"`
}

type DeletePopup struct {
	Open    bool   `json:"open"`
	AlertID string `json:"alert_id,omitempty"`
	Title   string `json:"title,omitempty"`
}

// Render derives everything a client draws from a controller snapshot. The
// map is present only with a known position and no active location error;
// it is re-centered on every new position.
func Render(s controller.Snapshot) View {
	v := View{
		Version:    s.Version,
		State:      s.State,
		Cards:      make([]Card, 0, len(s.Alerts)),
		Form:       s.Form,
		Categories: categoryNames(),
		CanSubmit:  s.Position != nil && s.LocationError == "",
		Notice:     s.Notice,
		Loaded:     s.Loaded,
		Popup: DeletePopup{
			Open:    s.Delete.Pending(),
			AlertID: s.Delete.AlertID,
			Title:   s.Delete.AlertTitle,
		},
	}

	switch {
	case s.LocationError != "":
		v.Banner = s.LocationError
	case s.Position == nil:
		v.Banner = WaitingMessage
	default:
		v.Map = renderMap(*s.Position, s.Alerts)
	}

	for _, a := range s.Alerts {
		v.Cards = append(v.Cards, Card{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Category:    a.Category,
			Icon:        IconName(a.Category),
		})
	}

	return v
}

func renderMap(center models.Position, alerts []models.Alert) *MapView {
	m := &MapView{
		Center: center,
		Zoom:   DefaultZoom,
		Self: Marker{
			Position: center,
			IconURL:  UserIconURL,
			Popup:    SelfPopup,
		},
		Markers: make([]Marker, 0, len(alerts)),
	}
	for _, a := range alerts {
		m.Markers = append(m.Markers, Marker{
			ID:       a.ID,
			Position: models.Position{Lat: float64(a.Lat), Lng: float64(a.Lng)},
			IconURL:  IconURL(a.Category),
			Popup:    a.Title + " - " + string(a.Category),
		})
	}
	return m
}

func categoryNames() []string {
	cats := models.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}
