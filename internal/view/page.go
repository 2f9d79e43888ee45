package view

import (
	"strconv"

	"github.com/riskibarqy/puppy-bowl/internal/domain/player"
	"github.com/riskibarqy/puppy-bowl/internal/roster"
)

type Kind string

const (
	KindEmpty       Kind = "empty"
	KindList        Kind = "list"
	KindDetail      Kind = "detail"
	KindUnavailable Kind = "unavailable"
)

const (
	DefaultListNotice  = "Select a puppy to see more details."
	EmptyRosterMessage = "No puppies on the roster yet. Add one below."
	UnavailableMessage = "Unable to load players. Try again later."
	BusyMessage        = "Working on it..."
)

type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

func (n Notice) IsZero() bool {
	return n.Text == ""
}

// State is everything a page is built from.
type State struct {
	Roster roster.Snapshot
	Busy   bool
	Notice Notice
	// LoadFailed is set while the most recent list fetch failed.
	LoadFailed bool
}

type Card struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
	DetailsPath string `json:"detailsPath"`
	RemovePath  string `json:"removePath"`
}

type Detail struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ImageURL   string `json:"imageUrl"`
	Breed      string `json:"breed"`
	Status     string `json:"status"`
	Team       string `json:"team"`
	BackPath   string `json:"backPath"`
	RemovePath string `json:"removePath"`
}

type StatusOption struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

type CreateForm struct {
	Action   string         `json:"action"`
	Statuses []StatusOption `json:"statuses"`
}

type Page struct {
	Kind        Kind        `json:"kind"`
	Title       string      `json:"title"`
	Message     string      `json:"message,omitempty"`
	Cards       []Card      `json:"cards,omitempty"`
	Detail      *Detail     `json:"detail,omitempty"`
	Form        *CreateForm `json:"form,omitempty"`
	Notice      Notice      `json:"notice"`
	Busy        bool        `json:"busy"`
	RefreshPath string      `json:"refreshPath"`
}

// ConfirmPage asks before a player is removed.
type ConfirmPage struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Prompt      string `json:"prompt"`
	ConfirmPath string `json:"confirmPath"`
	CancelPath  string `json:"cancelPath"`
}

func DetailsPath(id int64) string {
	return "/players/" + strconv.FormatInt(id, 10) + "/select"
}

func RemovePath(id int64) string {
	return "/players/" + strconv.FormatInt(id, 10) + "/remove"
}

const (
	BackPath    = "/back"
	CreatePath  = "/players"
	RefreshPath = "/refresh"
	HomePath    = "/"
)

// Build maps state to a page. It performs no I/O.
func Build(state State) Page {
	page := Page{
		Title:       "Puppy Bowl",
		Notice:      state.Notice,
		Busy:        state.Busy,
		RefreshPath: RefreshPath,
	}

	snap := state.Roster
	switch {
	case !snap.Loaded && state.LoadFailed:
		page.Kind = KindUnavailable
		page.Message = UnavailableMessage
		return page
	case len(snap.Players) == 0:
		page.Kind = KindEmpty
		page.Message = EmptyRosterMessage
		page.Form = buildForm()
		return page
	}

	if selected, ok := snap.Selected(); ok {
		page.Kind = KindDetail
		page.Title = selected.Name
		page.Detail = buildDetail(selected)
		return page
	}

	page.Kind = KindList
	page.Cards = make([]Card, 0, len(snap.Players))
	for _, p := range snap.Players {
		page.Cards = append(page.Cards, Card{
			ID:          p.ID,
			Name:        p.Name,
			ImageURL:    p.ImageURL,
			DetailsPath: DetailsPath(p.ID),
			RemovePath:  RemovePath(p.ID),
		})
	}
	page.Form = buildForm()
	if page.Notice.IsZero() {
		page.Notice = Notice{Level: NoticeInfo, Text: DefaultListNotice}
	}
	return page
}

func BuildConfirm(p player.Player) ConfirmPage {
	return ConfirmPage{
		ID:          p.ID,
		Name:        p.Name,
		Prompt:      "Are you sure you want to remove " + p.Name + " from the roster?",
		ConfirmPath: RemovePath(p.ID),
		CancelPath:  HomePath,
	}
}

func buildDetail(p player.Player) *Detail {
	status := string(p.Status)
	if status == "" {
		status = string(player.DefaultStatus)
	}
	return &Detail{
		ID:         p.ID,
		Name:       p.Name,
		ImageURL:   p.ImageURL,
		Breed:      p.Breed,
		Status:     status,
		Team:       p.TeamName(),
		BackPath:   BackPath,
		RemovePath: RemovePath(p.ID),
	}
}

func buildForm() *CreateForm {
	return &CreateForm{
		Action: CreatePath,
		Statuses: []StatusOption{
			{Value: string(player.StatusBench), Selected: player.DefaultStatus == player.StatusBench},
			{Value: string(player.StatusField), Selected: player.DefaultStatus == player.StatusField},
		},
	}
}
