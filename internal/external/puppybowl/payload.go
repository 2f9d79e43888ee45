package puppybowl

import (
	"strings"
	"time"

	"github.com/riskibarqy/puppy-bowl/internal/domain/player"
)

// envelope covers every response shape. Reads may omit success; writes
// always carry it.
type envelope[T any] struct {
	Success *bool      `json:"success"`
	Error   *errorBody `json:"error"`
	Data    *T         `json:"data"`
}

// rejected reports an explicit success=false.
func (e envelope[T]) rejected() bool {
	return e.Success != nil && !*e.Success
}

// confirmed reports an explicit success=true.
func (e envelope[T]) confirmed() bool {
	return e.Success != nil && *e.Success
}

type errorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *errorBody) String() string {
	if e == nil {
		return ""
	}
	name := strings.TrimSpace(e.Name)
	message := strings.TrimSpace(e.Message)
	switch {
	case name == "":
		return message
	case message == "":
		return name
	default:
		return name + ": " + message
	}
}

func (e *errorBody) mentionsNotFound() bool {
	return strings.Contains(strings.ToLower(e.String()), "not found")
}

type playersData struct {
	Players *[]playerItem `json:"players"`
}

type playerData struct {
	Player *playerItem `json:"player"`
}

type newPlayerData struct {
	NewPlayer *playerItem `json:"newPlayer"`
}

type teamItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type playerItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Breed     string    `json:"breed"`
	Status    string    `json:"status"`
	ImageURL  string    `json:"imageUrl"`
	TeamID    *int64    `json:"teamId"`
	CohortID  int64     `json:"cohortId"`
	Team      *teamItem `json:"team"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type createRequest struct {
	Name     string `json:"name"`
	Breed    string `json:"breed"`
	ImageURL string `json:"imageUrl"`
	Status   string `json:"status"`
}

func (p playerItem) toDomain() player.Player {
	out := player.Player{
		ID:        p.ID,
		Name:      p.Name,
		Breed:     p.Breed,
		ImageURL:  p.ImageURL,
		Status:    player.Status(p.Status),
		CohortID:  p.CohortID,
		CreatedAt: parseTimestamp(p.CreatedAt),
		UpdatedAt: parseTimestamp(p.UpdatedAt),
	}
	switch {
	case p.Team != nil:
		out.Team = &player.TeamRef{ID: p.Team.ID, Name: p.Team.Name}
	case p.TeamID != nil && *p.TeamID > 0:
		// Team id without an expanded team still has no displayable name.
		out.Team = &player.TeamRef{ID: *p.TeamID}
	}
	return out
}

func mapPlayers(items []playerItem) []player.Player {
	out := make([]player.Player, 0, len(items))
	for _, item := range items {
		out = append(out, item.toDomain())
	}
	return out
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
