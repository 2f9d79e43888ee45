package player

import (
	"fmt"
	"strings"
	"time"
)

// Status is the roster position of a puppy.
type Status string

const (
	StatusBench Status = "bench"
	StatusField Status = "field"
)

// DefaultStatus is applied when a create request leaves status empty.
const DefaultStatus = StatusBench

// UnassignedTeamName is shown for players without a team.
const UnassignedTeamName = "Unassigned"

var AllStatuses = map[Status]struct{}{
	StatusBench: {},
	StatusField: {},
}

// TeamRef is the optional team a player belongs to.
type TeamRef struct {
	ID   int64
	Name string
}

// Player is one roster member as reported by the remote roster API.
type Player struct {
	ID        int64
	Name      string
	Breed     string
	ImageURL  string
	Status    Status
	Team      *TeamRef
	CohortID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeamName returns the team's name or UnassignedTeamName.
func (p Player) TeamName() string {
	if p.Team == nil || strings.TrimSpace(p.Team.Name) == "" {
		return UnassignedTeamName
	}
	return p.Team.Name
}

// Clone returns a copy that shares no pointers with p.
func (p Player) Clone() Player {
	out := p
	if p.Team != nil {
		team := *p.Team
		out.Team = &team
	}
	return out
}

// Validate checks that p carries a server-assigned id. Remote data may leave
// any other field blank.
func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be greater than zero, got %d", p.ID)
	}
	return nil
}

// CreateInput carries the fields a user submits to add a puppy.
type CreateInput struct {
	Name     string
	Breed    string
	ImageURL string
	Status   Status
}

// Normalize trims every field and applies DefaultStatus.
func (in CreateInput) Normalize() CreateInput {
	out := CreateInput{
		Name:     strings.TrimSpace(in.Name),
		Breed:    strings.TrimSpace(in.Breed),
		ImageURL: strings.TrimSpace(in.ImageURL),
		Status:   Status(strings.ToLower(strings.TrimSpace(string(in.Status)))),
	}
	if out.Status == "" {
		out.Status = DefaultStatus
	}
	return out
}

// Validate expects a normalized input.
func (in CreateInput) Validate() error {
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	if in.Breed == "" {
		return fmt.Errorf("breed is required")
	}
	if _, ok := AllStatuses[in.Status]; !ok {
		return fmt.Errorf("invalid status: %s", in.Status)
	}
	return nil
}
