package player

import "testing"

func TestPlayer_TeamName(t *testing.T) {
	t.Parallel()

	if got := (Player{ID: 2, Name: "Max"}).TeamName(); got != UnassignedTeamName {
		t.Fatalf("expected %q for nil team, got %q", UnassignedTeamName, got)
	}
	if got := (Player{ID: 2, Team: &TeamRef{ID: 9, Name: "  "}}).TeamName(); got != UnassignedTeamName {
		t.Fatalf("expected %q for blank team name, got %q", UnassignedTeamName, got)
	}
	if got := (Player{ID: 2, Team: &TeamRef{ID: 9, Name: "Ruff"}}).TeamName(); got != "Ruff" {
		t.Fatalf("unexpected team name: %q", got)
	}
}

func TestPlayer_CloneDetachesTeam(t *testing.T) {
	t.Parallel()

	original := Player{ID: 1, Name: "Fido", Team: &TeamRef{ID: 3, Name: "Fluff"}}
	clone := original.Clone()
	clone.Team.Name = "Changed"

	if original.Team.Name != "Fluff" {
		t.Fatalf("clone shares team pointer with original")
	}
}

func TestPlayer_ValidateRequiresID(t *testing.T) {
	t.Parallel()

	if err := (Player{ID: 3}).Validate(); err != nil {
		t.Fatalf("expected a bare id to be valid, got %v", err)
	}
	for _, id := range []int64{0, -2} {
		if err := (Player{ID: id, Name: "Fido"}).Validate(); err == nil {
			t.Fatalf("expected error for id=%d", id)
		}
	}
}

func TestCreateInput_NormalizeDefaultsStatus(t *testing.T) {
	t.Parallel()

	in := CreateInput{Name: "  Rex ", Breed: " Lab", ImageURL: " "}.Normalize()
	if in.Name != "Rex" || in.Breed != "Lab" || in.ImageURL != "" {
		t.Fatalf("unexpected normalized input: %+v", in)
	}
	if in.Status != DefaultStatus {
		t.Fatalf("expected default status %q, got %q", DefaultStatus, in.Status)
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestCreateInput_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input CreateInput
	}{
		{name: "missing name", input: CreateInput{Breed: "Lab"}},
		{name: "missing breed", input: CreateInput{Name: "Rex"}},
		{name: "unknown status", input: CreateInput{Name: "Rex", Breed: "Lab", Status: "captain"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.input.Normalize().Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
