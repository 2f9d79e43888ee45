package roster

import (
	"fmt"
	"sync"

	"github.com/riskibarqy/puppy-bowl/internal/domain/player"
)

// Snapshot is a detached copy of the store state.
type Snapshot struct {
	Players []player.Player
	// SelectedID is zero when nothing is selected.
	SelectedID int64
	Loaded     bool
}

// Selected returns the selected player when it is still in the roster.
func (s Snapshot) Selected() (player.Player, bool) {
	if s.SelectedID == 0 {
		return player.Player{}, false
	}
	for _, p := range s.Players {
		if p.ID == s.SelectedID {
			return p, true
		}
	}
	return player.Player{}, false
}

// Store holds the ordered roster of one session and its selection.
// Every mutation applies fully or not at all. The zero value is an empty,
// unloaded roster.
type Store struct {
	mu       sync.RWMutex
	players  []player.Player
	index    map[int64]int
	selected int64
	loaded   bool
}

func NewStore() *Store {
	return &Store{index: make(map[int64]int)}
}

// ReplaceAll swaps the roster for players, keeping their order.
// Duplicate or invalid ids leave the store untouched.
func (s *Store) ReplaceAll(players []player.Player) error {
	next := make([]player.Player, 0, len(players))
	index := make(map[int64]int, len(players))
	for _, p := range players {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("replace roster: %w", err)
		}
		if _, dup := index[p.ID]; dup {
			return fmt.Errorf("replace roster: duplicate player id=%d", p.ID)
		}
		index[p.ID] = len(next)
		next = append(next, p.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.players = next
	s.index = index
	s.loaded = true
	if _, ok := s.index[s.selected]; !ok {
		s.selected = 0
	}
	return nil
}

// RemoveByID drops the player and clears a matching selection.
// It reports whether anything was removed.
func (s *Store) RemoveByID(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == id {
		s.selected = 0
	}

	pos, ok := s.index[id]
	if !ok {
		return false
	}

	next := make([]player.Player, 0, len(s.players)-1)
	next = append(next, s.players[:pos]...)
	next = append(next, s.players[pos+1:]...)
	s.players = next
	s.reindex()
	return true
}

func (s *Store) AppendOne(p player.Player) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("append player: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		s.index = make(map[int64]int)
	}
	if _, exists := s.index[p.ID]; exists {
		return fmt.Errorf("append player: id=%d already in roster", p.ID)
	}
	s.index[p.ID] = len(s.players)
	s.players = append(s.players, p.Clone())
	return nil
}

// Upsert replaces the stored entity with the same id in place, or appends it.
func (s *Store) Upsert(p player.Player) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		s.index = make(map[int64]int)
	}
	if pos, ok := s.index[p.ID]; ok {
		s.players[pos] = p.Clone()
		return nil
	}
	s.index[p.ID] = len(s.players)
	s.players = append(s.players, p.Clone())
	return nil
}

// Select marks id as selected. The id must be in the roster.
func (s *Store) Select(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return fmt.Errorf("select player: id=%d not in roster", id)
	}
	s.selected = id
	return nil
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selected = 0
	s.mu.Unlock()
}

func (s *Store) SelectedID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *Store) Lookup(id int64) (player.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return player.Player{}, false
	}
	return s.players[pos].Clone(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]player.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p.Clone())
	}
	return Snapshot{
		Players:    players,
		SelectedID: s.selected,
		Loaded:     s.loaded,
	}
}

// Reset empties the store as at session start.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.players = nil
	s.index = make(map[int64]int)
	s.selected = 0
	s.loaded = false
}

// reindex must be called with s.mu held.
func (s *Store) reindex() {
	index := make(map[int64]int, len(s.players))
	for i, p := range s.players {
		index[p.ID] = i
	}
	s.index = index
}
