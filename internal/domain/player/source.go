package player

import "context"

// Source is the remote source of truth for the roster.
type Source interface {
	ListPlayers(ctx context.Context) ([]Player, error)
	GetPlayer(ctx context.Context, id int64) (Player, error)
	CreatePlayer(ctx context.Context, input CreateInput) (Player, error)
	DeletePlayer(ctx context.Context, id int64) error
}
