package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/riskibarqy/puppy-bowl/internal/domain/player"
	"github.com/riskibarqy/puppy-bowl/internal/platform/logging"
	"github.com/riskibarqy/puppy-bowl/internal/roster"
	"github.com/riskibarqy/puppy-bowl/internal/view"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	MsgBusy          = "Another action is still in progress."
	MsgLoadFailed    = view.UnavailableMessage
	MsgNotFound      = "Player not found."
	MsgDetailFailed  = "Unable to load player details."
	MsgCreateFailed  = "Unable to add the puppy. Try again later."
	MsgDeleteFailed  = "Unable to remove the puppy. Try again later."
	MsgInvalidCreate = "Unable to add the puppy: %s."
)

type Mode string

const (
	ModeListing Mode = "listing"
	ModeViewing Mode = "viewing"
)

type OutcomeKind string

const (
	OutcomeOK       OutcomeKind = "ok"
	OutcomeBusy     OutcomeKind = "busy"
	OutcomeInvalid  OutcomeKind = "invalid"
	OutcomeNotFound OutcomeKind = "not_found"
	OutcomeFailed   OutcomeKind = "failed"
)

// Outcome is the settled result of one user action. Err carries the cause
// for logging; Message is what the user sees.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Err     error
}

func (o Outcome) OK() bool {
	return o.Kind == OutcomeOK
}

type ActionRecorder interface {
	RecordAction(action, outcome string)
}

// RosterController drives one session's roster through the remote source.
// Mutating actions never overlap: a second action arriving while one is in
// flight is rejected with ErrBusy.
type RosterController struct {
	source   player.Source
	store    *roster.Store
	logger   *logging.Logger
	recorder ActionRecorder

	busy atomic.Bool

	mu            sync.Mutex
	notice        view.Notice
	loadFailed    bool
	loadAttempted bool
}

func NewRosterController(source player.Source, store *roster.Store, logger *logging.Logger, recorder ActionRecorder) *RosterController {
	if store == nil {
		store = roster.NewStore()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RosterController{
		source:   source,
		store:    store,
		logger:   logger,
		recorder: recorder,
	}
}

// EnsureLoaded runs the initial list fetch once per controller.
func (c *RosterController) EnsureLoaded(ctx context.Context) Outcome {
	c.mu.Lock()
	attempted := c.loadAttempted
	c.mu.Unlock()
	if attempted {
		return Outcome{Kind: OutcomeOK}
	}
	return c.Load(ctx)
}

// Load replaces the roster with the remote list.
func (c *RosterController) Load(ctx context.Context) Outcome {
	return c.run(ctx, "load", func(ctx context.Context) Outcome {
		return c.reload(ctx)
	})
}

func (c *RosterController) Select(ctx context.Context, id int64) Outcome {
	return c.run(ctx, "select", func(ctx context.Context) Outcome {
		if _, ok := c.store.Lookup(id); !ok {
			c.setNotice(view.NoticeError, MsgNotFound)
			return Outcome{Kind: OutcomeNotFound, Message: MsgNotFound, Err: fmt.Errorf("%w: id=%d not in roster", ErrNotFound, id)}
		}

		item, err := c.source.GetPlayer(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.setNotice(view.NoticeError, MsgNotFound)
				return Outcome{Kind: OutcomeNotFound, Message: MsgNotFound, Err: err}
			}
			c.setNotice(view.NoticeError, MsgDetailFailed)
			return Outcome{Kind: OutcomeFailed, Message: MsgDetailFailed, Err: err}
		}
		if item.ID != id {
			err := fmt.Errorf("%w: asked for id=%d, got id=%d", ErrFetchFailure, id, item.ID)
			c.setNotice(view.NoticeError, MsgDetailFailed)
			return Outcome{Kind: OutcomeFailed, Message: MsgDetailFailed, Err: err}
		}

		if err := c.store.Upsert(item); err != nil {
			c.setNotice(view.NoticeError, MsgDetailFailed)
			return Outcome{Kind: OutcomeFailed, Message: MsgDetailFailed, Err: err}
		}
		if err := c.store.Select(id); err != nil {
			c.setNotice(view.NoticeError, MsgNotFound)
			return Outcome{Kind: OutcomeNotFound, Message: MsgNotFound, Err: err}
		}
		return Outcome{Kind: OutcomeOK}
	}, attribute.Int64("player.id", id))
}

// Back returns to the list and refreshes it.
func (c *RosterController) Back(ctx context.Context) Outcome {
	return c.run(ctx, "back", func(ctx context.Context) Outcome {
		c.store.ClearSelection()
		return c.reload(ctx)
	})
}

func (c *RosterController) Remove(ctx context.Context, id int64) Outcome {
	return c.run(ctx, "remove", func(ctx context.Context) Outcome {
		name := displayName(c.store, id)

		err := c.source.DeletePlayer(ctx, id)
		switch {
		case err == nil:
			c.store.RemoveByID(id)
			c.setNotice(view.NoticeInfo, name+" was removed from the roster.")
		case errors.Is(err, ErrNotFound):
			c.store.RemoveByID(id)
			c.setNotice(view.NoticeInfo, name+" was already removed from the roster.")
			c.logger.InfoContext(ctx, "player already gone remotely, removed locally", "player_id", id)
		default:
			c.setNotice(view.NoticeError, MsgDeleteFailed)
			return Outcome{Kind: OutcomeFailed, Message: MsgDeleteFailed, Err: err}
		}

		players, listErr := c.source.ListPlayers(ctx)
		if listErr != nil {
			// Keep the local removal; the roster is refreshed on the next load.
			c.logger.WarnContext(ctx, "refresh after remove failed", "player_id", id, "error", listErr)
			return Outcome{Kind: OutcomeOK}
		}
		if err := c.store.ReplaceAll(withoutPlayer(players, id)); err != nil {
			c.logger.WarnContext(ctx, "refresh after remove returned an unusable roster", "player_id", id, "error", err)
			return Outcome{Kind: OutcomeOK}
		}
		c.mu.Lock()
		c.loadFailed = false
		c.mu.Unlock()
		return Outcome{Kind: OutcomeOK}
	}, attribute.Int64("player.id", id))
}

func (c *RosterController) Create(ctx context.Context, input player.CreateInput) Outcome {
	return c.run(ctx, "create", func(ctx context.Context) Outcome {
		input = input.Normalize()
		if err := input.Validate(); err != nil {
			msg := fmt.Sprintf(MsgInvalidCreate, err.Error())
			c.setNotice(view.NoticeError, msg)
			return Outcome{Kind: OutcomeInvalid, Message: msg, Err: fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())}
		}

		created, err := c.source.CreatePlayer(ctx, input)
		if err != nil {
			kind := OutcomeFailed
			if errors.Is(err, ErrInvalidInput) {
				kind = OutcomeInvalid
			}
			c.setNotice(view.NoticeError, MsgCreateFailed)
			return Outcome{Kind: kind, Message: MsgCreateFailed, Err: err}
		}

		if err := c.store.AppendOne(created); err != nil {
			if upsertErr := c.store.Upsert(created); upsertErr != nil {
				c.setNotice(view.NoticeError, MsgCreateFailed)
				return Outcome{Kind: OutcomeFailed, Message: MsgCreateFailed, Err: fmt.Errorf("%w: %w", ErrCreateFailure, upsertErr)}
			}
		}
		c.store.ClearSelection()
		c.setNotice(view.NoticeInfo, created.Name+" was added to the roster.")
		return Outcome{Kind: OutcomeOK}
	}, attribute.String("player.name", strings.TrimSpace(input.Name)))
}

// Page builds the current view and consumes the pending notice.
func (c *RosterController) Page() view.Page {
	c.mu.Lock()
	notice := c.notice
	c.notice = view.Notice{}
	loadFailed := c.loadFailed
	c.mu.Unlock()

	return view.Build(view.State{
		Roster:     c.store.Snapshot(),
		Busy:       c.busy.Load(),
		Notice:     notice,
		LoadFailed: loadFailed,
	})
}

// PeekPage is Page without consuming the notice.
func (c *RosterController) PeekPage() view.Page {
	c.mu.Lock()
	notice := c.notice
	loadFailed := c.loadFailed
	c.mu.Unlock()

	return view.Build(view.State{
		Roster:     c.store.Snapshot(),
		Busy:       c.busy.Load(),
		Notice:     notice,
		LoadFailed: loadFailed,
	})
}

// Confirm builds the remove prompt for a player in the roster.
func (c *RosterController) Confirm(id int64) (view.ConfirmPage, bool) {
	item, ok := c.store.Lookup(id)
	if !ok {
		return view.ConfirmPage{}, false
	}
	return view.BuildConfirm(item), true
}

// Notify queues a notice for the next page, e.g. a form rejected before it
// reached the controller.
func (c *RosterController) Notify(level view.NoticeLevel, text string) {
	c.setNotice(level, text)
}

func (c *RosterController) Mode() Mode {
	if _, ok := c.store.Snapshot().Selected(); ok {
		return ModeViewing
	}
	return ModeListing
}

func (c *RosterController) Busy() bool {
	return c.busy.Load()
}

// Reset drops all session state.
func (c *RosterController) Reset() {
	c.store.Reset()
	c.mu.Lock()
	c.notice = view.Notice{}
	c.loadFailed = false
	c.loadAttempted = false
	c.mu.Unlock()
}

func (c *RosterController) run(ctx context.Context, action string, fn func(context.Context) Outcome, attrs ...attribute.KeyValue) Outcome {
	if !c.busy.CompareAndSwap(false, true) {
		c.setNotice(view.NoticeError, MsgBusy)
		c.record(action, OutcomeBusy)
		return Outcome{Kind: OutcomeBusy, Message: MsgBusy, Err: ErrBusy}
	}
	defer c.busy.Store(false)

	// Remote calls run to completion even when the request that started them goes away.
	ctx, span := startActionSpan(context.WithoutCancel(ctx), action, attrs...)
	defer span.End()

	out := fn(ctx)
	if out.Err != nil {
		span.RecordError(out.Err)
		if out.Kind == OutcomeFailed {
			span.SetStatus(codes.Error, out.Err.Error())
		}
		c.logger.WarnContext(ctx, "roster action did not complete", "action", action, "outcome", out.Kind, "error", out.Err)
	}
	c.record(action, out.Kind)
	return out
}

// reload must run inside run.
func (c *RosterController) reload(ctx context.Context) Outcome {
	c.mu.Lock()
	c.loadAttempted = true
	c.mu.Unlock()

	players, err := c.source.ListPlayers(ctx)
	if err == nil {
		if replaceErr := c.store.ReplaceAll(players); replaceErr != nil {
			err = fmt.Errorf("%w: %w", ErrFetchFailure, replaceErr)
		}
	}
	if err != nil {
		c.mu.Lock()
		c.loadFailed = true
		c.mu.Unlock()
		// Before the first successful load the page shows the retry view
		// instead; afterwards the previous roster stays with a notice.
		if c.store.Snapshot().Loaded {
			c.setNotice(view.NoticeError, MsgLoadFailed)
		}
		return Outcome{Kind: OutcomeFailed, Message: MsgLoadFailed, Err: err}
	}

	c.mu.Lock()
	c.loadFailed = false
	c.mu.Unlock()
	return Outcome{Kind: OutcomeOK}
}

func (c *RosterController) setNotice(level view.NoticeLevel, text string) {
	c.mu.Lock()
	c.notice = view.Notice{Level: level, Text: text}
	c.mu.Unlock()
}

func (c *RosterController) record(action string, kind OutcomeKind) {
	if c.recorder != nil {
		c.recorder.RecordAction(action, string(kind))
	}
}

func displayName(store *roster.Store, id int64) string {
	if item, ok := store.Lookup(id); ok && strings.TrimSpace(item.Name) != "" {
		return item.Name
	}
	return fmt.Sprintf("Player #%d", id)
}

func withoutPlayer(players []player.Player, id int64) []player.Player {
	out := make([]player.Player, 0, len(players))
	for _, item := range players {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}
