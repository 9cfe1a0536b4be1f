package command

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"nestboard/internal/domain"
)

// DefaultLimit is the number of commands kept on each stack.
const DefaultLimit = 50

// History runs commands and keeps strict LIFO undo and redo stacks.
// Every successful execute or redo advances the edit clock once.
type History struct {
	undo   []Command
	redo   []Command
	limit  int
	logger zerolog.Logger
}

func NewHistory(limit int, logger zerolog.Logger) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit, logger: logger}
}

// Execute runs cmd. A command that reports no change is dropped; one that
// fails is dropped and its error returned. A fresh command clears redo.
func (h *History) Execute(ctx context.Context, ws *Workspace, cmd Command) (bool, error) {
	ok, err := cmd.Execute(ctx, ws)
	if err != nil {
		h.logger.Error().Err(err).Str("command", cmd.Name()).Msg("command failed")
		return false, fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	if !ok {
		h.logger.Debug().Str("command", cmd.Name()).Msg("command had no effect")
		return false, nil
	}
	h.push(cmd)
	h.redo = nil
	return true, h.advance(ctx, ws)
}

// Undo reverses the most recent command and moves it to the redo stack. A
// command whose undo fails is left on the undo stack.
func (h *History) Undo(ctx context.Context, ws *Workspace) (Command, error) {
	if len(h.undo) == 0 {
		return nil, domain.ErrNothingToUndo
	}
	cmd := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	if err := cmd.Undo(ctx, ws); err != nil {
		// stays on top so the undo can be retried
		h.undo = append(h.undo, cmd)
		h.logger.Error().Err(err).Str("command", cmd.Name()).Msg("undo failed")
		return cmd, fmt.Errorf("undo %s: %w", cmd.Name(), err)
	}
	h.redo = append(h.redo, cmd)
	if ws.Nav != nil {
		ws.Nav.Prune(ws.Doc)
	}
	if err := ws.Doc.Flush(ctx); err != nil {
		return cmd, err
	}
	return cmd, nil
}

// Redo re-executes the most recently undone command.
func (h *History) Redo(ctx context.Context, ws *Workspace) (Command, error) {
	if len(h.redo) == 0 {
		return nil, domain.ErrNothingToRedo
	}
	cmd := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	ok, err := cmd.Execute(ctx, ws)
	if err != nil {
		h.logger.Error().Err(err).Str("command", cmd.Name()).Msg("redo failed")
		return cmd, fmt.Errorf("redo %s: %w", cmd.Name(), err)
	}
	if !ok {
		return cmd, fmt.Errorf("redo %s: %w", cmd.Name(), domain.ErrNotApplied)
	}
	h.push(cmd)
	return cmd, h.advance(ctx, ws)
}

func (h *History) push(cmd Command) {
	h.undo = append(h.undo, cmd)
	if len(h.undo) > h.limit {
		// oldest first out
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
}

func (h *History) advance(ctx context.Context, ws *Workspace) error {
	counter := ws.Doc.Advance(ctx)
	if ws.Nav != nil {
		ws.Nav.Prune(ws.Doc)
	}
	h.logger.Debug().Int("editCounter", counter).Msg("edit clock advanced")
	if err := ws.Doc.Flush(ctx); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the sizes of the undo and redo stacks.
func (h *History) Len() (undo, redo int) { return len(h.undo), len(h.redo) }

// Clear forgets all history, used after a full reload.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
