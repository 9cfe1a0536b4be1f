package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"nestboard/internal/domain"
	"nestboard/internal/storage"
)

// legacySetting is the record shape of the old settings store.
type legacySetting struct {
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
}

// Load replaces the in-memory tree and AppState with what the port holds.
// It is safe to call at any time; unsaved changes are discarded.
func (d *Document) Load(ctx context.Context) error {
	d.reset()

	keys, err := d.port.ListKeys(ctx, storage.StoreNodes)
	if err != nil {
		return fmt.Errorf("list nodes: %w", err)
	}
	for _, id := range keys {
		if id == domain.AppStateID {
			continue
		}
		var n domain.Node
		found, err := storage.GetJSON(ctx, d.port, storage.StoreNodes, id, &n)
		if err != nil {
			return fmt.Errorf("load node: %w", err)
		}
		if !found {
			continue
		}
		n.ID = id
		n.Normalize()
		d.nodes[id] = &n
	}
	d.Root().ParentID = ""

	var state domain.AppState
	found, err := storage.GetJSON(ctx, d.port, storage.StoreNodes, domain.AppStateID, &state)
	if err != nil {
		return fmt.Errorf("load app state: %w", err)
	}
	if found {
		state.Normalize()
		d.state = &state
	} else {
		if err := d.importLegacySettings(ctx); err != nil {
			d.logger.Warn().Err(err).Msg("legacy settings import failed")
		}
		d.state.Normalize()
		d.markState()
	}
	if !slices.Contains(keys, domain.RootID) {
		d.markDirty(domain.RootID)
	}

	d.logger.Debug().Int("nodes", len(d.nodes)).Int("editCounter", d.state.EditCounter).Msg("document loaded")
	return nil
}

// importLegacySettings maps records of the old settings store onto a fresh
// AppState: known preference keys become Preferences, other booleans become features.
func (d *Document) importLegacySettings(ctx context.Context) error {
	keys, err := d.port.ListKeys(ctx, storage.StoreSettings)
	if err != nil {
		return err
	}
	var errs []error
	for _, key := range keys {
		var s legacySetting
		found, err := storage.GetJSON(ctx, d.port, storage.StoreSettings, key, &s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !found || len(s.Value) == 0 {
			continue
		}
		if err := d.applyLegacySetting(key, s.Value); err != nil {
			errs = append(errs, fmt.Errorf("setting %s: %w", key, err))
		}
	}
	if len(keys) > 0 {
		d.logger.Info().Int("settings", len(keys)).Msg("imported legacy settings")
	}
	return errors.Join(errs...)
}

func (d *Document) applyLegacySetting(key string, raw json.RawMessage) error {
	p := &d.state.Preferences
	switch key {
	case "gridSize":
		return json.Unmarshal(raw, &p.GridSize)
	case "snapToGrid":
		return json.Unmarshal(raw, &p.SnapToGrid)
	case "showInbox":
		return json.Unmarshal(raw, &p.ShowInbox)
	case "showGrid":
		return json.Unmarshal(raw, &p.ShowGrid)
	case "editCounter":
		return json.Unmarshal(raw, &d.state.EditCounter)
	case "lockedIds":
		return json.Unmarshal(raw, &d.state.LockedIDs)
	case "priorityIds":
		return json.Unmarshal(raw, &d.state.PriorityIDs)
	}
	var on bool
	if err := json.Unmarshal(raw, &on); err != nil {
		// non-boolean unknown settings have no home
		return nil
	}
	d.state.Features[key] = on
	return nil
}

// Flush writes every changed node, removes deleted ones and saves AppState.
// Whole records are written, never diffs. On failure the pending set is kept
// so the next Flush retries.
func (d *Document) Flush(ctx context.Context) error {
	for _, id := range sortedKeys(d.dirty) {
		n, ok := d.nodes[id]
		if !ok {
			delete(d.dirty, id)
			continue
		}
		if err := storage.PutJSON(ctx, d.port, storage.StoreNodes, id, n); err != nil {
			return fmt.Errorf("save node: %w", err)
		}
		delete(d.dirty, id)
	}
	for _, id := range sortedKeys(d.removed) {
		if err := d.port.Delete(ctx, storage.StoreNodes, id); err != nil {
			return fmt.Errorf("delete node: %w", err)
		}
		delete(d.removed, id)
	}
	if d.stateDirty {
		if err := storage.PutJSON(ctx, d.port, storage.StoreNodes, domain.AppStateID, d.state); err != nil {
			return fmt.Errorf("save app state: %w", err)
		}
		d.stateDirty = false
	}
	return nil
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
