package sqlite

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

const settingsFileName = "settings.json"

func (b *Backend) settingsPath() string {
	return filepath.Join(b.dataDir, settingsFileName)
}

// Settings returns the persisted settings, or the defaults when the
// settings document does not exist. Defaults are never written back.
func (b *Backend) Settings() (types.Settings, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.Settings{}, types.ErrStoreDetached
	}

	stored, err := b.readSettingsLocked()
	if err != nil {
		return types.Settings{}, err
	}
	return types.EffectiveSettings(stored), nil
}

// SetSettings merges patch over the current settings, validates and
// persists the result atomically. Settings are always written immediately,
// whatever the sync strategy.
func (b *Backend) SetSettings(patch types.SettingsPatch) (types.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.Settings{}, types.ErrStoreDetached
	}

	stored, err := b.readSettingsLocked()
	if err != nil {
		return types.Settings{}, err
	}
	merged := patch.Merge(types.EffectiveSettings(stored))
	if err := merged.Validate(); err != nil {
		return types.Settings{}, fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return types.Settings{}, fmt.Errorf("marshal settings: %w", err)
	}
	err = writeFileAtomic(b.settingsPath(), func(w *bufio.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	})
	if err != nil {
		return types.Settings{}, unavailable("persisting settings", err)
	}
	return merged, nil
}

// readSettingsLocked returns the stored settings or nil when there are
// none. A malformed document is logged and treated as absent; fields
// missing from the document keep their defaults. The caller must hold b.mu.
func (b *Backend) readSettingsLocked() (*types.Settings, error) {
	path := b.settingsPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("reading settings", err)
	}

	s := types.DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		b.logger.Warn().Err(err).Str("path", path).Msg("ignoring malformed settings document")
		return nil, nil
	}
	return &s, nil
}
