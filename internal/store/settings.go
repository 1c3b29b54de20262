package store

import (
	"encoding/json"
	"errors"

	appLog "confdash/internal/log"
)

const settingsKey = "settings:calendar-view"

// ViewSettingsVersion is bumped whenever the settings shape changes.
const ViewSettingsVersion = 2

// ViewSettings is the versioned calendar view-settings blob.
type ViewSettings struct {
	Version int `json:"version"`
	// ShowPast toggles display of already-expired deadlines.
	ShowPast bool `json:"show_past"`
	// Categories filters the calendar to the listed sub-areas; empty means all.
	Categories []string `json:"categories"`
	// RankFilter keeps only series at or above the given CCF rank ("" = all).
	RankFilter string `json:"rank_filter"`
	// MonthsAhead bounds how far forward the calendar view reaches.
	MonthsAhead int `json:"months_ahead"`
}

// DefaultViewSettings returns the current defaults.
func DefaultViewSettings() *ViewSettings {
	return &ViewSettings{
		Version:     ViewSettingsVersion,
		ShowPast:    false,
		Categories:  []string{},
		RankFilter:  "",
		MonthsAhead: 12,
	}
}

// ViewSettings loads the persisted settings blob.
//
//   - missing blob: defaults, nothing persisted
//   - parse failure: the corrupted blob is discarded, defaults are persisted
//     and returned rather than leaving the store inconsistent
//   - version mismatch: stored fields are merged over defaults, the version
//     is bumped, and the merged blob is persisted back
func (s *Store) ViewSettings() (*ViewSettings, error) {
	data, err := s.get(settingsKey)
	if errors.Is(err, ErrNotFound) {
		return DefaultViewSettings(), nil
	}
	if err != nil {
		return nil, err
	}

	merged := DefaultViewSettings()
	if err := json.Unmarshal(data, merged); err != nil {
		appLog.Warn("view settings corrupted, resetting to defaults", "reason", err.Error())
		defaults := DefaultViewSettings()
		if saveErr := s.SaveViewSettings(defaults); saveErr != nil {
			return nil, saveErr
		}
		return defaults, nil
	}

	if merged.Version != ViewSettingsVersion {
		appLog.Info("view settings version mismatch, merging defaults",
			"stored", merged.Version, "current", ViewSettingsVersion)
		merged.Version = ViewSettingsVersion
		if merged.Categories == nil {
			merged.Categories = []string{}
		}
		if merged.MonthsAhead <= 0 {
			merged.MonthsAhead = DefaultViewSettings().MonthsAhead
		}
		if err := s.SaveViewSettings(merged); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// SaveViewSettings persists the settings blob at the current version.
func (s *Store) SaveViewSettings(v *ViewSettings) error {
	v.Version = ViewSettingsVersion
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.set(settingsKey, data)
}
