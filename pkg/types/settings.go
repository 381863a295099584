package types

import "errors"

// Themes.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// ErrInvalidTheme is returned when a theme is not light, dark or system.
var ErrInvalidTheme = errors.New("theme must be light, dark or system")

// Settings is the singleton configuration document of the side panel.
type Settings struct {
	Theme                 string `json:"theme"`
	AutoSummary           bool   `json:"autoSummary"`
	TranscriptionLanguage string `json:"transcriptionLanguage"`
}

// DefaultSettings returns the settings used until the first write.
func DefaultSettings() Settings {
	return Settings{
		Theme:                 ThemeLight,
		AutoSummary:           false,
		TranscriptionLanguage: "en-US",
	}
}

// EffectiveSettings returns the stored settings, or the defaults when
// nothing is stored.
func EffectiveSettings(stored *Settings) Settings {
	if stored == nil {
		return DefaultSettings()
	}
	return *stored
}

// Validate checks the theme value.
func (s Settings) Validate() error {
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
		return nil
	default:
		return ErrInvalidTheme
	}
}

// SettingsPatch carries a partial settings update; nil fields are left
// unchanged. It is also the shape of the settings section on import.
type SettingsPatch struct {
	Theme                 *string `json:"theme,omitempty"`
	AutoSummary           *bool   `json:"autoSummary,omitempty"`
	TranscriptionLanguage *string `json:"transcriptionLanguage,omitempty"`
}

// Merge returns s with the non-nil patch fields applied.
func (p SettingsPatch) Merge(s Settings) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.AutoSummary != nil {
		s.AutoSummary = *p.AutoSummary
	}
	if p.TranscriptionLanguage != nil {
		s.TranscriptionLanguage = *p.TranscriptionLanguage
	}
	return s
}

// PatchFrom returns a patch that sets every field of s.
func PatchFrom(s Settings) SettingsPatch {
	return SettingsPatch{
		Theme:                 &s.Theme,
		AutoSummary:           &s.AutoSummary,
		TranscriptionLanguage: &s.TranscriptionLanguage,
	}
}
