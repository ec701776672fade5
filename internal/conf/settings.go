package conf

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// defaultSettings contains the embedded default settings file.
// It is the base layer applied before the settings file.
//
//go:embed default_settings.toml
var defaultSettings string

// Settings controls how the configuration Store may touch the disk.
type Settings struct {
	// WriteBack permits Store.Save to persist the configuration at all.
	WriteBack bool
	// SafeSave writes to a sibling ".new" file and renames it over the original.
	SafeSave bool
	// Backup copies the on-disk file to a sibling ".bak" file before saving.
	Backup bool
	// PIDFile is declared for the program but never written or read.
	PIDFile string
}

// Update applies non-nil values from a settingsDTO.
func (s *Settings) Update(dto settingsDTO) {
	if dto.WriteBack != nil {
		s.WriteBack = *dto.WriteBack
	}
	if dto.SafeSave != nil {
		s.SafeSave = *dto.SafeSave
	}
	if dto.Backup != nil {
		s.Backup = *dto.Backup
	}
	if dto.PIDFile != nil {
		s.PIDFile = *dto.PIDFile
	}
}

// SettingsSource names the settings file read on top of the built-in
// defaults.
type SettingsSource struct {
	Path string
}

// DefaultSettingsSource returns the system-wide settings file for program.
func DefaultSettingsSource(program string) *SettingsSource {
	return &SettingsSource{Path: filepath.Join("/etc", program, "settings.toml")}
}

// Read returns the built-in defaults overlaid with the settings file. A
// missing file leaves the defaults in place; an unreadable or malformed one
// is an error.
func (ss *SettingsSource) Read() (Settings, error) {
	var resolved Settings
	if err := resolved.apply("built-in defaults", defaultSettings); err != nil {
		return resolved, err
	}

	data, err := os.ReadFile(ss.Path)
	switch {
	case os.IsNotExist(err):
		return resolved, nil
	case err != nil:
		return resolved, fmt.Errorf("cannot read settings %s: %w", ss.Path, err)
	}
	if err := resolved.apply(ss.Path, string(data)); err != nil {
		return resolved, err
	}
	return resolved, nil
}

// apply overlays the keys set in data, read from origin.
func (s *Settings) apply(origin, data string) error {
	dto, err := parseSettingsDTO(data)
	if err != nil {
		return fmt.Errorf("%s: %w", origin, err)
	}
	s.Update(dto)
	return nil
}

type settingsDTO struct {
	WriteBack *bool   `toml:"write-back"`
	SafeSave  *bool   `toml:"safe-save"`
	Backup    *bool   `toml:"backup"`
	PIDFile   *string `toml:"pid-file"`
}

// parseSettingsDTO parses a TOML string into a settingsDTO. Unknown keys
// are rejected so a misspelled switch does not silently keep its default.
func parseSettingsDTO(data string) (settingsDTO, error) {
	var dto settingsDTO

	md, err := toml.Decode(data, &dto)
	if err != nil {
		return dto, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return dto, fmt.Errorf("unknown setting %q", undecoded[0].String())
	}

	return dto, nil
}
