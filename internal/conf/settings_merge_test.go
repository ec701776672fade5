package conf

import (
	"os"
	"path/filepath"
	"testing"
)

// TestMissingKeysInSettingsFile tests what happens when the settings file
// doesn't specify certain keys - they should keep the built-in defaults
func TestMissingKeysInSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	// Only switches off backups, nothing else
	os.WriteFile(path, []byte("backup = false\n"), 0644)

	ss := &SettingsSource{Path: path}
	settings, err := ss.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.Backup {
		t.Errorf("expected Backup=false (overridden), got true")
	}
	if !settings.WriteBack {
		t.Errorf("expected WriteBack=true (preserved!), got false")
	}
	if !settings.SafeSave {
		t.Errorf("expected SafeSave=true (preserved!), got false")
	}
	if settings.PIDFile != "/run/coryne-segmentation.pid" {
		t.Errorf("expected default PIDFile (preserved!), got %s", settings.PIDFile)
	}
}

// TestFalseOverwrite tests that the settings file can switch a default-on
// setting off and clear a default string
func TestFalseOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	os.WriteFile(path, []byte("write-back = false\npid-file = \"\"\n"), 0644)

	ss := &SettingsSource{Path: path}
	settings, err := ss.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.WriteBack {
		t.Errorf("write-back was not overridden to false")
	}
	if !settings.SafeSave {
		t.Errorf("safe-save default was lost")
	}
	if settings.PIDFile != "" {
		t.Errorf("pid-file was not overridden to empty: got %s", settings.PIDFile)
	}
}
