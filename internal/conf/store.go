package conf

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"

	"github.com/agilira/go-errors"
	"golang.org/x/sys/unix"
	"gopkg.in/ini.v1"
)

const (
	// BackupSuffix is appended to the configuration path for the backup copy.
	BackupSuffix = ".bak"
	// TempSuffix is appended to the configuration path for the safe-save file.
	TempSuffix = ".new"
)

// DefaultSection holds keys that appear before the first section header.
// It matches the name gopkg.in/ini.v1 gives that section.
const DefaultSection = "DEFAULT"

// Values are taken verbatim after the delimiter, quotes and trailing
// backslash included. '#' and ';' only start a comment at the beginning of
// a line.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
	PreserveSurroundedQuote: true,
}

// Entry is a single key and its value.
type Entry struct {
	Key   string
	Value string
}

// Section is an ordered snapshot of one configuration section.
type Section struct {
	Name    string
	Entries []Entry
}

// Store is an in-memory INI configuration bound to a file on disk.
//
// A Store is not safe for concurrent use.
type Store struct {
	path     string
	settings Settings
	logger   *slog.Logger
	data     *ini.File

	// rename moves the safe-save file over the configuration file.
	rename func(oldpath, newpath string) error
}

// NewStore returns an empty Store for the INI file at path. An empty path
// means no configuration file is known; Reload and Save then do nothing.
func NewStore(path string, settings Settings, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		path:     path,
		settings: settings,
		logger:   logger,
		data:     ini.Empty(loadOptions),
		rename:   os.Rename,
	}
}

// Path returns the configuration file path, or "" if none is known.
func (s *Store) Path() string {
	return s.path
}

// Reload reads the configuration file and merges it into memory. Sections
// and keys already in memory but absent from the file are kept unless clear
// is true, in which case every section is removed before merging.
//
// If any check or the parse fails, the in-memory configuration is unchanged.
func (s *Store) Reload(clear bool) error {
	if s.path == "" {
		return nil
	}
	if err := s.checkAccess(); err != nil {
		return err
	}

	s.logger.Info("loading config file", "path", s.path)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return accessError(err, "cannot access config file '%s'", s.path)
	}
	loaded, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return errors.Wrap(err, ErrCodeConfigParse, fmt.Sprintf("cannot parse config file '%s'", s.path)).
			WithContext("path", s.path)
	}

	if clear {
		for _, name := range s.Sections() {
			s.data.DeleteSection(name)
		}
	}
	for _, section := range loaded.Sections() {
		dst := s.data.Section(section.Name())
		for _, key := range section.Keys() {
			// NewKey only fails on an empty name, which the parser never yields.
			_, _ = dst.NewKey(key.Name(), key.Value())
		}
	}
	s.logger.Debug("config file loaded", "path", s.path, "sections", len(loaded.Sections()))

	return nil
}

// checkAccess verifies that Reload can read the file and, when write-back
// is enabled, that a later Save will be able to write it.
func (s *Store) checkAccess() error {
	if err := unix.Access(s.path, unix.R_OK); err != nil {
		return accessError(err, "cannot access config file '%s'", s.path)
	}
	if !s.settings.WriteBack {
		return nil
	}
	if s.settings.SafeSave || s.settings.Backup {
		dir := filepath.Dir(s.path)
		if err := unix.Access(dir, unix.W_OK); err != nil {
			return accessError(err, "cannot write to directory '%s' to create files", dir)
		}
	}
	if err := unix.Access(s.path, unix.W_OK); err != nil {
		return accessError(err, "cannot write to config file '%s'", s.path)
	}
	return nil
}

// Save persists the in-memory configuration.
//
// With Backup enabled the current file is first copied to path+BackupSuffix.
// With SafeSave enabled the configuration is written to path+TempSuffix and
// renamed over path, so readers never see a partially written file.
func (s *Store) Save() error {
	if !s.settings.WriteBack {
		return errors.New(ErrCodeConfigMode, "configuration write-back is disabled")
	}
	if s.path == "" {
		s.logger.Debug("no config file configured, skipping save")
		return nil
	}

	// Nothing is written when the encoded file would not read back unchanged.
	content, err := s.encode()
	if err != nil {
		return err
	}

	if s.settings.Backup {
		if err := copyFile(s.path, s.path+BackupSuffix); err != nil {
			if !os.IsNotExist(err) {
				return writeError(err, s.path+BackupSuffix)
			}
			s.logger.Debug("no config file to back up", "path", s.path)
		}
	}

	if !s.settings.SafeSave {
		if err := s.writeFile(s.path, content); err != nil {
			return writeError(err, s.path)
		}
		return nil
	}

	tmp := s.path + TempSuffix
	if err := s.writeFile(tmp, content); err != nil {
		return writeError(err, tmp)
	}
	if err := s.rename(tmp, s.path); err != nil {
		s.logger.Warn("config file left unchanged", "path", s.path, "pending", tmp)
		return writeError(err, s.path)
	}
	s.logger.Info("saved config file", "path", s.path)

	return nil
}

// encode serializes the configuration and checks that parsing the result
// gives back exactly what is in memory.
func (s *Store) encode() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.data.WriteTo(&buf); err != nil {
		return nil, writeError(err, s.path)
	}
	parsed, err := ini.LoadSources(loadOptions, buf.Bytes())
	if err != nil || !reflect.DeepEqual(snapshot(parsed), snapshot(s.data)) {
		return nil, errors.New(ErrCodeConfigValue,
			fmt.Sprintf("configuration cannot be saved to '%s' without changing its values", s.path)).
			WithContext("path", s.path)
	}
	return buf.Bytes(), nil
}

// writeFile writes content to path, using the permissions of the
// configuration file when it exists.
func (s *Store) writeFile(path string, content []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		perm = info.Mode().Perm()
	}

	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := fh.Write(content); err != nil {
		fh.Close()
		return err
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// copyFile copies src to dst, overwriting dst and keeping src's permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Sections returns the section names in insertion order, excluding
// DefaultSection.
func (s *Store) Sections() []string {
	var names []string
	for _, section := range s.data.Sections() {
		if section.Name() == DefaultSection {
			continue
		}
		names = append(names, section.Name())
	}
	return names
}

// Keys returns the keys of section in insertion order.
func (s *Store) Keys(section string) []string {
	sec, err := s.data.GetSection(section)
	if err != nil {
		return nil
	}
	return sec.KeyStrings()
}

// Get returns the value of key in section.
func (s *Store) Get(section, key string) (string, bool) {
	sec, err := s.data.GetSection(section)
	if err != nil {
		return "", false
	}
	// Look only at the section's own keys; ini resolves dotted section
	// names through their parents otherwise.
	for _, k := range sec.Keys() {
		if k.Name() == key {
			return k.Value(), true
		}
	}
	return "", false
}

// Set stores value under key in section, creating both as needed.
// An empty key is rejected, and so is anything the INI file cannot hold
// unchanged, such as a value with leading or trailing spaces.
func (s *Store) Set(section, key, value string) error {
	if err := representable(section, key, value); err != nil {
		return errors.Wrap(err, ErrCodeConfigValue,
			fmt.Sprintf("cannot store %s.%s = %q in the config file", section, key, value)).
			WithContext("section", section).
			WithContext("key", key)
	}
	_, err := s.data.Section(section).NewKey(key, value)
	return err
}

// representable writes a single entry and parses it back.
func representable(section, key, value string) error {
	f := ini.Empty(loadOptions)
	if _, err := f.Section(section).NewKey(key, value); err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return err
	}
	parsed, err := ini.LoadSources(loadOptions, buf.Bytes())
	if err != nil {
		return err
	}
	want := []Section{{Name: f.Section(section).Name(), Entries: []Entry{{Key: key, Value: value}}}}
	if got := snapshot(parsed); !reflect.DeepEqual(got, want) {
		return fmt.Errorf("read back as %v", got)
	}
	return nil
}

// RemoveKey deletes key from section.
func (s *Store) RemoveKey(section, key string) {
	sec, err := s.data.GetSection(section)
	if err != nil {
		return
	}
	sec.DeleteKey(key)
}

// RemoveSection deletes section and all its keys. DefaultSection itself
// stays in place and only loses its keys.
func (s *Store) RemoveSection(section string) {
	if section == "" || section == DefaultSection {
		sec := s.data.Section(DefaultSection)
		for _, key := range sec.KeyStrings() {
			sec.DeleteKey(key)
		}
		return
	}
	s.data.DeleteSection(section)
}

// Data returns an ordered snapshot of the configuration. DefaultSection is
// included first when it holds any keys.
func (s *Store) Data() []Section {
	return snapshot(s.data)
}

func snapshot(f *ini.File) []Section {
	var sections []Section
	for _, sec := range f.Sections() {
		if sec.Name() == DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		snap := Section{Name: sec.Name()}
		for _, key := range sec.Keys() {
			snap.Entries = append(snap.Entries, Entry{Key: key.Name(), Value: key.Value()})
		}
		sections = append(sections, snap)
	}
	return sections
}
