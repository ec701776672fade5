// Package conf implements configuration file support for coryne-segmentation.
//
// Two layers live here:
//
//   - Settings: how the program may write its configuration. Loaded once at
//     startup from embedded TOML defaults overlaid with
//     /etc/coryne-segmentation/settings.toml.
//
//   - Store: the user-facing INI configuration, an ordered mapping of
//     sections to ordered key/value pairs, bound to one file on disk.
//
// # Store
//
//	store := conf.NewStore("/etc/coryne-segmentation/app.conf", settings, logger)
//	if err := store.Reload(false); err != nil {
//	    // conf.IsAccessError(err) for permission or existence problems
//	}
//	store.Set("segmentation", "threshold", "0.4")
//	if err := store.Save(); err != nil {
//	    // conf.IsModeError(err) when write-back is disabled
//	}
//
// Values are kept verbatim, quotes and trailing backslashes included. Set
// rejects a value the file cannot hold unchanged (conf.IsValueError), such
// as one with leading or trailing spaces.
//
// Reload merges: keys removed from the file stay in memory until Reload is
// called with clear set.
//
// Save can keep a copy of the previous file as <path>.bak and, with
// safe-save, writes <path>.new first and renames it over <path>. An
// interrupted save leaves the original file intact.
//
// # Settings
//
// The implementation uses a DTO pattern: settingsDTO has pointer fields for
// TOML parsing so "not set" (nil) is distinct from "set to zero value", and
// Settings.Update applies only the fields that were set.
package conf
