package conf

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes carried by errors returned from Store.
const (
	// ErrCodeConfigAccess marks a file or directory that cannot be read or
	// written as required by Reload.
	ErrCodeConfigAccess = "CONFIG_ACCESS"
	// ErrCodeConfigMode marks a Save attempted while write-back is disabled.
	ErrCodeConfigMode = "CONFIG_MODE"
	// ErrCodeConfigParse marks a configuration file that is not valid INI.
	ErrCodeConfigParse = "CONFIG_PARSE"
	// ErrCodeConfigWrite marks an I/O failure while persisting the configuration.
	ErrCodeConfigWrite = "CONFIG_WRITE"
	// ErrCodeConfigValue marks a key or value the INI file cannot hold unchanged.
	ErrCodeConfigValue = "CONFIG_VALUE"
)

// IsAccessError reports whether err is a configuration access error.
func IsAccessError(err error) bool {
	return hasCode(err, ErrCodeConfigAccess)
}

// IsModeError reports whether err was caused by saving with write-back disabled.
func IsModeError(err error) bool {
	return hasCode(err, ErrCodeConfigMode)
}

// IsParseError reports whether err was caused by malformed configuration content.
func IsParseError(err error) bool {
	return hasCode(err, ErrCodeConfigParse)
}

// IsValueError reports whether err was caused by a key or value that would
// not survive a save and reload.
func IsValueError(err error) bool {
	return hasCode(err, ErrCodeConfigValue)
}

func hasCode(err error, code string) bool {
	for err != nil {
		if coder, ok := err.(errors.ErrorCoder); ok && string(coder.ErrorCode()) == code {
			return true
		}
		err = goerrors.Unwrap(err)
	}
	return false
}

func accessError(err error, format, path string) error {
	return errors.Wrap(err, ErrCodeConfigAccess, fmt.Sprintf(format, path)).
		WithContext("path", path)
}

func writeError(err error, path string) error {
	return errors.Wrap(err, ErrCodeConfigWrite, fmt.Sprintf("cannot write '%s'", path)).
		WithContext("path", path)
}
