// Package app wires process startup together: it takes the parsed command
// line and program settings, sets up logging and loads the configuration
// file into a single App value instead of process-wide globals.
package app
