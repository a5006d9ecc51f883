// Package config manages the named scenario presets a game can be created
// from.
//
// A preset bundles a game configuration with an id and a description for the
// lobby UI. Three presets are built in (classic, short-run, volatile) and are
// always available; pointing the manager at a directory of JSON preset files
// adds to or overrides them. Presets are validated on load, so a game created
// from any listed preset cannot fail configuration checks.
package config
