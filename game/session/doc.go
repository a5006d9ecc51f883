// Package session owns the registry of live games.
//
// A Registry is a plain owned object: construct one with NewRegistry and hand
// it to whatever needs it. There is no package-level instance, so tests and
// embedders can run any number of independent registries side by side.
//
// The registry only tracks lifecycle (create, look up, list, delete). All game
// rules live in the engine package; the registry never inspects game state
// beyond what listing requires.
package session
