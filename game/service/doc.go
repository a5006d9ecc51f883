// Package service is the application layer between the transports and the
// game engine.
//
// GameService is the single entry point for every command and query: the REST
// handlers, the websocket hub and the MCP tools all speak to it, never to the
// engine directly. The service owns three responsibilities the engine stays
// free of:
//
//   - Admin gating. Commands that steer a game (start, process round, demand
//     override, end, delete, kick) require the admin token minted at creation.
//     The token is an opaque capability checked by equality; there are no user
//     accounts.
//
//   - Participant identity. Joining mints an opaque player id that the client
//     presents on subsequent orders.
//
//   - Broadcasting. After a mutating command commits, and only then, the
//     service hands an event to its Publisher so every watcher of that game
//     sees the post-command state. A failed command publishes nothing.
//
// Construct with NewGameService; the zero Publisher (nil) disables
// broadcasting, which tests use freely.
package service
