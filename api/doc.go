// Package api exposes the game over REST.
//
// All routes live under /api. Admin-only routes read the X-Admin-Token
// header and answer 403 when it is missing or wrong; domain errors map to
// 404 (unknown game or player), 409 (command out of phase) and 400 (bad
// input). The /ws route upgrades to a websocket watcher, scoped to one game
// via ?game=<id> or to the lobby without it.
//
//	POST   /api/games                         create a game from a preset or inline config
//	GET    /api/games                         list games
//	GET    /api/games/{id}                    full state snapshot
//	DELETE /api/games/{id}                    admin: tear the game down
//	POST   /api/games/{id}/join               seat a participant
//	DELETE /api/games/{id}/players/{playerId} admin: kick a participant
//	POST   /api/games/{id}/start              admin: begin round 1
//	POST   /api/games/{id}/orders             place the current round's order
//	POST   /api/games/{id}/process            admin: advance one round
//	POST   /api/games/{id}/demand             admin: override future demand
//	POST   /api/games/{id}/end                admin: end early
//	GET    /api/games/{id}/results            final ranking and bullwhip index
//	GET    /api/presets                       available scenario presets
package api
