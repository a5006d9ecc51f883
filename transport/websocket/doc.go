// Package websocket pushes game events to connected browsers.
//
// Hub fans events out to watchers. A watcher subscribes to one game by
// connecting with ?game=<id>, or to the lobby by omitting the parameter;
// lobby watchers receive the games-list-updated stream. The hub implements
// service.Publisher, so the service layer broadcasts through it without
// knowing about connections.
//
// Connections are read-limited keepalive channels only: clients issue
// commands over the REST API, never over the socket.
package websocket
