package service

import (
	"time"

	"github.com/supplysim/beergame/game/engine"
)

// Event types pushed to websocket watchers.
const (
	EventGameUpdated      = "game-updated"
	EventGameStarted      = "game-started"
	EventRoundProcessed   = "round-processed"
	EventGameEnded        = "game-ended"
	EventGameDeleted      = "game-deleted"
	EventPlayerKicked     = "player-kicked"
	EventGamesListUpdated = "games-list-updated"
)

// Event is one broadcast message. GameID is empty for lobby-wide events such
// as games-list-updated.
type Event struct {
	Type      string      `json:"type"`
	GameID    string      `json:"game_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// CreateGameResult is returned once per game. The admin token is not
// retrievable afterwards.
type CreateGameResult struct {
	GameID     string            `json:"game_id"`
	AdminToken string            `json:"admin_token"`
	GameState  *engine.GameState `json:"game_state"`
}

// JoinResult identifies the new participant to the client.
type JoinResult struct {
	GameID    string            `json:"game_id"`
	PlayerID  string            `json:"player_id"`
	Role      engine.Role       `json:"role"`
	GameState *engine.GameState `json:"game_state"`
}

// GameSummary is the lobby listing row.
type GameSummary struct {
	ID          string          `json:"id"`
	Round       int             `json:"round"`
	MaxRounds   int             `json:"max_rounds"`
	IsStarted   bool            `json:"is_started"`
	IsEnded     bool            `json:"is_ended"`
	PlayerCount int             `json:"player_count"`
	Players     []PlayerSummary `json:"players"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PlayerSummary is the public view of a participant in a lobby listing.
type PlayerSummary struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role engine.Role `json:"role"`
}

// KickedPayload rides on player-kicked events so the ejected client can
// recognize itself.
type KickedPayload struct {
	PlayerID  string            `json:"player_id"`
	GameState *engine.GameState `json:"game_state"`
}
