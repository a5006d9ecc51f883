package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/supplysim/beergame/game/config"
	"github.com/supplysim/beergame/game/engine"
	"github.com/supplysim/beergame/game/service"
	"github.com/supplysim/beergame/game/session"
	"github.com/supplysim/beergame/transport/websocket"
)

// adminTokenHeader carries the admin capability on privileged routes.
const adminTokenHeader = "X-Admin-Token"

// Server represents the REST API server.
type Server struct {
	service service.GameService
	presets *config.Manager
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. The hub may be nil when websockets are
// not served.
func NewServer(gameService service.GameService, presets *config.Manager, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		presets: presets,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Game lifecycle
	api.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleDeleteGame).Methods("DELETE")

	// Participation
	api.HandleFunc("/games/{id}/join", s.handleJoinGame).Methods("POST")
	api.HandleFunc("/games/{id}/players/{playerId}", s.handleKickPlayer).Methods("DELETE")
	api.HandleFunc("/games/{id}/orders", s.handlePlaceOrder).Methods("POST")

	// Admin flow
	api.HandleFunc("/games/{id}/start", s.handleStartGame).Methods("POST")
	api.HandleFunc("/games/{id}/process", s.handleProcessRound).Methods("POST")
	api.HandleFunc("/games/{id}/demand", s.handleOverrideDemand).Methods("POST")
	api.HandleFunc("/games/{id}/end", s.handleEndGame).Methods("POST")

	// Outcome
	api.HandleFunc("/games/{id}/results", s.handleGetResults).Methods("GET")

	// Presets
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Static files for the browser client
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps service and engine errors onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrGameNotFound),
		errors.Is(err, engine.ErrPlayerNotFound),
		errors.Is(err, config.ErrPresetNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden

	case errors.Is(err, engine.ErrNotStarted),
		errors.Is(err, engine.ErrAlreadyStarted),
		errors.Is(err, engine.ErrEnded),
		errors.Is(err, engine.ErrNotEnded),
		errors.Is(err, engine.ErrInsufficientPlayers):
		return http.StatusConflict

	case errors.Is(err, engine.ErrInvalidRole),
		errors.Is(err, engine.ErrNegativeQuantity),
		errors.Is(err, engine.ErrInvalidRoundIndex),
		errors.Is(err, config.ErrInvalidPreset):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

func adminToken(r *http.Request) string {
	return r.Header.Get(adminTokenHeader)
}

// Game Lifecycle Handlers

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preset string             `json:"preset,omitempty"`
		Config *engine.GameConfig `json:"config,omitempty"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	gameConfig := req.Config
	if gameConfig == nil {
		if req.Preset == "" {
			gameConfig = s.presets.Default()
		} else {
			var err error
			gameConfig, err = s.presets.Get(req.Preset)
			if err != nil {
				respondDomainError(w, err)
				return
			}
		}
	}

	result, err := s.service.CreateGame(r.Context(), gameConfig)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"games": games,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), gameID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	if err := s.service.DeleteGame(r.Context(), gameID, adminToken(r)); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Game %s deleted", gameID),
	})
}

// Participation Handlers

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	role, err := engine.ParseRole(req.Role)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	result, err := s.service.JoinGame(r.Context(), gameID, req.Name, role)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleKickPlayer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.service.KickPlayer(r.Context(), vars["id"], adminToken(r), vars["playerId"]); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Player %s kicked", vars["playerId"]),
	})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		PlayerID string `json:"player_id"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.PlaceOrder(r.Context(), gameID, req.PlayerID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// Admin Flow Handlers

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	state, err := s.service.StartGame(r.Context(), gameID, adminToken(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleProcessRound(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	state, err := s.service.ProcessRound(r.Context(), gameID, adminToken(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleOverrideDemand(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		RoundIndex int `json:"round_index"`
		Value      int `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.service.OverrideDemand(r.Context(), gameID, adminToken(r), req.RoundIndex, req.Value); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Demand overridden",
		"round_index": req.RoundIndex,
		"value":       req.Value,
	})
}

func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	results, err := s.service.EndGame(r.Context(), gameID, adminToken(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// Outcome Handlers

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	results, err := s.service.GetResults(r.Context(), gameID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// Preset Handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.presets.List())
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websockets not enabled", http.StatusNotImplemented)
		return
	}

	// Empty game id subscribes to the lobby stream.
	gameID := r.URL.Query().Get("game")
	if gameID != "" {
		if _, err := s.service.GetGameState(r.Context(), gameID); err != nil {
			http.Error(w, "Unknown game", http.StatusNotFound)
			return
		}
	}

	s.hub.ServeWS(w, r, gameID)
}

// Health check

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
