package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/supplysim/beergame/game/config"
	"github.com/supplysim/beergame/game/engine"
	"github.com/supplysim/beergame/game/service"
)

// adminTokenHeader mirrors the REST API's admin header.
const adminTokenHeader = "X-Admin-Token"

// Client is a thin MCP client that proxies to the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools.
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Beer Distribution Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Beer Distribution Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Four players run a supply chain (retailer, wholesaler, distributor, factory).
Each round every player orders from their upstream partner; shipments arrive
after a fixed delay. Keep inventory and backlog costs low. The player with
the lowest total cost wins.

AVAILABLE TOOLS:
- create_game: Create a game from a preset, returns the admin token
- list_games: List all live games
- list_presets: List available scenario presets
- join_game: Take a role in a game, returns your player id
- game_state: Get the full state of a game
- place_order: Order from your upstream partner this round
- start_game: (admin) Begin round 1 once all four roles are filled
- process_round: (admin) Advance the simulation by one round
- override_demand: (admin) Rewrite customer demand for a future round
- end_game: (admin) End the game early
- game_results: Final cost ranking and bullwhip index

NOTE: Admin tools need the admin_token returned by create_game.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools.
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new game from a scenario preset. Returns the game id and the admin token needed for admin tools.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"preset": map[string]interface{}{
					"type":        "string",
					"description": "Preset id (classic, short-run, volatile). Defaults to classic.",
				},
			},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all live games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List available scenario presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPresets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_game",
		Description: "Join a game in one of the four supply chain roles. Returns your player id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Display name",
				},
				"role": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"retailer", "wholesaler", "distributor", "factory"},
					"description": "Supply chain role to take",
				},
			},
			Required: []string{"game_id", "name", "role"},
		},
	}, c.handleJoinGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the full state of a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_order",
		Description: "Place your order for the current round",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Your player id from join_game",
				},
				"quantity": map[string]interface{}{
					"type":        "integer",
					"description": "Units to order from your upstream partner",
				},
			},
			Required: []string{"game_id", "player_id", "quantity"},
		},
	}, c.handlePlaceOrder)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Admin: begin round 1. Requires all four roles filled.",
		InputSchema: adminOnlySchema(),
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "process_round",
		Description: "Admin: advance the simulation by one round",
		InputSchema: adminOnlySchema(),
	}, c.handleProcessRound)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "override_demand",
		Description: "Admin: rewrite the scheduled customer demand for a future round",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"admin_token": map[string]interface{}{
					"type":        "string",
					"description": "Admin token from create_game",
				},
				"round_index": map[string]interface{}{
					"type":        "integer",
					"description": "Zero-based index into the demand schedule; must not have elapsed",
				},
				"value": map[string]interface{}{
					"type":        "integer",
					"description": "New demand value",
				},
			},
			Required: []string{"game_id", "admin_token", "round_index", "value"},
		},
	}, c.handleOverrideDemand)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "end_game",
		Description: "Admin: end the game early and compute results",
		InputSchema: adminOnlySchema(),
	}, c.handleEndGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_results",
		Description: "Final cost ranking and bullwhip index of an ended game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameResults)
}

func adminOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"game_id": map[string]interface{}{
				"type":        "string",
				"description": "Game ID",
			},
			"admin_token": map[string]interface{}{
				"type":        "string",
				"description": "Admin token from create_game",
			},
		},
		Required: []string{"game_id", "admin_token"},
	}
}

// GetMCPServer returns the underlying MCP server for serving.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs one REST request, forwarding the admin token when set.
func (c *Client) apiCall(method, path, adminToken string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if adminToken != "" {
		req.Header.Set(adminTokenHeader, adminToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	preset, _ := args["preset"].(string)

	body := map[string]string{}
	if preset != "" {
		body["preset"] = preset
	}

	var created service.CreateGameResult
	if err := c.apiCall("POST", "/api/games", "", body, &created); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created game: %s\nAdmin token: %s\nRounds: %d, delivery delay: %d, demand pattern: %s\n\nShare the game id with players; keep the admin token to yourself.",
		created.GameID, created.AdminToken,
		created.GameState.MaxRounds, created.GameState.DeliveryDelay, created.GameState.DemandPattern)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                    `json:"count"`
		Games []*service.GameSummary `json:"games"`
	}
	if err := c.apiCall("GET", "/api/games", "", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Live Games (%d):\n\n", response.Count)
	for _, g := range response.Games {
		phase := "lobby"
		if g.IsEnded {
			phase = "ended"
		} else if g.IsStarted {
			phase = fmt.Sprintf("round %d/%d", g.Round, g.MaxRounds)
		}
		fmt.Fprintf(&b, "- %s (%s, %d/4 players)\n", g.ID, phase, g.PlayerCount)
		for _, p := range g.Players {
			fmt.Fprintf(&b, "    %s: %s\n", p.Role, p.Name)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var presets []*config.Preset
	if err := c.apiCall("GET", "/api/presets", "", nil, &presets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Presets:\n\n")
	for _, p := range presets {
		fmt.Fprintf(&b, "- %s: %s\n  %s\n  %d rounds, %s demand, delay %d\n\n",
			p.ID, p.Name, p.Description,
			p.Config.MaxRounds, p.Config.DemandPattern, p.Config.DeliveryDelay)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleJoinGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	name, _ := args["name"].(string)
	role, _ := args["role"].(string)

	var joined service.JoinResult
	err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/join", gameID), "", map[string]string{
		"name": name,
		"role": role,
	}, &joined)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Joined game %s as %s\nYour player id: %s\n\n%s",
		gameID, joined.Role, joined.PlayerID, formatGameState(joined.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)

	var state engine.GameState
	if err := c.apiCall("GET", fmt.Sprintf("/api/games/%s", gameID), "", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handlePlaceOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	playerID, _ := args["player_id"].(string)
	quantity := 0
	if q, ok := args["quantity"].(float64); ok {
		quantity = int(q)
	}

	var state engine.GameState
	err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/orders", gameID), "", map[string]interface{}{
		"player_id": playerID,
		"quantity":  quantity,
	}, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Order placed: %d units\n\n%s", quantity, formatGameState(&state))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, token := adminArgs(request)

	var state engine.GameState
	if err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/start", gameID), token, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Game started.\n\n" + formatGameState(&state)), nil
}

func (c *Client) handleProcessRound(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, token := adminArgs(request)

	var state engine.GameState
	if err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/process", gameID), token, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	header := fmt.Sprintf("Round processed; now at round %d/%d.\n\n", state.Round, state.MaxRounds)
	if state.IsEnded {
		header = "Final round processed; the game has ended. Use game_results for the ranking.\n\n"
	}
	return mcp.NewToolResultText(header + formatGameState(&state)), nil
}

func (c *Client) handleOverrideDemand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	token, _ := args["admin_token"].(string)
	roundIndex := 0
	if v, ok := args["round_index"].(float64); ok {
		roundIndex = int(v)
	}
	value := 0
	if v, ok := args["value"].(float64); ok {
		value = int(v)
	}

	err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/demand", gameID), token, map[string]int{
		"round_index": roundIndex,
		"value":       value,
	}, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Demand for schedule index %d set to %d.", roundIndex, value)), nil
}

func (c *Client) handleEndGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, token := adminArgs(request)

	var results engine.GameResults
	if err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/end", gameID), token, nil, &results); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Game ended.\n\n" + formatResults(&results)), nil
}

func (c *Client) handleGameResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)

	var results engine.GameResults
	if err := c.apiCall("GET", fmt.Sprintf("/api/games/%s/results", gameID), "", nil, &results); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatResults(&results)), nil
}

func adminArgs(request mcp.CallToolRequest) (gameID, token string) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ = args["game_id"].(string)
	token, _ = args["admin_token"].(string)
	return gameID, token
}

// Formatting helpers

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder

	phase := "lobby"
	if state.IsEnded {
		phase = "ended"
	} else if state.IsStarted {
		phase = fmt.Sprintf("round %d/%d", state.Round, state.MaxRounds)
	}
	fmt.Fprintf(&b, "Game %s (%s)\n", state.ID, phase)
	fmt.Fprintf(&b, "Delivery delay: %d | Costs: %.2f/unit held, %.2f/unit backlogged\n\n",
		state.DeliveryDelay, state.InventoryCostPerUnit, state.StockoutCostPerUnit)

	if state.IsStarted && state.Round >= 1 && state.Round <= len(state.CustomerDemand) {
		fmt.Fprintf(&b, "Customer demand this round: %d\n\n", state.CustomerDemand[state.Round-1])
	}

	for _, p := range state.Players {
		ordered := " "
		if p.HasOrdered {
			ordered = "✓"
		}
		fmt.Fprintf(&b, "[%s] %-12s %s\n", ordered, p.Role, p.Name)
		fmt.Fprintf(&b, "    inventory=%d backlog=%d in-transit=%v cost=%.2f\n",
			p.Inventory, p.Backlog, p.IncomingDeliveries, p.TotalCost)
	}

	if state.IsStarted && !state.IsEnded {
		if state.AllOrdered {
			b.WriteString("\nAll players have ordered; the round can be processed.")
		} else {
			b.WriteString("\nWaiting for orders.")
		}
	}

	return b.String()
}

func formatResults(results *engine.GameResults) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Results for game %s (%d rounds played)\n", results.GameID, len(results.Rounds))
	fmt.Fprintf(&b, "Bullwhip index: %.2f\n\n", results.BullwhipIndex)

	b.WriteString("Final ranking (lowest cost wins):\n")
	for i, score := range results.FinalScores {
		fmt.Fprintf(&b, "%d. %s (%s) total cost %.2f\n", i+1, score.Name, score.Role, score.TotalCost)
	}

	return b.String()
}
