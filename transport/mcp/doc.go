// Package mcp exposes the game to MCP-speaking agents.
//
// Client is a thin proxy: every tool call becomes a request against the REST
// API, so the MCP surface can never drift from what browsers see. Admin tools
// accept an admin_token argument that is forwarded as the X-Admin-Token
// header. The underlying server from mark3labs/mcp-go can be served over
// stdio or mounted as a streamable HTTP endpoint.
package mcp
