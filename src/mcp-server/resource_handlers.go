// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/app-store-server-go/src/mcp-server/templates"
	"github.com/H0llyW00dzZ/app-store-server-go/src/version"
	"github.com/mark3labs/mcp-go/mcp"
)

// handleConfigResource handles requests for the configuration template resource.
// It provides a JSON template showing the expected configuration structure for the MCP server.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP resource read request for the config template
//
// Returns:
//   - A slice containing the configuration template as JSON content
//   - An error if JSON marshaling fails
//
// The template mirrors the verification, cache, defaults, and ai sections of
// the server configuration with their default values filled in.
func handleConfigResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exampleConfig := map[string]any{
		"verification": map[string]any{
			"rootCertificates":   []string{"/path/to/AppleRootCA-G3.cer"},
			"bundleId":           "com.example.app",
			"appAppleId":         1234567890,
			"environment":        "Production",
			"enableOnlineChecks": false,
		},
		"cache": map[string]any{
			"maxEntries":     32,
			"bucketMinutes":  15,
			"cleanupMinutes": 60,
		},
		"defaults": map[string]any{
			"timeoutSeconds": 30,
		},
		"ai": map[string]any{
			"endpoint":    "https://api.x.ai",
			"model":       "grok-4-1-fast-non-reasoning",
			"timeout":     30,
			"maxTokens":   4096,
			"temperature": 0.3,
		},
	}

	jsonData, err := json.MarshalIndent(exampleConfig, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config template: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "config://template",
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleVersionResource handles requests for version information resource.
// It provides server metadata including version, capabilities, and supported features.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP resource read request for version information
//
// Returns:
//   - A slice containing version and capability information as JSON content
//   - An error if JSON marshaling fails
//
// The resource includes server name, version, supported tools, resources, prompts with full metadata from the cache, and payload types.
// All capabilities (tools, resources, prompts) are loaded dynamically from the metadata cache with their meta information.
func handleVersionResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	// Load configurations dynamically
	prompts, err := loadPromptsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts config: %w", err)
	}

	tools, err := loadToolsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load tools config: %w", err)
	}

	resources, err := loadResourcesConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load resources config: %w", err)
	}

	versionInfo := map[string]any{
		"name":    "App Store Server Library",
		"version": version.Version,
		"type":    "MCP Server",
		"capabilities": map[string]any{
			"tools":     tools,     // Loaded from cache with meta
			"resources": resources, // Loaded from cache with meta
			"prompts":   prompts,   // Loaded from cache with meta
		},
		"supportedPayloadTypes": []string{"transaction", "renewal_info", "notification", "app_transaction"},
	}

	jsonData, err := json.MarshalIndent(versionInfo, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal version info: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "info://version",
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handlePayloadFormatsResource handles requests for payload format documentation resource.
// It serves embedded documentation about App Store signed payloads and legacy receipts.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP resource read request for payload format documentation
//   - embed: Embedded filesystem holding the documentation
//
// Returns:
//   - A slice containing the payload format documentation as markdown content
//   - An error if the embedded file cannot be read
//
// The documentation is stored in templates/payload-formats.md and describes the
// JWS structure, claim fields, and the legacy PKCS#7 receipt container.
func handlePayloadFormatsResource(ctx context.Context, request mcp.ReadResourceRequest, embed templates.EmbedFS) ([]mcp.ResourceContents, error) {
	content, err := embed.ReadFile("payload-formats.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read payload formats template: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "docs://payload-formats",
			MIMEType: "text/markdown",
			Text:     string(content),
		},
	}, nil
}

// handleStatusResource handles requests for server status information resource.
// It provides current server health, version, and operational status.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP resource read request for server status
//
// Returns:
//   - A slice containing server status information as JSON content
//   - An error if JSON marshaling fails
//
// The status includes server health, timestamp, version, and available capabilities
// (tools, resources, prompts with full metadata from the cache, supported payload types).
// All capabilities are loaded dynamically from the metadata cache with their meta information.
func handleStatusResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	// Load configurations dynamically
	prompts, err := loadPromptsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts config: %w", err)
	}

	tools, err := loadToolsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load tools config: %w", err)
	}

	resources, err := loadResourcesConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load resources config: %w", err)
	}

	statusInfo := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"server":    "App Store Server Library MCP Server",
		"version":   version.Version,
		"capabilities": map[string]any{
			"tools":     tools,     // Loaded from cache with meta
			"resources": resources, // Loaded from cache with meta
			"prompts":   prompts,   // Loaded from cache with meta
		},
		"supportedPayloadTypes": []string{"transaction", "renewal_info", "notification", "app_transaction"},
	}

	jsonData, err := json.MarshalIndent(statusInfo, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status info: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "status://server-status",
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
