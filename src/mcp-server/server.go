// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	x509certs "github.com/H0llyW00dzZ/app-store-server-go/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/app-store-server-go/src/mcp-server/templates"
	"github.com/H0llyW00dzZ/app-store-server-go/src/version"
	"github.com/mark3labs/mcp-go/server"
)

var appVersion = version.Version // default version

// GetVersion returns the current version of the MCP server.
//
// GetVersion provides access to the server's version string, which is set
// during server initialization via the Run function. This allows other
// components to access the version information for logging, user-agent
// strings, or API responses.
//
// Returns:
//   - string: The current server version (e.g., "0.3.1")
//
// The version is initially set to the default from the version package,
// but can be overridden when calling Run() with a specific version string.
func GetVersion() string {
	return appVersion
}

// Run starts the MCP server with App Store signed payload tools.
//
// Run initializes and starts the MCP server with all signed payload
// capabilities, including JWS verification against Apple root certificates,
// payload decoding, receipt transaction extraction, AI-powered analysis,
// and resource monitoring. The server supports graceful shutdown and
// integrates with the chain verification cache cleanup system.
//
// Parameters:
//   - version: Version string to set for the server (e.g., "0.3.1")
//   - configPath: Configuration file path; falls back to the
//     MCP_APPSTORE_CONFIG_FILE environment variable when empty
//
// Returns:
//   - error: Server startup or runtime error, nil on graceful shutdown
//
// Features:
//   - Signed payload verification and decoding (transactions, renewal info,
//     notifications, app transactions)
//   - Certificate chain inspection for JWS x5c headers
//   - Receipt transaction ID extraction
//   - AI-powered payload analysis with configurable AI endpoints
//   - Verification cache statistics and resource usage monitoring
//   - Static resources (config template, version, formats, status)
//   - Guided prompts for payload workflows
//
// Server Lifecycle:
//  1. Load configuration from the given path or environment
//  2. Bind the chain verification cache sweeper to the server context
//  3. Set up signal handling for graceful shutdown
//  4. Build MCP server using ServerBuilder pattern
//  5. Start stdio server with context cancellation support
//  6. Wait for either server error or shutdown signal
//
// Graceful Shutdown:
//   - Responds to SIGINT (Ctrl+C) and SIGTERM signals
//   - Cancels context to stop the cache sweeper and the stdio listener
//   - Returns nil on signal-based shutdown
//
// Error Handling:
//   - Configuration errors: Wrapped with "failed to load config" prefix
//   - Server build errors: Wrapped with "failed to build server" prefix
func Run(version, configPath string) error {
	// Set the version for GetVersion
	appVersion = version

	if configPath == "" {
		configPath = os.Getenv("MCP_APPSTORE_CONFIG_FILE")
	}

	// Load configuration
	config, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Create tools (called once and reused)
	tools, toolsWithConfig := createTools()

	// Load server instructions with tool information
	//
	// This approach is better as it uses dynamic content generation based on tools,
	// instead of hardcoded values
	instructions, err := loadInstructions(tools, toolsWithConfig)
	if err != nil {
		return fmt.Errorf("failed to load instructions: %w", err)
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bind the verification cache sweeper to the server lifetime
	startVerifierCacheCleanup(ctx)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create MCP server using ServerBuilder for better testability
	s, err := NewServerBuilder().
		WithConfig(config).
		WithEmbed(templates.MagicEmbed).
		WithVersion(version).
		WithCertManager(x509certs.New()).
		WithChainResolver(DefaultChainResolver{}).
		WithSampling(NewDefaultSamplingHandler(config, version)).
		WithTools(tools...).
		WithToolsWithConfig(toolsWithConfig...).
		WithResources(createResources()...).
		WithEmbeddedResources(createEmbeddedResources()...).
		WithEmbeddedPrompts(createPrompts()...).
		WithInstructions(instructions).
		WithPopulate().
		Build()
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	// Create stdio server to connect with our context
	stdioServer := server.NewStdioServer(s)

	// Start server with graceful shutdown support
	errChan := make(chan error, 1)
	go func() {
		errChan <- stdioServer.Listen(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-errChan:
		if err != nil && errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case <-ctx.Done():
		// Graceful shutdown triggered by signal
		return nil
	}
}
