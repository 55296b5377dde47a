// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crypto/x509"

	"github.com/H0llyW00dzZ/app-store-server-go/src/internal/helper/gc"
	x509chain "github.com/H0llyW00dzZ/app-store-server-go/src/internal/x509/chain"
	x509certs "github.com/H0llyW00dzZ/app-store-server-go/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/app-store-server-go/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CertificateManager defines the interface for certificate operations.
// It provides methods for encoding and decoding certificates in various formats.
//
// Methods:
//   - Decode: Parses a single certificate from PEM or DER data
//   - DecodeMultiple: Parses multiple certificates from concatenated PEM data
//   - EncodePEM: Encodes a certificate to PEM format
//   - EncodeMultiplePEM: Encodes multiple certificates to concatenated PEM format
//   - EncodeDER: Encodes a certificate to DER format
//   - EncodeMultipleDER: Encodes multiple certificates to concatenated DER format
//
// Example usage:
//
//	cert, err := manager.Decode(pemData)
//	if err != nil {
//	    return err
//	}
//	pemBytes := manager.EncodePEM(cert)
type CertificateManager interface {
	Decode(data []byte) (*x509.Certificate, error)
	DecodeMultiple(data []byte) ([]*x509.Certificate, error)
	EncodePEM(cert *x509.Certificate) []byte
	EncodeMultiplePEM(certs []*x509.Certificate) []byte
	EncodeDER(cert *x509.Certificate) []byte
	EncodeMultipleDER(certs []*x509.Certificate) []byte
}

// ChainResolver defines the interface for certificate chain verification.
// It provides a factory for chain verifiers pinned to a trusted root store.
//
// Methods:
//   - NewVerifier: Creates a chain verifier from a root store and options
//
// Example usage:
//
//	resolver := DefaultChainResolver{}
//	chainVerifier := resolver.NewVerifier(roots, x509chain.WithoutRevocationCheck())
type ChainResolver interface {
	NewVerifier(roots *x509chain.RootStore, opts ...x509chain.Option) *x509chain.Verifier
}

// DefaultChainResolver implements ChainResolver using the x509chain.NewVerifier function.
// It provides a default implementation that creates chain verifiers using the internal chain package.
//
// This implementation is used when no custom chain resolver is provided to the server builder.
type DefaultChainResolver struct{}

// NewVerifier creates a chain verifier using the [x509chain.NewVerifier] function.
// It takes a trusted root store and verifier options.
//
// Parameters:
//   - roots: The trusted root store to pin chain verification to
//   - opts: Verifier options such as clock and cache overrides
//
// Returns:
//   - A pointer to the newly created chain verifier
//
// The returned verifier resolves and checks certificate chains against the
// pinned roots, including Apple OID markers and revocation status.
func (d DefaultChainResolver) NewVerifier(roots *x509chain.RootStore, opts ...x509chain.Option) *x509chain.Verifier {
	return x509chain.NewVerifier(roots, opts...)
}

// Package-level dependencies shared by the tool handlers. Build assigns these
// from the configured ServerDependencies before any handler can execute, so
// custom implementations injected through the builder reach the handlers.
var (
	certManager   CertificateManager = x509certs.New()
	chainResolver ChainResolver      = DefaultChainResolver{}
)

// ToolHandler defines the signature for tool handlers that matches [MCP] server expectations.
// It processes tool calls and returns results.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP tool call request containing arguments and metadata
//
// Returns:
//   - The tool execution result or an error if the tool failed
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolHandlerWithConfig defines tool handlers that require access to server configuration.
// It extends ToolHandler to include a Config parameter for tools that need configuration data.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP tool call request containing arguments and metadata
//   - config: Pointer to the server configuration containing verification and AI settings
//
// Returns:
//   - The tool execution result or an error if the tool failed
//
// This type is used for tools that need access to configuration like trusted
// roots, the expected app identity, or AI API keys.
type ToolHandlerWithConfig func(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error)

// ResourceHandler defines the signature for resource handlers that provide static or dynamic resources.
// It processes resource read requests and returns the resource contents.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP resource read request containing the resource URI
//
// Returns:
//   - A slice of resource contents or an error if the resource cannot be read
//
// Resource handlers can return multiple content items for complex resources.
type ResourceHandler = func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)

// ResourceHandlerWithEmbed defines resource handlers that read from the embedded filesystem.
// It extends ResourceHandler with an EmbedFS parameter for resources backed by embedded documentation.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP resource read request containing the resource URI
//   - embed: Embedded filesystem holding templates and documentation
//
// Returns:
//   - A slice of resource contents or an error if the resource cannot be read
type ResourceHandlerWithEmbed func(ctx context.Context, request mcp.ReadResourceRequest, embed templates.EmbedFS) ([]mcp.ResourceContents, error)

// PromptHandler defines the signature for prompt handlers that provide predefined prompts.
// It processes prompt requests and returns prompt content with optional arguments.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP prompt request containing the prompt name and arguments
//
// Returns:
//   - The prompt result containing messages and description, or an error if the prompt is not found
//
// Prompt handlers are used for guided workflows like payload analysis or notification triage.
type PromptHandler = func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error)

// PromptHandlerWithEmbed defines prompt handlers that render embedded templates.
// It extends PromptHandler with an EmbedFS parameter for prompts whose message
// sequences live in embedded markdown files.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP prompt request containing the prompt name and arguments
//   - embed: Embedded filesystem holding the prompt templates
//
// Returns:
//   - The prompt result containing messages and description, or an error if rendering fails
type PromptHandlerWithEmbed func(ctx context.Context, request mcp.GetPromptRequest, embed templates.EmbedFS) (*mcp.GetPromptResult, error)

// ToolDefinition holds a tool definition and its handler.
// It pairs an MCP tool specification with its implementation function.
//
// Fields:
//   - Tool: The MCP tool definition containing name, description, and input schema
//   - Handler: The function that implements the tool's logic
//   - Role: Stable identifier used by instruction templates to reference the tool
//
// This struct is used when registering tools that don't require configuration access.
type ToolDefinition struct {
	Tool    mcp.Tool
	Handler ToolHandler
	Role    string
}

// ToolDefinitionWithConfig holds a tool definition that requires configuration access.
// It pairs an MCP tool specification with a handler that receives server configuration.
//
// Fields:
//   - Tool: The MCP tool definition containing name, description, and input schema
//   - Handler: The function that implements the tool's logic with config access
//   - Role: Stable identifier used by instruction templates to reference the tool
//
// This struct is used for tools that need configuration like trusted roots or AI API keys.
// The handler receives a Config parameter in addition to the standard context and request.
type ToolDefinitionWithConfig struct {
	Tool    mcp.Tool
	Handler ToolHandlerWithConfig
	Role    string
}

// ServerResourceWithEmbed holds a resource definition whose handler reads from
// the embedded filesystem. The builder binds the configured EmbedFS into the
// handler when the server is built.
//
// Fields:
//   - Resource: The MCP resource definition containing URI, name, and MIME type
//   - Handler: The function that serves the resource from embedded files
type ServerResourceWithEmbed struct {
	Resource mcp.Resource
	Handler  ResourceHandlerWithEmbed
}

// ServerPromptWithEmbed holds a prompt definition whose handler renders an
// embedded template. The builder binds the configured EmbedFS into the
// handler when the server is built.
//
// Fields:
//   - Prompt: The MCP prompt definition containing name, description, and arguments
//   - Handler: The function that renders the prompt from embedded templates
type ServerPromptWithEmbed struct {
	Prompt  mcp.Prompt
	Handler PromptHandlerWithEmbed
}

// ServerDependencies holds all dependencies needed to create the MCP server.
// It consolidates all required components for server initialization using the builder pattern.
//
// Fields:
//   - Config: Server configuration containing verification and AI settings
//   - Embed: Embedded filesystem for static resources and templates
//   - Version: Server version string for User-Agent headers and identification
//   - CertManager: Interface for certificate encoding/decoding operations
//   - ChainResolver: Interface for creating chain verifiers
//   - Tools: List of tool definitions without configuration requirements
//   - ToolsWithConfig: List of tool definitions that need configuration access
//   - Resources: List of static and dynamic resources provided by the server
//   - ResourcesWithEmbed: List of resources backed by the embedded filesystem
//   - Prompts: List of predefined prompts for guided workflows
//   - PromptsWithEmbed: List of prompts rendered from embedded templates
//   - SamplingHandler: Handler for bidirectional AI communication and streaming responses
//   - Instructions: Server instructions sent to MCP clients during initialization
//   - PopulateCache: Whether to populate the metadata cache for resource handlers
//
// This struct is used internally by ServerBuilder and should not be instantiated directly.
type ServerDependencies struct {
	Config             *Config
	Embed              templates.EmbedFS
	Version            string
	CertManager        CertificateManager
	ChainResolver      ChainResolver
	Tools              []ToolDefinition
	ToolsWithConfig    []ToolDefinitionWithConfig
	Resources          []server.ServerResource
	ResourcesWithEmbed []ServerResourceWithEmbed
	Prompts            []server.ServerPrompt
	PromptsWithEmbed   []ServerPromptWithEmbed
	SamplingHandler    client.SamplingHandler // Added for bidirectional AI communication
	Instructions       string
	PopulateCache      bool
}

// ServerBuilder helps construct the [MCP] server with proper dependencies using a fluent interface.
// It implements the builder pattern to configure and create MCP servers with all required components.
//
// The builder allows chaining configuration methods and provides default implementations
// for common dependencies. Use NewServerBuilder() to create an instance, chain configuration
// methods, and call Build() to create the server.
//
// Example:
//
//	builder := NewServerBuilder().
//	    WithConfig(config).
//	    WithVersion("1.0.0").
//	    WithDefaultTools().
//	    WithSampling(samplingHandler)
//	server, err := builder.Build()
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type ServerBuilder struct{ deps ServerDependencies }

// NewServerBuilder creates a new server builder with default empty dependencies.
// It initializes a ServerBuilder instance that can be configured using the fluent interface methods.
//
// Returns:
//   - A pointer to a new ServerBuilder instance ready for configuration
//
// The returned builder has no dependencies configured and should be chained with
// configuration methods before calling Build().
func NewServerBuilder() *ServerBuilder { return &ServerBuilder{} }

// WithConfig sets the server configuration containing verification and AI settings.
// It configures the server with the provided Config struct.
//
// Parameters:
//   - config: Pointer to the server configuration (can be nil for basic functionality)
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// The configuration includes trusted roots, the expected app identity, cache
// tuning, and AI API settings. If config is nil, payload verification and AI
// analysis will not be available.
func (b *ServerBuilder) WithConfig(config *Config) *ServerBuilder {
	b.deps.Config = config
	return b
}

// WithEmbed sets the embedded filesystem for static resources and templates.
// It configures the server with an embedded filesystem containing templates and documentation.
//
// Parameters:
//   - embed: The embedded filesystem (typically templates.MagicEmbed)
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// The embedded filesystem serves payload format documentation and renders the
// prompt templates. If not set, embedded resources and prompts are skipped.
func (b *ServerBuilder) WithEmbed(embed templates.EmbedFS) *ServerBuilder {
	b.deps.Embed = embed
	return b
}

// WithVersion sets the server version string used for identification and User-Agent headers.
// It configures the server with a version string that appears in logs and HTTP requests.
//
// Parameters:
//   - version: The server version string (e.g., "1.0.0" or "v1.2.3")
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// The version is used in User-Agent headers for HTTP requests and server identification.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.deps.Version = version
	return b
}

// WithCertManager sets the certificate manager for encoding and decoding operations.
// It configures the server with a CertificateManager implementation for PEM/DER operations.
//
// Parameters:
//   - cm: The certificate manager implementation (must implement CertificateManager interface)
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// If not set, the default implementation from the internal certs package is used.
func (b *ServerBuilder) WithCertManager(cm CertificateManager) *ServerBuilder {
	b.deps.CertManager = cm
	return b
}

// WithChainResolver sets the chain resolver for creating chain verifiers.
// It configures the server with a ChainResolver implementation for chain verification.
//
// Parameters:
//   - cr: The chain resolver implementation (must implement ChainResolver interface)
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// If not set, the default implementation from the internal chain package is used.
func (b *ServerBuilder) WithChainResolver(cr ChainResolver) *ServerBuilder {
	b.deps.ChainResolver = cr
	return b
}

// WithTools adds tool definitions to the server that don't require configuration access.
// It registers multiple tools that can be called by MCP clients.
//
// Parameters:
//   - tools: Variable number of ToolDefinition structs containing tool specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// Tools added with this method do not receive the server Config parameter.
// Use WithToolsWithConfig for tools that need configuration access.
func (b *ServerBuilder) WithTools(tools ...ToolDefinition) *ServerBuilder {
	b.deps.Tools = append(b.deps.Tools, tools...)
	return b
}

// WithToolsWithConfig adds tool definitions that require configuration access to the server.
// It registers multiple tools that receive the server Config parameter in their handlers.
//
// Parameters:
//   - tools: Variable number of ToolDefinitionWithConfig structs containing tool specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// Tools added with this method receive access to server configuration like trusted
// roots and AI API keys. Use WithTools for tools that don't need configuration access.
func (b *ServerBuilder) WithToolsWithConfig(tools ...ToolDefinitionWithConfig) *ServerBuilder {
	b.deps.ToolsWithConfig = append(b.deps.ToolsWithConfig, tools...)
	return b
}

// WithResources adds static and dynamic resources to the MCP server.
// It registers resources that can be read by MCP clients using resource URIs.
//
// Parameters:
//   - resources: Variable number of server.ServerResource structs containing resource specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// Resources can provide static content (like configuration templates) or dynamic content
// (like server status). Clients access resources using URIs like "info://version".
func (b *ServerBuilder) WithResources(resources ...server.ServerResource) *ServerBuilder {
	b.deps.Resources = append(b.deps.Resources, resources...)
	return b
}

// WithEmbeddedResources adds resources backed by the embedded filesystem.
// It registers resources whose handlers read documentation from the EmbedFS
// configured via WithEmbed.
//
// Parameters:
//   - resources: Variable number of ServerResourceWithEmbed structs containing resource specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// The embedded filesystem is bound into each handler during Build, so these
// resources are only served when WithEmbed was called.
func (b *ServerBuilder) WithEmbeddedResources(resources ...ServerResourceWithEmbed) *ServerBuilder {
	b.deps.ResourcesWithEmbed = append(b.deps.ResourcesWithEmbed, resources...)
	return b
}

// WithPrompts adds predefined prompts to the MCP server for guided workflows.
// It registers prompts that provide structured interactions for common tasks.
//
// Parameters:
//   - prompts: Variable number of server.ServerPrompt structs containing prompt specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// Prompts are used for workflows like payload analysis or notification triage,
// providing clients with predefined conversation starters and argument schemas.
func (b *ServerBuilder) WithPrompts(prompts ...server.ServerPrompt) *ServerBuilder {
	b.deps.Prompts = append(b.deps.Prompts, prompts...)
	return b
}

// WithEmbeddedPrompts adds prompts rendered from embedded templates.
// It registers prompts whose handlers load their message sequences from
// markdown templates in the EmbedFS configured via WithEmbed.
//
// Parameters:
//   - prompts: Variable number of ServerPromptWithEmbed structs containing prompt specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// The embedded filesystem is bound into each handler during Build, so these
// prompts are only served when WithEmbed was called.
func (b *ServerBuilder) WithEmbeddedPrompts(prompts ...ServerPromptWithEmbed) *ServerBuilder {
	b.deps.PromptsWithEmbed = append(b.deps.PromptsWithEmbed, prompts...)
	return b
}

// WithSampling adds a sampling handler for bidirectional AI communication.
// It configures the server to support AI-powered features like payload analysis.
//
// Parameters:
//   - handler: The sampling handler implementation for AI API integration
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// The sampling handler enables real-time AI analysis of payloads with streaming responses.
// If not set, AI-powered features will return static guidance messages.
func (b *ServerBuilder) WithSampling(handler client.SamplingHandler) *ServerBuilder {
	// Note: Sampling handler is stored but not in ServerDependencies
	// It's used during Build() to enable sampling on the server
	b.deps.SamplingHandler = handler
	return b
}

// WithInstructions sets the server instructions sent to MCP clients.
// It configures the instruction text delivered during the MCP initialization
// handshake, describing the server's capabilities and workflows.
//
// Parameters:
//   - instructions: The rendered instruction text (typically from loadInstructions)
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// Empty instructions are allowed; the server then initializes without them.
func (b *ServerBuilder) WithInstructions(instructions string) *ServerBuilder {
	b.deps.Instructions = instructions
	return b
}

// WithPopulate enables metadata cache population during Build.
// It makes tool, prompt, and resource metadata available to resource handlers
// like the version resource, which report the server's capabilities.
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// Population happens once per process; repeated builds reuse the cache.
func (b *ServerBuilder) WithPopulate() *ServerBuilder {
	b.deps.PopulateCache = true
	return b
}

// WithDefaultTools adds the default App Store payload tools to the server.
// It automatically registers all standard payload-related tools using createTools.
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// This includes tools for payload verification and decoding, certificate chain
// inspection, receipt transaction extraction, cache statistics, resource usage,
// and AI-powered analysis. The tools are added to both the regular tools list
// and tools-with-config list as appropriate.
func (b *ServerBuilder) WithDefaultTools() *ServerBuilder {
	tools, toolsWithConfig := createTools()
	b.deps.Tools = append(b.deps.Tools, tools...)
	b.deps.ToolsWithConfig = append(b.deps.ToolsWithConfig, toolsWithConfig...)
	return b
}

// Build creates the [MCP] server with all configured dependencies.
// It validates the configuration and constructs a fully configured MCP server instance.
//
// Returns:
//   - A pointer to the configured MCPServer instance
//   - An error if the configuration is invalid or server creation fails
//
// The method enables sampling if a sampling handler was provided, registers all tools,
// resources, and prompts (binding the embedded filesystem into embed-backed handlers),
// and returns a ready-to-use server. The server will handle MCP protocol communication
// and route requests to the appropriate handlers.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
func (b *ServerBuilder) Build() (*server.MCPServer, error) {
	opts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
	}
	if b.deps.Instructions != "" {
		opts = append(opts, server.WithInstructions(b.deps.Instructions))
	}

	s := server.NewMCPServer(
		"App Store Server Library",
		b.deps.Version,
		opts...,
	)

	// Enable sampling for bidirectional AI communication if handler provided
	if b.deps.SamplingHandler != nil {
		s.EnableSampling()
		// Note: The sampling handler is managed internally by the server
		// when clients connect and request sampling
	}

	// Publish injected implementations to the package-level handler dependencies
	if b.deps.CertManager != nil {
		certManager = b.deps.CertManager
	}
	if b.deps.ChainResolver != nil {
		chainResolver = b.deps.ChainResolver
	}

	// Add tools
	for _, tool := range b.deps.Tools {
		s.AddTool(tool.Tool, tool.Handler)
	}

	// Add tools that need config (wrap the handler)
	for _, tool := range b.deps.ToolsWithConfig {
		handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return tool.Handler(ctx, request, b.deps.Config)
		}
		s.AddTool(tool.Tool, handler)
	}

	// Materialize embed-backed resources and prompts into standard server
	// entries by binding the configured embedded filesystem into their handlers
	resources := append([]server.ServerResource(nil), b.deps.Resources...)
	if b.deps.Embed != nil {
		for _, resource := range b.deps.ResourcesWithEmbed {
			handler := resource.Handler
			resources = append(resources, server.ServerResource{
				Resource: resource.Resource,
				Handler: func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
					return handler(ctx, request, b.deps.Embed)
				},
			})
		}
	}

	prompts := append([]server.ServerPrompt(nil), b.deps.Prompts...)
	if b.deps.Embed != nil {
		for _, prompt := range b.deps.PromptsWithEmbed {
			handler := prompt.Handler
			prompts = append(prompts, server.ServerPrompt{
				Prompt: prompt.Prompt,
				Handler: func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
					return handler(ctx, request, b.deps.Embed)
				},
			})
		}
	}

	// Add resources
	for _, resource := range resources {
		s.AddResource(resource.Resource, resource.Handler)
	}

	// Add prompts
	for _, prompt := range prompts {
		s.AddPrompt(prompt.Prompt, prompt.Handler)
	}

	// Populate the metadata cache so resource handlers can report capabilities
	if b.deps.PopulateCache {
		serverCache := getServerCache()
		populateToolMetadataCache(serverCache, b.deps.Tools, b.deps.ToolsWithConfig)
		populatePromptMetadataCache(serverCache, prompts)
		populateResourceMetadataCache(serverCache, resources)
	}

	return s, nil
}

// DefaultSamplingHandler provides configurable AI API integration for bidirectional communication
type DefaultSamplingHandler struct {
	apiKey        string
	endpoint      string
	model         string
	timeout       time.Duration
	client        *http.Client
	version       string
	TokenCallback func(string) // Callback for streaming tokens
}

// NewDefaultSamplingHandler creates a new sampling handler with configurable AI settings
func NewDefaultSamplingHandler(config *Config, version string) *DefaultSamplingHandler {
	return &DefaultSamplingHandler{
		apiKey:   config.AI.APIKey,
		endpoint: config.AI.Endpoint,
		model:    config.AI.Model,
		version:  version,
		timeout:  time.Duration(config.AI.Timeout) * time.Second,
		client:   &http.Client{Timeout: time.Duration(config.AI.Timeout) * time.Second},
	}
}

// CreateMessage handles sampling requests by calling the configured AI API
func (h *DefaultSamplingHandler) CreateMessage(ctx context.Context, request mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	// Get buffer from pool for efficient memory usage
	// Note: Buffer is primarily used for error response reading.
	// During successful streaming, it remains allocated but unused until the function returns.
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()         // Reset buffer to prevent data leaks
		gc.Default.Put(buf) // Return buffer to pool for reuse
	}()

	// If no API key, return guidance for enabling AI integration
	if h.apiKey == "" {
		return h.handleNoAPIKey()
	}

	// Convert MCP messages to OpenAI-compatible format
	messages := h.convertMessages(request.Messages)

	// Prepare API request
	model := h.selectModel(request.ModelPreferences)
	requestMessages := h.prepareMessages(messages, request.SystemPrompt)
	apiRequest := h.buildAPIRequest(model, requestMessages, request)

	// Create and send HTTP request
	resp, err := h.sendAPIRequest(ctx, apiRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Check response status
	if resp.StatusCode != http.StatusOK {
		return nil, h.handleAPIError(resp, buf)
	}

	// Handle streaming response
	content, modelName, stopReason, err := h.parseStreamingResponse(resp.Body, model)
	if err != nil {
		return nil, fmt.Errorf("error reading streaming response: %w", err)
	}

	return h.buildSamplingResult(content, modelName, stopReason), nil
}

// handleNoAPIKey returns a helpful message when no API key is configured
func (h *DefaultSamplingHandler) handleNoAPIKey() (*mcp.CreateMessageResult, error) {
	response := "AI API key not configured. Set the APPSTORE_AI_APIKEY environment variable " +
		"or the ai.apiKey config field to enable AI-powered payload analysis. " +
		"Without a key the analysis tools return the prepared context and prompt only."

	return &mcp.CreateMessageResult{
		SamplingMessage: mcp.SamplingMessage{
			Role:    mcp.RoleAssistant,
			Content: mcp.NewTextContent(response),
		},
		Model:      "not-configured",
		StopReason: "end",
	}, nil
}

// convertMessages converts MCP messages to OpenAI-compatible format
func (h *DefaultSamplingHandler) convertMessages(mcpMessages []mcp.SamplingMessage) []map[string]any {
	var messages []map[string]any
	for _, msg := range mcpMessages {
		message := map[string]any{
			"role": string(msg.Role),
		}

		// Handle different content types
		if textContent, ok := msg.Content.(mcp.TextContent); ok {
			message["content"] = textContent.Text
		} else {
			// For other content types, convert to string representation
			message["content"] = fmt.Sprintf("%v", msg.Content)
		}

		messages = append(messages, message)
	}
	return messages
}

// selectModel chooses the appropriate model based on preferences
func (h *DefaultSamplingHandler) selectModel(preferences *mcp.ModelPreferences) string {
	model := h.model // Use configured default model
	if preferences != nil && len(preferences.Hints) > 0 {
		// Use the first model hint if available
		model = preferences.Hints[0].Name
	}
	return model
}

// prepareMessages adds system prompt if provided
func (h *DefaultSamplingHandler) prepareMessages(messages []map[string]any, systemPrompt string) []map[string]any {
	if systemPrompt == "" {
		return messages
	}

	systemMessage := map[string]any{
		"role":    "system",
		"content": systemPrompt,
	}
	return append([]map[string]any{systemMessage}, messages...)
}

// buildAPIRequest creates the API request payload
func (h *DefaultSamplingHandler) buildAPIRequest(model string, messages []map[string]any, request mcp.CreateMessageRequest) map[string]any {
	apiRequest := map[string]any{
		"model":       model,
		"messages":    messages,
		"max_tokens":  request.MaxTokens,
		"temperature": request.Temperature,
		"stream":      true, // Enable streaming for better performance and real-time responses
	}

	// Add stop sequences if provided
	if len(request.StopSequences) > 0 {
		apiRequest["stop"] = request.StopSequences
	}

	return apiRequest
}

// sendAPIRequest creates and sends the HTTP request
func (h *DefaultSamplingHandler) sendAPIRequest(ctx context.Context, apiRequest map[string]any) (*http.Response, error) {
	// Marshal request to JSON
	reqBody, err := json.Marshal(apiRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal API request: %w", err)
	}

	// Create HTTP request using bytes.Reader for request body
	req, err := http.NewRequestWithContext(ctx, "POST", h.endpoint+"/v1/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("User-Agent", "App-Store-Server-Go-MCP/"+h.version+" (+https://github.com/H0llyW00dzZ/app-store-server-go)")

	// Make the request
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	return resp, nil
}

// handleAPIError processes API error responses
func (h *DefaultSamplingHandler) handleAPIError(resp *http.Response, buf gc.Buffer) error {
	// Read error response body using buffer pool
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("AI API error (status %d): failed to read error response: %w", resp.StatusCode, err)
	}
	return fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(buf.Bytes()))
}

// parseStreamingResponse handles the streaming response parsing
func (h *DefaultSamplingHandler) parseStreamingResponse(body io.Reader, defaultModel string) (string, string, string, error) {
	var fullContent strings.Builder
	modelName := defaultModel
	stopReason := "stop"

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		// Parse Server-Sent Events format
		if data, found := strings.CutPrefix(line, "data: "); found {
			// Handle end of stream
			if data == "[DONE]" {
				break
			}

			// Parse JSON chunk
			var chunk map[string]any
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue // Skip malformed chunks
			}

			// Extract model name if available
			if modelFromChunk, ok := chunk["model"].(string); ok && modelName == defaultModel {
				modelName = modelFromChunk
			}

			// Process choices
			if choices, ok := chunk["choices"].([]any); ok && len(choices) > 0 {
				if choice, ok := choices[0].(map[string]any); ok {
					// Extract delta content
					if delta, ok := choice["delta"].(map[string]any); ok {
						if content, ok := delta["content"].(string); ok {
							fullContent.WriteString(content)
							// Stream token via callback if configured
							if h.TokenCallback != nil {
								h.TokenCallback(content)
							}
						}
					}

					// Check for finish reason
					if finishReason, ok := choice["finish_reason"].(string); ok && finishReason != "" {
						stopReason = finishReason
					}
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return "", "", "", err
	}

	return fullContent.String(), modelName, stopReason, nil
}

// buildSamplingResult creates the final sampling result
func (h *DefaultSamplingHandler) buildSamplingResult(content, modelName, stopReason string) *mcp.CreateMessageResult {
	return &mcp.CreateMessageResult{
		SamplingMessage: mcp.SamplingMessage{
			Role:    mcp.RoleAssistant,
			Content: mcp.NewTextContent(content),
		},
		Model:      modelName,
		StopReason: stopReason,
	}
}
