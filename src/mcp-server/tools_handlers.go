// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/app-store-server-go/src/appstore"
	x509chain "github.com/H0llyW00dzZ/app-store-server-go/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/app-store-server-go/src/mcp-server/templates"
	"github.com/H0llyW00dzZ/app-store-server-go/src/receipt"
	"github.com/H0llyW00dzZ/app-store-server-go/src/verifier"
	"github.com/mark3labs/mcp-go/mcp"
)

// handleDecodeSignedPayload decodes an App Store signed payload without verifying its signature.
// It splits the compact JWS, decodes the claims segment, and renders the typed payload.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the payload and output options
//
// Returns:
//   - The tool execution result containing the decoded payload
//   - An error if payload decoding fails
//
// The function supports transaction, renewal info, notification, and app transaction
// payload types. The signature is NOT checked; use verify_signed_payload for data
// that must be trusted.
func handleDecodeSignedPayload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract arguments
	payloadInput, err := request.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("payload parameter required: %v", err)), nil
	}

	payloadType := request.GetString("payload_type", "transaction")
	format := request.GetString("format", "text")

	signed := readSignedPayloadInput(payloadInput)

	header, claims, err := decodeJWSSegments(signed)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode signed payload: %v", err)), nil
	}

	decoded, summary, err := decodeClaimsByType(claims, payloadType)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Format output
	switch format {
	case "json":
		jsonData, err := json.MarshalIndent(decoded, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format decoded payload: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	default: // text
		result := "Signed payload decoded (signature NOT verified):\n\n"
		result += fmt.Sprintf("Signing Algorithm: %s\n", header.Alg)
		result += fmt.Sprintf("Certificates in x5c chain: %d\n\n", len(header.X5C))
		result += summary
		return mcp.NewToolResultText(result), nil
	}
}

// handleExtractReceiptTransactionID extracts a transaction identifier from a legacy receipt.
// It parses the receipt's signed container far enough to locate the transaction ID
// without verifying the receipt signature.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the receipt and its type
//
// Returns:
//   - The tool execution result containing the extracted transaction ID
//   - An error if receipt parsing fails
//
// App receipts yield the ID of the first in-app purchase attribute; transaction
// receipts yield the purchase-info transaction identifier. The ID can then be fed
// to the App Store Server API to fetch the full signed transaction history.
func handleExtractReceiptTransactionID(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract arguments
	receiptInput, err := request.RequireString("receipt")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("receipt parameter required: %v", err)), nil
	}

	receiptType := request.GetString("receipt_type", "app")

	encodedReceipt := readSignedPayloadInput(receiptInput)

	var transactionID string
	switch receiptType {
	case "app":
		transactionID, err = receipt.ExtractTransactionIDFromAppReceipt(encodedReceipt)
	case "transaction":
		transactionID, err = receipt.ExtractTransactionIDFromTransactionReceipt(encodedReceipt)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported receipt_type %q, supported types: app, transaction", receiptType)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to extract transaction ID: %v", err)), nil
	}

	result := "Receipt transaction extraction successful!\n\n"
	result += fmt.Sprintf("Receipt Type: %s\n", receiptType)
	result += fmt.Sprintf("Transaction ID: %s\n", transactionID)
	result += "\nUse this ID with the App Store Server API to fetch the signed transaction history."

	return mcp.NewToolResultText(result), nil
}

// handleVerifySignedPayload verifies an App Store signed payload against the configured
// trusted roots and decodes its claims. It checks the x5c certificate chain, the JWS
// signature, and the app identity before returning the decoded payload.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the payload and verification overrides
//   - config: Server configuration containing trusted roots and the expected app identity
//
// Returns:
//   - The tool execution result containing the verified payload details
//   - An error if payload processing fails
//
// Environment, bundle ID, and app Apple ID can be overridden per call. In the Xcode
// and LocalTesting environments, signature verification is skipped and the payload
// is decoded only.
func handleVerifySignedPayload(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	// Extract arguments
	payloadInput, err := request.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("payload parameter required: %v", err)), nil
	}

	payloadType := request.GetString("payload_type", "transaction")
	environment := request.GetString("environment", config.Verification.Environment)
	bundleID := request.GetString("bundle_id", config.Verification.BundleID)
	appAppleID := int64(request.GetInt("app_apple_id", int(config.Verification.AppAppleID)))
	onlineChecks := request.GetBool("online_checks", config.Verification.EnableOnlineChecks)

	env, err := resolveEnvironment(environment)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	signed := readSignedPayloadInput(payloadInput)

	sv, err := acquireSharedVerifier(config, env, bundleID, appAppleID, onlineChecks)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create verifier: %v", err)), nil
	}

	var summary string
	switch payloadType {
	case "transaction":
		txn, err := sv.VerifyAndDecodeTransaction(signed)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("payload verification failed: %v", err)), nil
		}
		summary = buildTransactionSummary(txn)
	case "renewal_info":
		renewal, err := sv.VerifyAndDecodeRenewalInfo(signed)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("payload verification failed: %v", err)), nil
		}
		summary = buildRenewalInfoSummary(renewal)
	case "notification":
		notification, err := sv.VerifyAndDecodeNotification(signed)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("payload verification failed: %v", err)), nil
		}
		summary = buildNotificationSummary(notification)
	case "app_transaction":
		appTxn, err := sv.VerifyAndDecodeAppTransaction(signed)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("payload verification failed: %v", err)), nil
		}
		summary = buildAppTransactionSummary(appTxn)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported payload_type %q, supported types: transaction, renewal_info, notification, app_transaction", payloadType)), nil
	}

	// Build success result
	result := "Signed payload verification successful!\n\n"
	result += fmt.Sprintf("Environment: %s\n", env)
	result += fmt.Sprintf("Bundle ID: %s\n", bundleID)
	if env == appstore.EnvironmentXcode || env == appstore.EnvironmentLocalTesting {
		result += "Note: signature verification is skipped in this environment; the payload was decoded only.\n"
	}
	result += "\n" + summary

	return mcp.NewToolResultText(result), nil
}

// handleVerifyCertChain verifies the x5c certificate chain of a signed payload against
// the configured trusted roots and visualizes the result in multiple formats.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the payload and format options
//   - config: Server configuration containing trusted root certificate paths
//
// Returns:
//   - The tool execution result containing the chain verification outcome
//   - An error if payload processing or chain verification fails
//
// The function supports multiple output formats:
//   - "text": Plain summary with validity windows and revocation status
//   - "ascii": ASCII tree diagram showing the certificate hierarchy
//   - "table": Markdown table with certificate details
//   - "json": Structured JSON export for external tools
//
// Chain validity is evaluated at the requested signed_date, the payload's own
// signedDate claim, or the current time, in that order.
func handleVerifyCertChain(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	// Extract arguments
	payloadInput, err := request.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("payload parameter required: %v", err)), nil
	}

	format := request.GetString("format", "text")
	signedDateMillis := request.GetInt("signed_date", 0)
	onlineChecks := request.GetBool("online_checks", config.Verification.EnableOnlineChecks)

	signed := readSignedPayloadInput(payloadInput)

	header, claims, err := decodeJWSSegments(signed)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode signed payload: %v", err)), nil
	}

	ders, err := parseX5CChain(header)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(ders) < 2 {
		return mcp.NewToolResultError(fmt.Sprintf("x5c chain has %d certificate(s), need at least a leaf and an intermediate", len(ders))), nil
	}

	roots, err := loadTrustedRoots(config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rootStore, err := x509chain.NewRootStore(roots)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build root store: %v", err)), nil
	}

	var chainOpts []x509chain.Option
	if !onlineChecks {
		chainOpts = append(chainOpts, x509chain.WithoutRevocationCheck())
	}
	chainVerifier := chainResolver.NewVerifier(rootStore, chainOpts...)

	// Evaluate validity at the requested date, the payload's signing date,
	// or now, in that order
	effectiveDate := time.Now()
	if signedDateMillis > 0 {
		effectiveDate = time.UnixMilli(int64(signedDateMillis))
	} else {
		var signedClaims struct {
			SignedDate int64 `json:"signedDate"`
		}
		if err := json.Unmarshal(claims, &signedClaims); err == nil && signedClaims.SignedDate > 0 {
			effectiveDate = time.UnixMilli(signedClaims.SignedDate)
		}
	}

	chain, err := chainVerifier.ResolveChain(ders[0], ders[1], effectiveDate)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("certificate chain verification failed: %v", err)), nil
	}

	// Generate visualization based on format
	switch format {
	case "ascii":
		return mcp.NewToolResultText(chain.RenderASCIITree()), nil
	case "table":
		return mcp.NewToolResultText(chain.RenderTable()), nil
	case "json":
		jsonData, err := chain.ToVisualizationJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to generate JSON visualization: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	case "text":
		// plain summary below
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format '%s', supported formats: text, ascii, table, json", format)), nil
	}

	// Build success result
	roles := []string{"Leaf", "Intermediate CA", "Root CA"}
	result := "Certificate chain verification successful!\n\n"
	result += fmt.Sprintf("Evaluated at: %s\n\n", effectiveDate.UTC().Format("2006-01-02 15:04:05 MST"))
	result += "Chain Details:\n"
	for i, cert := range chain.Certificates() {
		result += fmt.Sprintf("%d: %s\n", i+1, cert.Subject.CommonName)
		result += fmt.Sprintf("   Valid: %s to %s\n", cert.NotBefore.Format("2006-01-02"), cert.NotAfter.Format("2006-01-02"))
		result += fmt.Sprintf("   Type: %s\n", roles[i])
	}
	result += fmt.Sprintf("\nLeaf revocation: %s\n", chain.LeafRevocation)
	result += fmt.Sprintf("Intermediate revocation: %s\n", chain.IntermediateRevocation)
	result += "\nValidation: PASSED ✓"

	return mcp.NewToolResultText(result), nil
}

// handleGetCacheStats reports chain verification cache statistics for the shared verifier.
// It exposes hit rates, memory usage, and the active cache configuration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the format parameter
//   - config: Server configuration (reserved for cache tuning context)
//
// Returns:
//   - The tool execution result containing formatted cache statistics
//   - An error if statistics formatting fails
//
// Statistics become available once the first verify_signed_payload call has
// constructed the shared verifier. Decode-only environments report the cache
// as disabled.
func handleGetCacheStats(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "text")

	sv := currentSharedVerifier()
	if sv == nil {
		return mcp.NewToolResultText("No verifier has been created yet. Cache statistics become available after the first verify_signed_payload call."), nil
	}

	switch format {
	case "json":
		metrics := sv.CacheMetrics()
		cacheConfig := sv.CacheConfig()

		output := map[string]any{
			"enabled":          cacheConfig != nil,
			"size":             metrics.Size,
			"hits":             metrics.Hits,
			"misses":           metrics.Misses,
			"evictions":        metrics.Evictions,
			"cleanups":         metrics.Cleanups,
			"totalMemoryBytes": metrics.TotalMemory,
			"hitRatePercent":   calculateHitRate(metrics.Hits, metrics.Misses),
		}
		if cacheConfig != nil {
			output["config"] = map[string]any{
				"maxSize":        cacheConfig.MaxSize,
				"bucketMinutes":  int(cacheConfig.Bucket.Minutes()),
				"cleanupMinutes": int(cacheConfig.CleanupInterval.Minutes()),
			}
		}

		jsonData, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format cache stats: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	default: // text
		return mcp.NewToolResultText(sv.CacheStats()), nil
	}
}

// handleAnalyzePayloadWithAI analyzes signed payload data using AI collaboration through sampling.
// It performs comprehensive payload analysis including verification status, claims
// interpretation, and subscription or revocation assessment using bidirectional AI communication.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the payload and analysis type
//   - config: Server configuration containing AI API settings and verification context
//
// Returns:
//   - The tool execution result containing AI-powered payload analysis
//   - An error if payload processing or AI analysis fails
//
// The function supports general, subscription, and revocation analysis types. If no
// AI API key is configured, it returns a helpful message with the prepared analysis
// context. When AI is available, it uses embedded system prompts and streaming
// responses for comprehensive payload assessment.
func handleAnalyzePayloadWithAI(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	payloadInput, err := request.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("payload parameter required: %v", err)), nil
	}

	analysisType := request.GetString("analysis_type", "general")

	signed := readSignedPayloadInput(payloadInput)

	header, claims, err := decodeJWSSegments(signed)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode signed payload: %v", err)), nil
	}

	// Build comprehensive payload context for AI analysis including verification status
	payloadContext := buildPayloadContext(header, claims, signed, analysisType, config)

	// Use context engineering as the primary prompt for AI analysis
	analysisPrompt := payloadContext + "\n\n" + getAnalysisInstruction(analysisType)

	// Try to get AI analysis if API key is configured
	if config.AI.APIKey != "" {
		// Read system prompt from embedded template
		systemPromptBytes, err := templates.MagicEmbed.ReadFile("payload-analysis-system-prompt.md")
		systemPrompt := ""
		if err == nil {
			systemPrompt = string(systemPromptBytes)
		} else {
			// Fallback system prompt if file cannot be read
			systemPrompt = "You are an App Store payload analyzer. Follow these exact instructions for analyzing signed payloads."
		}

		// Create sampling handler for this request
		samplingHandler := &DefaultSamplingHandler{
			apiKey:   config.AI.APIKey,
			endpoint: config.AI.Endpoint,
			model:    config.AI.Model,
			timeout:  time.Duration(config.AI.Timeout) * time.Second,
			client:   &http.Client{Timeout: time.Duration(config.AI.Timeout) * time.Second},
		}

		// Prepare sampling request with system prompt
		samplingRequest := mcp.CreateMessageRequest{
			CreateMessageParams: mcp.CreateMessageParams{
				Messages: []mcp.SamplingMessage{
					{
						Role:    mcp.RoleUser,
						Content: mcp.TextContent{Text: analysisPrompt},
					},
				},
				SystemPrompt: systemPrompt,
				MaxTokens:    config.AI.MaxTokens,
				Temperature:  config.AI.Temperature,
			},
		}

		// Call the AI API
		samplingResult, err := samplingHandler.CreateMessage(ctx, samplingRequest)
		if err != nil {
			// If sampling fails, return only the error
			result := fmt.Sprintf("AI Analysis Request Failed: %v", err)
			return mcp.NewToolResultText(result), nil
		}

		// Return the AI's analysis
		result := fmt.Sprintf("🤖 AI-Powered Payload Analysis (%s)\n\n", analysisType)
		result += "Analysis provided by AI assistant:\n\n"
		if textContent, ok := samplingResult.SamplingMessage.Content.(mcp.TextContent); ok {
			result += textContent.Text
		} else {
			result += "AI provided analysis (content format not supported for display)"
		}
		result += fmt.Sprintf("\n\n---\n*AI Model: %s*", samplingResult.Model)

		return mcp.NewToolResultText(result), nil
	}

	// Fallback: Show what would be sent to AI (no API key configured)
	result := fmt.Sprintf("AI Collaborative Analysis (%s)\n\n", analysisType)
	result += "⚠️  No AI API key configured. To enable real AI analysis:\n"
	result += "   1. Set APPSTORE_AI_APIKEY environment variable, or\n"
	result += "   2. Configure 'ai.apiKey' in your config.json file\n\n"
	result += "📋 Payload Context Prepared for AI Analysis:\n"
	result += payloadContext
	result += fmt.Sprintf("\n\n💭 Analysis Prompt Ready:\n%s", analysisPrompt)
	result += "\n\n🔄 With API key configured, this would send the context to AI for intelligent analysis."

	return mcp.NewToolResultText(result), nil
}

// handleGetResourceUsage handles requests for current resource usage statistics including memory, GC, and verification cache metrics.
// It collects comprehensive system and application resource data and formats it according to the requested output format.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing format and detail level parameters
//
// Returns:
//   - The tool execution result containing formatted resource usage data
//   - An error if resource collection or formatting fails
//
// The function supports both JSON and Markdown output formats, with optional detailed metrics
// including verification cache statistics, memory breakdown, and system information.
func handleGetResourceUsage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	detailed := request.GetBool("detailed", false)
	format := request.GetString("format", "json")

	// Collect resource usage data
	data := CollectResourceUsage(detailed)

	// Format output based on format parameter
	switch format {
	case "markdown":
		markdown := FormatResourceUsageAsMarkdown(data)
		return mcp.NewToolResultText(markdown), nil
	case "json":
		fallthrough
	default:
		jsonData, err := FormatResourceUsageAsJSON(data)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format resource usage: %v", err)), nil
		}

		// Parse the JSON string back to a map for structured content
		var structuredData map[string]any
		if err := json.Unmarshal([]byte(jsonData), &structuredData); err != nil {
			// Fallback to text if parsing fails
			return mcp.NewToolResultText(jsonData), nil
		}

		// Return structured JSON content for programmatic access
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(jsonData),
			},
			StructuredContent: structuredData,
			IsError:           false,
		}, nil
	}
}

// readSignedPayloadInput resolves a payload argument to the signed data itself.
// File paths are read and trimmed; anything else is treated as the raw value.
//
// Parameters:
//   - input: File path, compact JWS string, or base64 receipt data
//
// Returns:
//   - The trimmed payload string ready for decoding
//
// Signed payloads and legacy receipts are both text, so no base64 round trip
// is needed here; malformed input surfaces at decode time instead.
func readSignedPayloadInput(input string) string {
	if fileData, err := os.ReadFile(input); err == nil {
		return strings.TrimSpace(string(fileData))
	}
	return strings.TrimSpace(input)
}

// jwsHeader is the protected header of a compact JWS, covering the fields the
// tools need: the signing algorithm and the x5c certificate chain.
type jwsHeader struct {
	Alg string   `json:"alg"`
	X5C []string `json:"x5c"`
}

// decodeJWSSegments splits a compact JWS and base64url-decodes its protected
// header and claims segments without verifying the signature.
//
// Parameters:
//   - signed: The compact JWS string (header.claims.signature)
//
// Returns:
//   - The parsed protected header
//   - The raw JSON claims bytes
//   - An error if the JWS structure or encoding is malformed
func decodeJWSSegments(signed string) (*jwsHeader, []byte, error) {
	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		return nil, nil, fmt.Errorf("malformed JWS: expected 3 segments, got %d", len(parts))
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("malformed JWS header: %w", err)
	}
	var header jwsHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, nil, fmt.Errorf("malformed JWS header: %w", err)
	}

	claims, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("malformed JWS claims: %w", err)
	}

	return &header, claims, nil
}

// parseX5CChain decodes the base64 DER certificates of a JWS x5c header.
//
// Parameters:
//   - header: Parsed JWS protected header
//
// Returns:
//   - DER certificate bytes in leaf-first order
//   - An error if the header carries no chain or an entry is not valid base64
func parseX5CChain(header *jwsHeader) ([][]byte, error) {
	if len(header.X5C) == 0 {
		return nil, fmt.Errorf("JWS header carries no x5c certificate chain")
	}

	ders := make([][]byte, len(header.X5C))
	for i, encoded := range header.X5C {
		der, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("x5c certificate %d is not valid base64: %w", i+1, err)
		}
		ders[i] = der
	}
	return ders, nil
}

// decodeClaimsByType unmarshals raw JWS claims into the typed payload for the
// requested payload type and renders its display summary.
//
// Parameters:
//   - claims: Raw JSON claims bytes from the JWS
//   - payloadType: One of "transaction", "renewal_info", "notification", "app_transaction"
//
// Returns:
//   - The typed decoded payload (for JSON output)
//   - A formatted text summary of the payload
//   - An error if the payload type is unknown or the claims don't parse
func decodeClaimsByType(claims []byte, payloadType string) (any, string, error) {
	switch payloadType {
	case "transaction":
		var txn appstore.JWSTransactionDecodedPayload
		if err := json.Unmarshal(claims, &txn); err != nil {
			return nil, "", fmt.Errorf("failed to decode transaction claims: %v", err)
		}
		return &txn, buildTransactionSummary(&txn), nil
	case "renewal_info":
		var renewal appstore.JWSRenewalInfoDecodedPayload
		if err := json.Unmarshal(claims, &renewal); err != nil {
			return nil, "", fmt.Errorf("failed to decode renewal info claims: %v", err)
		}
		return &renewal, buildRenewalInfoSummary(&renewal), nil
	case "notification":
		var notification appstore.ResponseBodyV2DecodedPayload
		if err := json.Unmarshal(claims, &notification); err != nil {
			return nil, "", fmt.Errorf("failed to decode notification claims: %v", err)
		}
		return &notification, buildNotificationSummary(&notification), nil
	case "app_transaction":
		var appTxn appstore.AppTransaction
		if err := json.Unmarshal(claims, &appTxn); err != nil {
			return nil, "", fmt.Errorf("failed to decode app transaction claims: %v", err)
		}
		return &appTxn, buildAppTransactionSummary(&appTxn), nil
	default:
		return nil, "", fmt.Errorf("unsupported payload_type %q, supported types: transaction, renewal_info, notification, app_transaction", payloadType)
	}
}

// resolveEnvironment validates an environment name and applies the Production
// default for empty input.
func resolveEnvironment(environment string) (appstore.Environment, error) {
	switch appstore.Environment(environment) {
	case appstore.EnvironmentProduction, appstore.EnvironmentSandbox, appstore.EnvironmentXcode, appstore.EnvironmentLocalTesting:
		return appstore.Environment(environment), nil
	case "":
		return appstore.EnvironmentProduction, nil
	default:
		return "", fmt.Errorf("unsupported environment %q, supported environments: Production, Sandbox, Xcode, LocalTesting", environment)
	}
}

// loadTrustedRoots reads the configured root certificate files and returns
// their DER encodings. PEM bundles and DER files are both accepted.
func loadTrustedRoots(config *Config) ([][]byte, error) {
	if len(config.Verification.RootCertificates) == 0 {
		return nil, fmt.Errorf("no trusted root certificates configured: set verification.rootCertificates in the config file")
	}

	var roots [][]byte
	for _, path := range config.Verification.RootCertificates {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read root certificate %s: %w", path, err)
		}
		decoded, err := certManager.DecodeMultiple(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode root certificate %s: %w", path, err)
		}
		for _, cert := range decoded {
			roots = append(roots, cert.Raw)
		}
	}
	return roots, nil
}

// sharedVerifierState memoizes the most recently built signed data verifier so
// repeated tool calls with the same settings share one chain verification
// cache instead of rebuilding it per call.
type sharedVerifierState struct {
	mu         sync.Mutex
	key        string
	sv         *verifier.SignedDataVerifier
	cleanupCtx context.Context
}

var sharedVerifier sharedVerifierState

// acquireSharedVerifier returns the memoized signed data verifier for the
// given settings, building a new one when the settings changed.
//
// Parameters:
//   - config: Server configuration with root certificate paths and cache tuning
//   - env: App Store environment the payloads must belong to
//   - bundleID: Expected bundle identifier
//   - appAppleID: Expected app Apple ID (checked in Production)
//   - onlineChecks: Whether to perform online OCSP revocation checks
//
// Returns:
//   - The shared signed data verifier
//   - An error if roots cannot be loaded or the verifier cannot be built
func acquireSharedVerifier(config *Config, env appstore.Environment, bundleID string, appAppleID int64, onlineChecks bool) (*verifier.SignedDataVerifier, error) {
	key := fmt.Sprintf("%s|%s|%d|%t|%s", env, bundleID, appAppleID, onlineChecks,
		strings.Join(config.Verification.RootCertificates, ","))

	sharedVerifier.mu.Lock()
	defer sharedVerifier.mu.Unlock()

	if sharedVerifier.sv != nil && sharedVerifier.key == key {
		return sharedVerifier.sv, nil
	}

	// Decode-only environments never touch the chain, so missing roots are
	// fine there
	var roots [][]byte
	if env != appstore.EnvironmentXcode && env != appstore.EnvironmentLocalTesting {
		var err error
		roots, err = loadTrustedRoots(config)
		if err != nil {
			return nil, err
		}
	}

	opts := []verifier.Option{
		verifier.WithCacheConfig(cacheConfigFromSettings(config)),
	}
	if !onlineChecks {
		opts = append(opts, verifier.WithoutRevocationCheck())
	}

	sv, err := verifier.NewSignedDataVerifier(roots, env, bundleID, appAppleID, opts...)
	if err != nil {
		return nil, err
	}

	if sharedVerifier.cleanupCtx != nil {
		sv.StartCacheCleanup(sharedVerifier.cleanupCtx)
	}

	sharedVerifier.key = key
	sharedVerifier.sv = sv
	return sv, nil
}

// currentSharedVerifier returns the memoized verifier without building one.
func currentSharedVerifier() *verifier.SignedDataVerifier {
	sharedVerifier.mu.Lock()
	defer sharedVerifier.mu.Unlock()
	return sharedVerifier.sv
}

// startVerifierCacheCleanup binds the server lifetime context to the shared
// verifier so its chain cache sweeper starts with the server and stops on
// shutdown. Verifiers built after this call reuse the same context.
func startVerifierCacheCleanup(ctx context.Context) {
	sharedVerifier.mu.Lock()
	defer sharedVerifier.mu.Unlock()
	sharedVerifier.cleanupCtx = ctx
	if sharedVerifier.sv != nil {
		sharedVerifier.sv.StartCacheCleanup(ctx)
	}
}

// cacheConfigFromSettings maps the cache section of the server configuration
// onto the chain verification cache configuration.
func cacheConfigFromSettings(config *Config) *x509chain.CacheConfig {
	return &x509chain.CacheConfig{
		MaxSize:         config.Cache.MaxEntries,
		Bucket:          time.Duration(config.Cache.BucketMinutes) * time.Minute,
		CleanupInterval: time.Duration(config.Cache.CleanupMinutes) * time.Minute,
	}
}

// formatEpochMillis renders a millisecond epoch timestamp as a UTC date, or
// "n/a" when the field is absent.
func formatEpochMillis(millis int64) string {
	if millis == 0 {
		return "n/a"
	}
	return time.UnixMilli(millis).UTC().Format("2006-01-02 15:04:05 MST")
}

// formatMilliunits renders a milliunit price with its currency code.
func formatMilliunits(price int64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.3f", float64(price)/1000)
	}
	return fmt.Sprintf("%.3f %s", float64(price)/1000, currency)
}

// buildTransactionSummary formats decoded transaction claims for display.
// Optional fields are omitted when absent so the summary stays readable.
func buildTransactionSummary(txn *appstore.JWSTransactionDecodedPayload) string {
	var summary strings.Builder

	summary.WriteString("Transaction Details:\n")
	fmt.Fprintf(&summary, "  Transaction ID: %s\n", txn.TransactionID)
	fmt.Fprintf(&summary, "  Original Transaction ID: %s\n", txn.OriginalTransactionID)
	fmt.Fprintf(&summary, "  Bundle ID: %s\n", txn.BundleID)
	fmt.Fprintf(&summary, "  Product ID: %s\n", txn.ProductID)
	if txn.Type != "" {
		fmt.Fprintf(&summary, "  Type: %s\n", txn.Type)
	}
	fmt.Fprintf(&summary, "  Environment: %s\n", txn.Environment)
	fmt.Fprintf(&summary, "  Purchase Date: %s\n", formatEpochMillis(txn.PurchaseDate))
	if txn.ExpiresDate > 0 {
		fmt.Fprintf(&summary, "  Expires Date: %s\n", formatEpochMillis(txn.ExpiresDate))
	}
	fmt.Fprintf(&summary, "  Signed Date: %s\n", formatEpochMillis(txn.SignedDate))
	if txn.Quantity > 0 {
		fmt.Fprintf(&summary, "  Quantity: %d\n", txn.Quantity)
	}
	if txn.Price != nil {
		fmt.Fprintf(&summary, "  Price: %s\n", formatMilliunits(*txn.Price, txn.Currency))
	}
	if txn.Storefront != "" {
		fmt.Fprintf(&summary, "  Storefront: %s\n", txn.Storefront)
	}
	if txn.TransactionReason != "" {
		fmt.Fprintf(&summary, "  Transaction Reason: %s\n", txn.TransactionReason)
	}
	if txn.InAppOwnershipType != "" {
		fmt.Fprintf(&summary, "  Ownership: %s\n", txn.InAppOwnershipType)
	}
	if txn.RevocationReason != nil {
		fmt.Fprintf(&summary, "  Revoked: %s (reason %d)\n", formatEpochMillis(txn.RevocationDate), *txn.RevocationReason)
	}

	return summary.String()
}

// buildRenewalInfoSummary formats decoded renewal info claims for display.
func buildRenewalInfoSummary(renewal *appstore.JWSRenewalInfoDecodedPayload) string {
	var summary strings.Builder

	summary.WriteString("Renewal Info Details:\n")
	fmt.Fprintf(&summary, "  Original Transaction ID: %s\n", renewal.OriginalTransactionID)
	fmt.Fprintf(&summary, "  Product ID: %s\n", renewal.ProductID)
	if renewal.AutoRenewProductID != "" && renewal.AutoRenewProductID != renewal.ProductID {
		fmt.Fprintf(&summary, "  Auto-Renew Product ID: %s (crossgrade pending)\n", renewal.AutoRenewProductID)
	}
	if renewal.AutoRenewStatus != nil {
		if *renewal.AutoRenewStatus == appstore.AutoRenewStatusOn {
			summary.WriteString("  Auto-Renew: ON\n")
		} else {
			summary.WriteString("  Auto-Renew: OFF\n")
		}
	}
	fmt.Fprintf(&summary, "  Environment: %s\n", renewal.Environment)
	if renewal.RenewalDate > 0 {
		fmt.Fprintf(&summary, "  Renewal Date: %s\n", formatEpochMillis(renewal.RenewalDate))
	}
	fmt.Fprintf(&summary, "  Signed Date: %s\n", formatEpochMillis(renewal.SignedDate))
	if renewal.ExpirationIntent != 0 {
		fmt.Fprintf(&summary, "  Expiration Intent: %d\n", renewal.ExpirationIntent)
	}
	if renewal.IsInBillingRetryPeriod {
		summary.WriteString("  Billing Retry: subscription is in the billing retry period\n")
	}
	if renewal.GracePeriodExpiresDate > 0 {
		fmt.Fprintf(&summary, "  Grace Period Expires: %s\n", formatEpochMillis(renewal.GracePeriodExpiresDate))
	}
	if renewal.RenewalPrice != nil {
		fmt.Fprintf(&summary, "  Renewal Price: %s\n", formatMilliunits(*renewal.RenewalPrice, renewal.Currency))
	}
	if renewal.PriceIncreaseStatus != nil {
		fmt.Fprintf(&summary, "  Price Increase Status: %d\n", *renewal.PriceIncreaseStatus)
	}

	return summary.String()
}

// buildNotificationSummary formats a decoded server notification for display.
// Exactly one of the data, summary, or external purchase token sections is
// present, matching the notification payload shape.
func buildNotificationSummary(notification *appstore.ResponseBodyV2DecodedPayload) string {
	var summary strings.Builder

	summary.WriteString("Notification Details:\n")
	fmt.Fprintf(&summary, "  Notification Type: %s\n", notification.NotificationType)
	if notification.Subtype != "" {
		fmt.Fprintf(&summary, "  Subtype: %s\n", notification.Subtype)
	}
	fmt.Fprintf(&summary, "  Notification UUID: %s\n", notification.NotificationUUID)
	fmt.Fprintf(&summary, "  Version: %s\n", notification.Version)
	fmt.Fprintf(&summary, "  Signed Date: %s\n", formatEpochMillis(notification.SignedDate))

	switch {
	case notification.Data != nil:
		summary.WriteString("  Payload: transaction data\n")
		fmt.Fprintf(&summary, "    Environment: %s\n", notification.Data.Environment)
		fmt.Fprintf(&summary, "    Bundle ID: %s\n", notification.Data.BundleID)
		if notification.Data.Status != 0 {
			fmt.Fprintf(&summary, "    Subscription Status: %d\n", notification.Data.Status)
		}
		if notification.Data.SignedTransactionInfo != "" {
			summary.WriteString("    Contains signedTransactionInfo (verify it separately)\n")
		}
		if notification.Data.SignedRenewalInfo != "" {
			summary.WriteString("    Contains signedRenewalInfo (verify it separately)\n")
		}
	case notification.Summary != nil:
		summary.WriteString("  Payload: renewal extension summary\n")
		fmt.Fprintf(&summary, "    Product ID: %s\n", notification.Summary.ProductID)
		fmt.Fprintf(&summary, "    Succeeded: %d, Failed: %d\n", notification.Summary.SucceededCount, notification.Summary.FailedCount)
	case notification.ExternalPurchaseToken != nil:
		summary.WriteString("  Payload: external purchase token\n")
		fmt.Fprintf(&summary, "    External Purchase ID: %s\n", notification.ExternalPurchaseToken.ExternalPurchaseID)
		fmt.Fprintf(&summary, "    Token Type: %s\n", notification.ExternalPurchaseToken.TokenType)
	}

	return summary.String()
}

// buildAppTransactionSummary formats a decoded app transaction for display.
func buildAppTransactionSummary(appTxn *appstore.AppTransaction) string {
	var summary strings.Builder

	summary.WriteString("App Transaction Details:\n")
	fmt.Fprintf(&summary, "  Bundle ID: %s\n", appTxn.BundleID)
	if appTxn.AppAppleID > 0 {
		fmt.Fprintf(&summary, "  App Apple ID: %d\n", appTxn.AppAppleID)
	}
	fmt.Fprintf(&summary, "  Receipt Type: %s\n", appTxn.ReceiptType)
	fmt.Fprintf(&summary, "  Application Version: %s\n", appTxn.ApplicationVersion)
	if appTxn.OriginalApplicationVersion != "" {
		fmt.Fprintf(&summary, "  Original Application Version: %s\n", appTxn.OriginalApplicationVersion)
	}
	fmt.Fprintf(&summary, "  Original Purchase Date: %s\n", formatEpochMillis(appTxn.OriginalPurchaseDate))
	if appTxn.ReceiptCreationDate > 0 {
		fmt.Fprintf(&summary, "  Receipt Creation Date: %s\n", formatEpochMillis(appTxn.ReceiptCreationDate))
	}
	fmt.Fprintf(&summary, "  Signed Date: %s\n", formatEpochMillis(appTxn.SignedDate))

	return summary.String()
}

// buildPayloadContext creates comprehensive context information about a signed payload
// for AI analysis including its verification status against the configured roots.
//
// Parameters:
//   - header: Parsed JWS protected header
//   - claims: Raw JSON claims bytes
//   - signed: The full compact JWS for the verification attempt
//   - analysisType: Type of analysis (general, subscription, revocation)
//   - config: Server configuration providing the verification context
//
// Returns:
//   - A formatted string containing comprehensive payload context
//
// This function provides complete payload analysis context including signing chain
// details, decoded claims with timestamps expanded, and interpretation rules for
// AI-powered assessment. It uses helper functions to organize information into
// logical sections.
func buildPayloadContext(header *jwsHeader, claims []byte, signed string, analysisType string, config *Config) string {
	var context strings.Builder

	// Payload overview
	fmt.Fprintf(&context, "Analysis Type: %s\n", analysisType)
	fmt.Fprintf(&context, "Current Time: %s UTC\n", time.Now().UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&context, "Signing Algorithm: %s\n", header.Alg)
	fmt.Fprintf(&context, "Certificates in x5c chain: %d\n\n", len(header.X5C))

	appendVerificationContext(&context, signed, config)
	appendClaimsContext(&context, claims)
	appendChainContext(&context, header)
	appendPayloadInterpretationContext(&context)

	return context.String()
}

// appendVerificationContext attempts signature verification against the
// configured trusted roots and reports the outcome for AI analysis.
//
// Parameters:
//   - context: String builder to append verification information to
//   - signed: The full compact JWS string
//   - config: Server configuration with the expected app identity
//
// Verification failure is not fatal here; the claims are still analyzed, just
// flagged as unverified.
func appendVerificationContext(context *strings.Builder, signed string, config *Config) {
	context.WriteString("VERIFICATION STATUS:\n")

	env, err := resolveEnvironment(config.Verification.Environment)
	if err != nil {
		fmt.Fprintf(context, "  Not attempted: %v\n\n", err)
		return
	}

	sv, err := acquireSharedVerifier(config, env, config.Verification.BundleID, config.Verification.AppAppleID, config.Verification.EnableOnlineChecks)
	if err != nil {
		fmt.Fprintf(context, "  Not attempted: %v\n\n", err)
		return
	}

	if _, err := sv.VerifyAndDecodeTransaction(signed); err != nil {
		fmt.Fprintf(context, "  Verification as a transaction FAILED: %v\n", err)
		context.WriteString("  The claims below are decoded without signature verification.\n\n")
		return
	}

	context.WriteString("  Signature verified against the configured trusted roots ✓\n\n")
}

// appendClaimsContext decodes the claims generically and lists them in sorted
// key order with millisecond timestamps expanded into UTC dates.
//
// Parameters:
//   - context: String builder to append claims information to
//   - claims: Raw JSON claims bytes from the JWS
func appendClaimsContext(context *strings.Builder, claims []byte) {
	context.WriteString("=== DECODED CLAIMS ===\n")

	var decoded map[string]any
	if err := json.Unmarshal(claims, &decoded); err != nil {
		fmt.Fprintf(context, "Claims are not valid JSON: %v\n\n", err)
		return
	}

	keys := make([]string, 0, len(decoded))
	for key := range decoded {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := decoded[key]
		// Expand epoch-millisecond date fields so the AI doesn't have to
		if millis, ok := value.(float64); ok && strings.HasSuffix(key, "Date") {
			fmt.Fprintf(context, "  %s: %.0f (%s)\n", key, millis, time.UnixMilli(int64(millis)).UTC().Format("2006-01-02 15:04:05 MST"))
			continue
		}
		fmt.Fprintf(context, "  %s: %v\n", key, value)
	}
	context.WriteString("\n")
}

// appendChainContext summarizes the x5c signing chain for AI analysis.
//
// Parameters:
//   - context: String builder to append chain information to
//   - header: Parsed JWS protected header carrying the x5c entries
func appendChainContext(context *strings.Builder, header *jwsHeader) {
	context.WriteString("=== SIGNING CHAIN ===\n")

	ders, err := parseX5CChain(header)
	if err != nil {
		fmt.Fprintf(context, "No usable x5c chain: %v\n\n", err)
		return
	}

	for i, der := range ders {
		cert, err := certManager.Decode(der)
		if err != nil {
			fmt.Fprintf(context, "Certificate %d: failed to decode: %v\n", i+1, err)
			continue
		}
		fmt.Fprintf(context, "Certificate %d: %s\n", i+1, cert.Subject.CommonName)
		fmt.Fprintf(context, "  Issuer: %s\n", cert.Issuer.CommonName)
		fmt.Fprintf(context, "  Valid: %s to %s\n", cert.NotBefore.Format("2006-01-02"), cert.NotAfter.Format("2006-01-02"))
		fmt.Fprintf(context, "  Signature Algorithm: %s\n", cert.SignatureAlgorithm.String())
	}
	context.WriteString("\n")
}

// appendPayloadInterpretationContext adds App Store payload interpretation rules
// to the context builder so the AI reads fields the way the store defines them.
//
// Parameters:
//   - context: String builder to append interpretation rules to
func appendPayloadInterpretationContext(context *strings.Builder) {
	context.WriteString("=== INTERPRETATION CONTEXT ===\n")
	context.WriteString("App Store Payload Facts:\n")
	context.WriteString("- Timestamp fields (*Date) are milliseconds since the UNIX epoch, UTC\n")
	context.WriteString("- price and renewalPrice are in milliunits of the currency (divide by 1000)\n")
	context.WriteString("- Production payloads must chain to an Apple root and carry the receipt signing and WWDR intermediate OID markers\n")
	context.WriteString("- Xcode and LocalTesting payloads skip signature verification; treat their contents as untrusted\n")
	context.WriteString("- signedTransactionInfo and signedRenewalInfo inside notifications are nested JWS strings needing their own verification\n")
	context.WriteString("- revocationReason 0 means the refund addressed an app issue; 1 means another reason\n")
	context.WriteString("- autoRenewProductId differing from productId means a crossgrade takes effect at the next renewal\n")
}

// getAnalysisInstruction returns tailored analysis instructions for AI payload assessment based on the requested analysis type.
// It provides specific prompts for general, subscription, and revocation analysis types.
//
// Parameters:
//   - analysisType: The type of analysis requested ("general", "subscription", or "revocation")
//
// Returns:
//   - A formatted string containing detailed analysis instructions for the AI
//
// The function uses structured prompts that guide the AI to focus on relevant aspects
// of payload analysis, including entitlement decisions, churn signals, and refund
// handling with specific risk levels and recommendations.
func getAnalysisInstruction(analysisType string) string {
	switch analysisType {
	case "subscription":
		return `
SUBSCRIPTION ANALYSIS REQUEST:
Based on the payload data above, provide a subscription health assessment focusing on:
1. Renewal state and auto-renew preferences
2. Expiration, billing retry, and grace period signals
3. Offer and pricing context, including price increase consent
4. Upgrade, downgrade, and crossgrade indicators
5. Recommended server-side actions for entitlement management
6. Risk assessment (Critical/High/Medium/Low) with specific findings

Be specific about any churn risk or billing issues visible in the decoded claims.`

	case "revocation":
		return `
REVOCATION ANALYSIS REQUEST:
Based on the payload data above, assess refund and revocation impact:
1. Revocation reason and date interpretation
2. Family Sharing revocation implications
3. Entitlement removal requirements and timing
4. Refund patterns worth monitoring
5. Customer messaging considerations
6. Remediation steps for affected content or services

Identify exactly which entitlements should be revoked and when.`

	default: // general
		return `
GENERAL PAYLOAD ANALYSIS REQUEST:
Based on the payload data above, provide a comprehensive analysis covering:
1. Payload type, structure, and verification status
2. Transaction identity and purchase lineage
3. Timing fields and their business meaning
4. Environment and app identity consistency
5. Operational follow-ups for server-side record keeping
6. Any notable characteristics or potential concerns

Provide actionable insights for App Store server integration.`
	}
}
