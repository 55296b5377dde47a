// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/H0llyW00dzZ/app-store-server-go/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// promptTemplateData holds the data used to populate prompt templates.
type promptTemplateData struct {
	Payload          string
	PayloadType      string
	ProductID        string
	NotificationType string
	Subtype          string
	IssueType        string
	ErrorMessage     string
	Environment      string
}

// parsePromptTemplate parses a prompt template file and converts it to MCP messages.
//
// This function reads a template file from the embedded filesystem, executes
// it with the provided data, and converts the structured content into MCP prompt messages.
// The template-based approach enables dynamic content generation instead of hardcoded values,
// making prompts more maintainable and flexible.
//
// Parameters:
//   - embed: Embedded filesystem holding the prompt templates
//   - templateName: Name of the template file (without .md extension)
//   - data: Template data to populate placeholders
//
// Returns:
//   - []mcp.PromptMessage: Parsed MCP messages
//   - error: Any error during template execution or parsing
func parsePromptTemplate(embed templates.EmbedFS, templateName string, data promptTemplateData) ([]mcp.PromptMessage, error) {
	// Read the template file
	templateContent, err := embed.ReadFile(templateName + ".md")
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", templateName, err)
	}

	// Parse the template
	tmpl, err := template.New(templateName).Parse(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	// Execute the template
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	content := buf.String()

	// Parse the executed content into MCP messages
	var messages []mcp.PromptMessage
	lines := strings.Split(content, "\n")
	var currentRole mcp.Role
	var currentContent strings.Builder

	for _, line := range lines {
		line = strings.TrimSpace(line)

		// Check for role markers first (before skipping headers)
		if strings.HasPrefix(line, "### Assistant:") || strings.HasPrefix(line, "##### Assistant:") {
			// Save previous message if any
			if currentContent.Len() > 0 {
				messages = append(messages, mcp.NewPromptMessage(
					currentRole,
					mcp.NewTextContent(strings.TrimSpace(currentContent.String())),
				))
				currentContent.Reset()
			}
			currentRole = mcp.RoleAssistant
			continue
		}

		if strings.HasPrefix(line, "### User:") || strings.HasPrefix(line, "##### User:") {
			// Save previous message if any
			if currentContent.Len() > 0 {
				messages = append(messages, mcp.NewPromptMessage(
					currentRole,
					mcp.NewTextContent(strings.TrimSpace(currentContent.String())),
				))
				currentContent.Reset()
			}
			currentRole = mcp.RoleUser
			continue
		}

		// Skip empty lines and headers
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Add line to current content if we have a role
		if currentRole != "" {
			if currentContent.Len() > 0 {
				currentContent.WriteString("\n")
			}
			currentContent.WriteString(line)
		}
	}

	// Add final message if any
	if currentContent.Len() > 0 {
		messages = append(messages, mcp.NewPromptMessage(
			currentRole,
			mcp.NewTextContent(strings.TrimSpace(currentContent.String())),
		))
	}

	return messages, nil
}

// handlePayloadAnalysisPrompt handles the signed payload analysis workflow prompt.
//
// This function implements the payload-analysis prompt, which provides
// a comprehensive workflow for analyzing App Store signed payloads. It guides
// users through systematic steps including verification, fallback decoding,
// chain inspection, and claims review.
//
// Parameters:
//   - ctx: Context for the request, used for cancellation and timeouts
//   - request: The MCP get prompt request containing arguments
//   - embed: Embedded filesystem holding the prompt templates
//
// Returns:
//   - *mcp.GetPromptResult: The prompt result with workflow messages
//   - error: Any error that occurred during prompt handling
//
// The workflow includes:
//  1. Payload verification using the verify_signed_payload tool
//  2. Fallback decoding using the decode_signed_payload tool
//  3. Chain inspection using the verify_cert_chain tool
//  4. Claims review and summary
//
// Expected arguments in request.Params.Arguments:
//   - payload: Path to a signed payload file or the compact JWS string itself
//   - payload_type: Type of payload (default: transaction)
func handlePayloadAnalysisPrompt(ctx context.Context, request mcp.GetPromptRequest, embed templates.EmbedFS) (*mcp.GetPromptResult, error) {
	payload := request.Params.Arguments["payload"]
	payloadType := request.Params.Arguments["payload_type"]
	if payloadType == "" {
		payloadType = "transaction"
	}

	messages, err := parsePromptTemplate(embed, "payload-analysis-prompt", promptTemplateData{
		Payload:     payload,
		PayloadType: payloadType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse payload analysis template: %w", err)
	}

	return mcp.NewGetPromptResult(
		"Signed Payload Analysis Workflow",
		messages,
	), nil
}

// handleSubscriptionReviewPrompt handles the subscription renewal review prompt.
//
// This function implements the subscription-review prompt, which walks through
// the renewal info fields of an auto-renewable subscription and recommends
// server-side follow-up such as billing retry handling or win-back offers.
//
// Parameters:
//   - ctx: Context for the request, used for cancellation and timeouts
//   - request: The MCP get prompt request containing arguments
//   - embed: Embedded filesystem holding the prompt templates
//
// Returns:
//   - *mcp.GetPromptResult: The prompt result with review guidance
//   - error: Any error that occurred during prompt handling
//
// The prompt helps users:
//   - Read autoRenewStatus, expirationIntent, and billing retry signals
//   - Spot pending crossgrades and price increase consent states
//   - Decide entitlement handling during grace periods
//
// Expected arguments in request.Params.Arguments:
//   - payload: Signed renewal info payload, as a file path or the compact JWS string
//   - product_id: Product identifier of the subscription under review
func handleSubscriptionReviewPrompt(ctx context.Context, request mcp.GetPromptRequest, embed templates.EmbedFS) (*mcp.GetPromptResult, error) {
	payload := request.Params.Arguments["payload"]
	productID := request.Params.Arguments["product_id"]

	messages, err := parsePromptTemplate(embed, "subscription-review-prompt", promptTemplateData{
		Payload:   payload,
		ProductID: productID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse subscription review template: %w", err)
	}

	return mcp.NewGetPromptResult(
		"Subscription Renewal Review",
		messages,
	), nil
}

// handleNotificationTriagePrompt handles the server notification triage prompt.
//
// This function implements the notification-triage prompt, which provides a
// verification-first workflow for App Store Server Notifications: verify the
// outer payload, verify the nested payloads, map the notification type to an
// entitlement change, and deduplicate on the notification UUID.
//
// Parameters:
//   - ctx: Context for the request, used for cancellation and timeouts
//   - request: The MCP get prompt request containing arguments
//   - embed: Embedded filesystem holding the prompt templates
//
// Returns:
//   - *mcp.GetPromptResult: The prompt result with triage workflow
//   - error: Any error that occurred during prompt handling
//
// The triage covers:
//   - Outer and nested payload verification
//   - Per-type entitlement actions (renewals, expirations, refunds)
//   - Idempotent processing via notificationUUID
//
// Expected arguments in request.Params.Arguments:
//   - notification_type: Notification type, e.g. 'DID_RENEW', 'EXPIRED', 'REFUND'
//   - subtype: Notification subtype, e.g. 'BILLING_RETRY', 'VOLUNTARY'
func handleNotificationTriagePrompt(ctx context.Context, request mcp.GetPromptRequest, embed templates.EmbedFS) (*mcp.GetPromptResult, error) {
	notificationType := request.Params.Arguments["notification_type"]
	subtype := request.Params.Arguments["subtype"]

	messages, err := parsePromptTemplate(embed, "notification-triage-prompt", promptTemplateData{
		NotificationType: notificationType,
		Subtype:          subtype,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification triage template: %w", err)
	}

	return mcp.NewGetPromptResult(
		"Server Notification Triage",
		messages,
	), nil
}

// handleVerificationTroubleshootingPrompt handles the verification troubleshooting prompt.
//
// This function implements the verification-troubleshooting prompt, which
// provides targeted guidance for common signed payload verification failures
// based on the specified issue type. It offers context-specific diagnosis
// steps and common causes for each problem category.
//
// Parameters:
//   - ctx: Context for the request, used for cancellation and timeouts
//   - request: The MCP get prompt request containing arguments
//   - embed: Embedded filesystem holding the prompt templates
//
// Returns:
//   - *mcp.GetPromptResult: The prompt result with troubleshooting guidance
//   - error: Any error that occurred during prompt handling
//
// Supported issue types:
//   - chain: Untrusted roots, expired signing certificates, missing OID markers
//   - signature: Broken JWS segments, wrong algorithm, modified payloads
//   - environment: Sandbox/Production mismatches, Xcode payloads
//   - bundle: Bundle ID and app Apple ID mismatches
//
// Expected arguments in request.Params.Arguments:
//   - issue_type: Type of issue ('chain', 'signature', 'environment', 'bundle')
//   - error_message: The verification error message, if available
//   - environment: Configured server environment (for environment issues)
func handleVerificationTroubleshootingPrompt(ctx context.Context, request mcp.GetPromptRequest, embed templates.EmbedFS) (*mcp.GetPromptResult, error) {
	issueType := request.Params.Arguments["issue_type"]
	errorMessage := request.Params.Arguments["error_message"]
	environment := request.Params.Arguments["environment"]

	messages, err := parsePromptTemplate(embed, "troubleshooting-prompt", promptTemplateData{
		IssueType:    issueType,
		ErrorMessage: errorMessage,
		Environment:  environment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse troubleshooting template: %w", err)
	}

	return mcp.NewGetPromptResult(
		"Payload Verification Troubleshooting Guide",
		messages,
	), nil
}
