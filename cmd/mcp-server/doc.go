// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// mcp-server is a Model Context Protocol (MCP) server that exposes App Store
// signed payload operations to AI assistants and automation clients over stdio.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/app-store-server-go/cmd/mcp-server@latest
//
// # Usage
//
//	mcp-server [FLAGS]
//
// # Flags
//
//	--config        Path to MCP server configuration file (JSON or YAML)
//	--instructions  Display payload operation workflows and MCP server usage
//	--help          Show help information
//	--version       Show version information
//
// # Environment Variables
//
//	APPSTORE_AI_APIKEY        API key for AI-backed payload analysis (optional)
//	MCP_APPSTORE_CONFIG_FILE  Path to configuration file (alternative to --config flag)
//
// # MCP Tools
//
// The server provides the following signed payload operations:
//
//   - decode_signed_payload: Decode a JWS payload without verifying its signature
//   - verify_signed_payload: Verify a payload against the configured Apple root certificates
//   - verify_cert_chain: Inspect and validate the x5c signing chain carried by a payload
//   - extract_receipt_transaction_id: Pull the transaction ID out of app or legacy receipts
//   - get_cache_stats: Report chain verification cache statistics
//   - analyze_payload_with_ai: Delegate structured payload analysis to a configured LLM
//   - get_resource_usage: Monitor server resource usage (memory, GC, system info)
//
// # MCP Resources
//
//   - config://template: Server configuration template
//   - info://version: Version and capabilities info
//   - docs://payload-formats: Signed payload format documentation
//   - status://server-status: Current server health status
//
// # MCP Prompts
//
//   - payload-analysis: Comprehensive signed payload analysis workflow
//   - subscription-review: Review auto-renewable subscription renewal state
//   - notification-triage: Triage App Store Server Notifications safely
//   - verification-troubleshooting: Troubleshoot common payload verification failures
//
// # Examples
//
// Start MCP server with default configuration:
//
//	mcp-server
//
// Load custom configuration:
//
//	mcp-server --config /path/to/config.json
//
// Show payload operation workflows:
//
//	mcp-server --instructions
//
// # AI-Assisted Analysis
//
// Set APPSTORE_AI_APIKEY or configure the ai section of the MCP config to allow
// the server to request completions from xAI Grok (default), OpenAI, or any
// OpenAI-compatible API.
package main
