// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package logger carries log output across the two front ends of the payload
// verifier. The Logger interface has two implementations: CLILogger prints
// plain lines for interactive command-line use, and MCPLogger emits one JSON
// record per message so MCP server runs can log without touching the stdio
// protocol stream. Both are safe for concurrent use.
package logger
