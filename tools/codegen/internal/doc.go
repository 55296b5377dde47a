// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package codegen regenerates the MCP server definition files from JSON
// configuration.
//
// Tool, resource, and prompt definitions live in config/*.json; templates
// under templates/ render them into Go source in src/mcp-server. The config
// is validated (unique names and URIs, JSON Schema style parameter
// constraints) and the output is gofmt-checked before any file is written,
// so a broken template or config never clobbers working definitions.
package codegen
