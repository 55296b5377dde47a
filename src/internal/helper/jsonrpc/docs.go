// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package jsonrpc canonicalizes [JSON-RPC 2.0] frames crossing the in-memory
// transport bridge. Frames produced by one MCP SDK implementation are
// normalized (lowercase keys, a default protocol version, stable id types)
// before another implementation consumes them, and parameter maps can be
// decoded into typed structs without manual field copying.
//
// [JSON-RPC 2.0]: https://www.jsonrpc.org/specification
package jsonrpc
