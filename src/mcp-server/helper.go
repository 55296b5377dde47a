// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import "fmt"

// getParams pulls the params object out of a canonicalized JSON-RPC request.
//
// Sampling requests intercepted by the in-memory transport arrive as generic
// maps; the params member must itself be an object before it can be decoded
// into typed SDK structs.
//
// Parameters:
//   - req: Canonicalized request map
//   - method: Method name, used only for the error message
//
// Returns:
//   - map[string]any: The params object
//   - error: Error when params is absent or not an object
func getParams(req map[string]any, method string) (map[string]any, error) {
	p, ok := req["params"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing or malformed %s params", method)
	}
	return p, nil
}
