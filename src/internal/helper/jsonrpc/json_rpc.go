// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package jsonrpc

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Marshal rewrites a raw JSON-RPC frame into canonical form.
//
// The frame is decoded, canonicalized via Map(), and encoded again. Frames
// produced by different SDK implementations then share one shape before they
// reach the server loop: lowercase keys, a jsonrpc version field, and stable
// id values.
//
// Parameters:
//   - data: Raw JSON-RPC frame bytes
//
// Returns:
//   - []byte: Canonical frame bytes
//   - error: Error if the frame is not a JSON object or re-encoding fails
func Marshal(data []byte) ([]byte, error) {
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}

	return json.Marshal(Map(decoded))
}

// Map canonicalizes a decoded JSON-RPC message map.
//
// All top-level keys are lowercased. Two fields get dedicated handling:
//   - "id": an empty object becomes nil, and whole-number float64 values
//     (the default decoding for JSON numbers) become int64
//   - "jsonrpc": defaulted to the protocol version when absent
//
// Nested maps such as params are passed through untouched, so payload field
// names keep their original casing.
//
// Parameters:
//   - raw: Decoded message with possibly mixed-case keys
//
// Returns:
//   - map[string]any: Canonical message map
func Map(raw map[string]any) map[string]any {
	normalized := make(map[string]any)
	for k, v := range raw {
		key := strings.ToLower(k)
		switch key {
		case "id":
			if idMap, ok := v.(map[string]any); ok && len(idMap) == 0 {
				normalized["id"] = nil
			} else {
				normalized["id"] = normalizeIDValue(v)
			}
		case "jsonrpc":
			normalized["jsonrpc"] = v
		default:
			normalized[key] = v
		}
	}

	if _, ok := normalized["jsonrpc"]; !ok {
		normalized["jsonrpc"] = mcp.JSONRPC_VERSION
	}

	return normalized
}

// normalizeIDValue narrows float64 id values back to int64 where possible.
//
// encoding/json decodes every JSON number into float64, so an id sent as 7
// arrives as 7.0. Request/response correlation compares ids by value and
// type, which makes the integer form the one to keep.
//
// Parameters:
//   - v: Decoded id value
//
// Returns:
//   - any: int64 when v is a whole-number float64, otherwise v unchanged
func normalizeIDValue(v any) any {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return int64(f)
	}
	return v
}

// UnmarshalFromMap decodes a generic value into a typed struct.
//
// Parameter maps extracted from JSON-RPC frames arrive as map[string]any; a
// JSON round-trip moves them into the destination type without hand-written
// field copying.
//
// Parameters:
//   - src: Source map or value
//   - dest: Pointer to the destination struct
//
// Returns:
//   - error: Error if either leg of the round-trip fails
func UnmarshalFromMap(src any, dest any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
