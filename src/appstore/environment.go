// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package appstore

// Environment identifies the server environment a signed payload or API
// request belongs to.
//
// Sandbox and Production are the two real store environments. Xcode and
// LocalTesting payloads are generated outside the store (by Xcode's StoreKit
// testing and by local test tooling) and carry signatures that do not chain
// to the pinned roots, so verifiers configured for them decode without
// checking signatures.
type Environment string

const (
	EnvironmentSandbox      Environment = "Sandbox"
	EnvironmentProduction   Environment = "Production"
	EnvironmentXcode        Environment = "Xcode"
	EnvironmentLocalTesting Environment = "LocalTesting"
)
