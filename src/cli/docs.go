// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the App Store server library.
// It implements a Cobra-based CLI that verifies signed payloads (transactions, renewal
// info, notifications, and app transactions) against pinned root certificates, decodes
// payload claims for inspection, and extracts transaction ids from StoreKit receipts.
// Results render as JSON, a field table with storefront-aware price formatting, or an
// ASCII tree of the verified certificate chain. The package handles file I/O, context
// cancellation, and integrates with the logger package for user-facing notices.
package cli
