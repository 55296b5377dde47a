// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package receipt pulls transaction identifiers out of legacy StoreKit
// receipts so callers can exchange them for signed transaction data through
// the App Store Server API.
//
// Both helpers are extraction only. The receipt's PKCS #7 signature is never
// checked, so the returned identifiers must not be trusted by themselves;
// they are lookup keys, nothing more.
//
// [App Store Receipts]: https://developer.apple.com/documentation/appstorereceipts
package receipt
