// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package appstore

import "github.com/google/uuid"

// AppTransaction is the decoded claims set of a signed app transaction: the
// proof of the app's own purchase, as opposed to an in-app purchase.
//
// ReceiptCreationDate covers apps bought after signed transactions were
// introduced; OriginalApplicationVersion and OriginalPurchaseDate identify
// the first purchase for older apps. Timestamp fields are millisecond UNIX
// epochs.
//
// [AppTransaction]: https://developer.apple.com/documentation/storekit/apptransaction
type AppTransaction struct {
	ReceiptType                Environment `json:"receiptType,omitempty"`
	AppAppleID                 int64       `json:"appAppleId,omitempty"`
	BundleID                   string      `json:"bundleId,omitempty"`
	ApplicationVersion         string      `json:"applicationVersion,omitempty"`
	VersionExternalIdentifier  int64       `json:"versionExternalIdentifier,omitempty"`
	ReceiptCreationDate        int64       `json:"receiptCreationDate,omitempty"`
	OriginalPurchaseDate       int64       `json:"originalPurchaseDate,omitempty"`
	OriginalApplicationVersion string      `json:"originalApplicationVersion,omitempty"`
	DeviceVerification         string      `json:"deviceVerification,omitempty"`
	DeviceVerificationNonce    *uuid.UUID  `json:"deviceVerificationNonce,omitempty"`
	PreorderDate               int64       `json:"preorderDate,omitempty"`
	SignedDate                 int64       `json:"signedDate,omitempty"`
}
