// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// app-store-server is a command-line tool for verifying, decoding, and
// inspecting App Store signed payloads and StoreKit receipts.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/app-store-server-go/cmd/app-store-server@latest
//
// # Usage
//
//	app-store-server -f PAYLOAD_FILE [FLAGS]
//
// # Flags
//
//	-f, --file            File holding the signed payload or receipt
//	-p, --payload         Signed payload or receipt passed literally
//	-k, --kind            Payload kind: transaction, renewal-info, notification, or app-transaction
//	-r, --roots           Trusted root certificate file (PEM, DER, or PKCS7); repeatable
//	-b, --bundle-id       Bundle identifier the payload must belong to
//	-a, --app-apple-id    App Apple ID checked for production payloads
//	-e, --environment     Environment the payload must come from (default: Production)
//	    --effective-date  RFC 3339 instant used for certificate validity checks
//	    --decode-only     Decode the payload without verifying its signature
//	    --receipt         Treat the input as an app receipt and print its transaction id
//	    --legacy-receipt  Treat the input as a legacy transaction receipt
//	-t, --tree            Display the verified certificate chain as ASCII tree diagram
//	    --table           Display the decoded transaction as markdown table
//	-o, --output          Destination file (default: stdout)
//
// # Examples
//
// Verify a signed transaction against pinned Apple roots:
//
//	app-store-server -f transaction.jws -r AppleRootCA-G3.cer \
//	  -b com.example.app -e Production
//
// Verify a notification and write the decoded payload to a file:
//
//	app-store-server -f notification.jws -k notification -r AppleRootCA-G3.cer \
//	  -b com.example.app -a 1234 -o decoded.json
//
// Decode a payload for inspection without verification:
//
//	app-store-server -p "$SIGNED_PAYLOAD" --decode-only
//
// Display a verified transaction as a markdown table:
//
//	app-store-server -f transaction.jws -r AppleRootCA-G3.cer \
//	  -b com.example.app --table
//
// Visualize the payload's certificate chain as an ASCII tree:
//
//	app-store-server -f transaction.jws -r AppleRootCA-G3.cer \
//	  -b com.example.app --tree
//
// Extract the transaction id from an app receipt:
//
//	app-store-server -f receipt.b64 --receipt
package main
