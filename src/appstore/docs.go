// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package appstore defines the data model shared by every surface of this
// repository: the decoded [JWS] payloads the verifier produces, the signed
// notification envelopes the App Store posts to servers, and the request and
// response bodies of the [App Store Server API].
//
// The types here are plain data carriers. They perform no validation and no
// network or signature work; decoding a payload into them says nothing about
// its authenticity. Use the verifier package to check signatures first, and
// the api package to talk to the server endpoints.
//
// Conventions:
//
//   - JSON field names are camelCase, exactly as the store emits them.
//   - Timestamps are millisecond UNIX epochs carried as int64, again exactly
//     as the store emits them. Convert with time.UnixMilli when needed.
//   - Enumerated values are defined as typed constants. Fields keep whatever
//     string or number the store sent, so payloads introducing values newer
//     than this package still decode; compare against the constants rather
//     than switching exhaustively.
//
// [JWS]: https://datatracker.ietf.org/doc/html/rfc7515
// [App Store Server API]: https://developer.apple.com/documentation/appstoreserverapi
package appstore
