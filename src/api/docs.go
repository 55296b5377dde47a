// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package api is a client for the [App Store Server API]: transaction
// info and history, subscription statuses, order lookup, refund history,
// test and historical notifications, renewal date extensions, consumption
// data, and app account token updates.
//
// Every request authenticates with a short-lived ES256 bearer token
// minted from an App Store Connect API key. Responses that carry signed
// payloads are returned as received; decoding and verifying them is the
// verifier package's job.
//
// [App Store Server API]: https://developer.apple.com/documentation/appstoreserverapi
package api
