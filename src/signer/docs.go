// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package signer creates the signatures an app presents to the App Store
// when requesting offers: the classic promotional offer signature, and
// the JWS forms described in [Generating JWS to sign App Store requests]
// (promotional offer v2, introductory offer eligibility, and Advanced
// Commerce in-app requests).
//
// All creators sign with an App Store Connect private key. Nothing here
// talks to the network; the outputs are handed to StoreKit or to App
// Store endpoints by the app.
//
// [Generating JWS to sign App Store requests]: https://developer.apple.com/documentation/storekit/generating-jws-to-sign-app-store-requests
package signer
