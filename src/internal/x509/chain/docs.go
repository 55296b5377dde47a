// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain implements [X.509] certificate chain trust verification
// for Apple-signed payloads. It provides capabilities to:
//   - Verify that a leaf and intermediate pair chains to a pinned root store.
//   - Enforce validity windows at an explicit effective date.
//   - Enforce the Apple receipt-signing and WWDR marker extension policy.
//   - Check revocation from embedded, pre-signed [OCSP] attestations without
//     any network round trip.
//   - Memoize verification outcomes in a bounded LRU cache keyed by
//     certificate pair and time bucket.
//
// Verification is CPU-bound and performs no I/O; callers wanting deadlines
// impose them externally.
//
// [X.509]: https://grokipedia.com/page/X.509
// [OCSP]: https://grokipedia.com/page/Online_Certificate_Status_Protocol
package x509chain
