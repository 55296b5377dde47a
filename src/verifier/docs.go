// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package verifier checks the authenticity of signed App Store payloads and
// decodes them into the appstore model types.
//
// A [SignedDataVerifier] is bound to one app: its bundle identifier, its
// Apple ID, the environment it expects payloads from, and the set of root
// certificates it pins. Every payload kind the store signs goes through the
// same pipeline: the [JWS] header's x5c chain is verified against the pinned
// roots (see the x509chain package), the ES256 signature is checked with the
// chain's trusted key, and only then is the claims body decoded and its app
// identity compared against the verifier's.
//
// Payloads from the Xcode and LocalTesting environments are not signed by
// the store, so verifiers configured for those environments decode without
// any signature or chain checks.
//
// [JWS]: https://datatracker.ietf.org/doc/html/rfc7515
package verifier
