// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"time"
)

// Chain is a fully resolved [X.509] trust chain: the leaf, the intermediate,
// the pinned root that matched, the effective date the decision was made at,
// and the revocation statuses observed along the way.
//
// A Chain only exists for inputs that passed verification; failures surface
// as errors, never as partially filled chains.
//
// [X.509]: https://grokipedia.com/page/X.509
type Chain struct {
	Leaf          *x509.Certificate
	Intermediate  *x509.Certificate
	Root          *x509.Certificate
	EffectiveDate time.Time

	LeafRevocation         RevocationStatus
	IntermediateRevocation RevocationStatus
}

// Certificates returns the chain in leaf-to-root order, the shape the PEM and
// DER bundle encoders expect.
func (c *Chain) Certificates() []*x509.Certificate {
	return []*x509.Certificate{c.Leaf, c.Intermediate, c.Root}
}

// trustedKey extracts the leaf public key in the form Verify hands to
// callers.
func (c *Chain) trustedKey() *TrustedKey {
	return &TrustedKey{
		Raw:       c.Leaf.RawSubjectPublicKeyInfo,
		Algorithm: c.Leaf.PublicKeyAlgorithm,
		Key:       c.Leaf.PublicKey,
	}
}

// IsSelfSigned checks if a certificate is self-signed by verifying its
// signature against its own public key.
func IsSelfSigned(cert *x509.Certificate) bool {
	return cert.CheckSignatureFrom(cert) == nil
}

// ResolveChain runs the same trust decision as VerifyAt but returns the whole
// matched chain instead of just the leaf key. The CLI and MCP surfaces use it
// to render what was trusted and why.
//
// ResolveChain bypasses the outcome cache; display paths are rare and want
// the statuses of the moment, not a memoized decision.
//
// Parameters:
//   - leafDER: DER bytes of the leaf certificate
//   - intermediateDER: DER bytes of the intermediate certificate
//   - effectiveDate: Point in time the chain must be valid at; zero means now
//
// Returns:
//   - *Chain: Matched chain with revocation statuses filled in
//   - error: One of the package sentinel errors describing the first failure
//
// Thread Safety: Safe for concurrent use.
func (v *Verifier) ResolveChain(leafDER, intermediateDER []byte, effectiveDate time.Time) (*Chain, error) {
	if v.roots == nil || v.roots.Len() == 0 {
		return nil, ErrEmptyRootStore
	}

	if effectiveDate.IsZero() {
		effectiveDate = v.now()
	}

	return v.resolve(leafDER, intermediateDER, effectiveDate)
}
