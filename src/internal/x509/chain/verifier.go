// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"time"

	x509certs "github.com/H0llyW00dzZ/app-store-server-go/src/internal/x509/certs"
)

// Error variables for chain verification
var (
	// ErrMalformedCertificate is returned when leaf or intermediate DER bytes
	// cannot be parsed into a certificate.
	ErrMalformedCertificate = errors.New("x509chain: failed to parse certificate")
	// ErrChainTrustFailure is returned when the chain does not terminate at
	// any pinned root.
	ErrChainTrustFailure = errors.New("x509chain: certificate chain does not terminate at a pinned root")
	// ErrExpiredOrNotYetValid is returned when the effective date falls outside
	// a validity window somewhere in an otherwise well-signed chain.
	ErrExpiredOrNotYetValid = errors.New("x509chain: certificate expired or not yet valid at effective date")
	// ErrInvalidExtension is returned when a required marker extension is
	// missing from the leaf or the intermediate.
	ErrInvalidExtension = errors.New("x509chain: required marker extension missing")
	// ErrRevokedCertificate is returned when an embedded revocation attestation
	// states revoked.
	ErrRevokedCertificate = errors.New("x509chain: certificate has been revoked")
	// ErrEmptyRootStore is returned when verification is attempted without any
	// pinned roots.
	ErrEmptyRootStore = errors.New("x509chain: root store must contain at least one certificate")
)

// Apple PKI marker extensions. The receipt-signing marker must be present on
// the leaf and the WWDR marker on the intermediate before any pinned root is
// even consulted.
var (
	oidAppleReceiptSigning   = asn1.ObjectIdentifier{1, 2, 840, 113635, 100, 6, 11, 1}
	oidAppleWWDRIntermediate = asn1.ObjectIdentifier{1, 2, 840, 113635, 100, 6, 2, 1}
)

// TrustedKey is the public key of a leaf certificate whose chain verified
// against a pinned root. It is the only artifact a caller may use to check
// the signature of an App Store payload.
type TrustedKey struct {
	Raw       []byte                  // SubjectPublicKeyInfo, DER encoded
	Algorithm x509.PublicKeyAlgorithm // Algorithm of the leaf key
	Key       crypto.PublicKey        // Parsed key, ready for signature checks
}

// Verifier decides whether a leaf and intermediate certificate pair chains to
// a pinned root, is temporally valid, carries the Apple marker extensions, and
// is not revoked.
//
// A Verifier is safe for concurrent use. The root store is immutable and the
// only shared mutable state is the outcome cache, which coordinates its own
// locking.
type Verifier struct {
	roots           *RootStore
	cache           *verificationCache
	now             func() time.Time
	revocationCheck bool
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClock overrides the wall clock used when Verify resolves a zero
// effective date. Intended for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// WithCacheConfig tunes the outcome cache. A nil config keeps the defaults.
func WithCacheConfig(config *CacheConfig) Option {
	return func(v *Verifier) {
		v.cache = newVerificationCache(config)
	}
}

// WithoutRevocationCheck disables inspection of embedded revocation
// attestations. Verification then rests on signature chaining, validity
// windows, and marker extensions alone.
func WithoutRevocationCheck() Option {
	return func(v *Verifier) {
		v.revocationCheck = false
	}
}

// NewVerifier creates a chain verifier over a pinned root store.
//
// Parameters:
//   - roots: Immutable set of trusted roots built with NewRootStore
//   - opts: Optional configuration (clock, cache tuning, revocation toggle)
//
// Returns:
//   - *Verifier: Ready-to-use verifier sharing the given roots
func NewVerifier(roots *RootStore, opts ...Option) *Verifier {
	v := &Verifier{
		roots:           roots,
		now:             time.Now,
		revocationCheck: true,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.cache == nil {
		v.cache = newVerificationCache(nil)
	}

	return v
}

// Verify checks the leaf and intermediate DER pair against the pinned roots
// at the current time.
//
// Parameters:
//   - leafDER: DER bytes of the leaf certificate
//   - intermediateDER: DER bytes of the intermediate certificate
//
// Returns:
//   - *TrustedKey: Leaf public key when the chain is trusted
//   - error: One of the package sentinel errors describing the first failure
func (v *Verifier) Verify(leafDER, intermediateDER []byte) (*TrustedKey, error) {
	return v.VerifyAt(leafDER, intermediateDER, time.Time{})
}

// VerifyAt checks the leaf and intermediate DER pair against the pinned roots
// at an explicit effective date. A zero effectiveDate resolves to the current
// time.
//
// Outcomes are memoized per (leaf, intermediate, time bucket); identical inputs
// within a bucket return the cached decision, including cached failures.
//
// Parameters:
//   - leafDER: DER bytes of the leaf certificate
//   - intermediateDER: DER bytes of the intermediate certificate
//   - effectiveDate: Point in time the chain must be valid at
//
// Returns:
//   - *TrustedKey: Leaf public key when the chain is trusted
//   - error: One of the package sentinel errors describing the first failure
func (v *Verifier) VerifyAt(leafDER, intermediateDER []byte, effectiveDate time.Time) (*TrustedKey, error) {
	if v.roots == nil || v.roots.Len() == 0 {
		return nil, ErrEmptyRootStore
	}

	if effectiveDate.IsZero() {
		effectiveDate = v.now()
	}

	bucket := effectiveDate.Truncate(v.cache.Config().Bucket)
	key := cacheKeyFor(leafDER, intermediateDER, bucket)

	return v.cache.getOrCompute(key, bucket, func() (*TrustedKey, error) {
		chain, err := v.resolve(leafDER, intermediateDER, effectiveDate)
		if err != nil {
			return nil, err
		}
		return chain.trustedKey(), nil
	})
}

// resolve runs the full trust decision and keeps the matched root and
// revocation statuses, which the display surfaces need and Verify discards.
func (v *Verifier) resolve(leafDER, intermediateDER []byte, effectiveDate time.Time) (*Chain, error) {
	decoder := x509certs.New()

	leaf, err := decoder.DecodeDER(leafDER)
	if err != nil {
		return nil, fmt.Errorf("%w: leaf: %v", ErrMalformedCertificate, err)
	}

	intermediate, err := decoder.DecodeDER(intermediateDER)
	if err != nil {
		return nil, fmt.Errorf("%w: intermediate: %v", ErrMalformedCertificate, err)
	}

	// Marker policy is root-independent; check it once before scanning roots.
	if !hasExtension(leaf, oidAppleReceiptSigning) {
		return nil, fmt.Errorf("%w: leaf lacks receipt signing marker %v", ErrInvalidExtension, oidAppleReceiptSigning)
	}
	if !hasExtension(intermediate, oidAppleWWDRIntermediate) {
		return nil, fmt.Errorf("%w: intermediate lacks WWDR marker %v", ErrInvalidExtension, oidAppleWWDRIntermediate)
	}

	// So is the leaf-to-intermediate signature; no root choice can repair it.
	if err := leaf.CheckSignatureFrom(intermediate); err != nil {
		return nil, fmt.Errorf("%w: leaf not signed by intermediate: %v", ErrChainTrustFailure, err)
	}

	var windowErr error
	for _, root := range v.roots.certs {
		if err := intermediate.CheckSignatureFrom(root); err != nil {
			// This root does not sign the intermediate; try the next one.
			continue
		}

		if err := checkValidityWindows(effectiveDate, leaf, intermediate, root); err != nil {
			// Remember the reason but keep scanning; another pinned root may
			// hold a window that covers the effective date.
			windowErr = err
			continue
		}

		chain := &Chain{
			Leaf:          leaf,
			Intermediate:  intermediate,
			Root:          root,
			EffectiveDate: effectiveDate,
		}

		if v.revocationCheck {
			chain.LeafRevocation = checkRevocation(leaf, intermediate, effectiveDate)
			chain.IntermediateRevocation = checkRevocation(intermediate, root, effectiveDate)

			// Revoked is terminal for the whole verification, not just for
			// this candidate root.
			if chain.LeafRevocation == RevocationRevoked {
				return nil, fmt.Errorf("%w: leaf serial %s", ErrRevokedCertificate, leaf.SerialNumber)
			}
			if chain.IntermediateRevocation == RevocationRevoked {
				return nil, fmt.Errorf("%w: intermediate serial %s", ErrRevokedCertificate, intermediate.SerialNumber)
			}
		}

		return chain, nil
	}

	if windowErr != nil {
		return nil, windowErr
	}

	return nil, fmt.Errorf("%w: no pinned root signs the intermediate", ErrChainTrustFailure)
}

// checkValidityWindows reports the first certificate whose validity window,
// inclusive at both ends, does not contain the effective date.
func checkValidityWindows(at time.Time, certs ...*x509.Certificate) error {
	for _, cert := range certs {
		if at.Before(cert.NotBefore) || at.After(cert.NotAfter) {
			return fmt.Errorf("%w: %q valid from %s until %s, effective date %s",
				ErrExpiredOrNotYetValid,
				cert.Subject.CommonName,
				cert.NotBefore.UTC().Format(time.RFC3339),
				cert.NotAfter.UTC().Format(time.RFC3339),
				at.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

// hasExtension reports whether the certificate carries an extension with the
// given OID, critical or not.
func hasExtension(cert *x509.Certificate, oid asn1.ObjectIdentifier) bool {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oid) {
			return true
		}
	}
	return false
}
