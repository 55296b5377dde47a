// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"encoding/asn1"
	"time"

	"golang.org/x/crypto/ocsp"
)

// RevocationStatus is the outcome of inspecting one certificate's embedded
// revocation attestation.
type RevocationStatus int

const (
	// RevocationUnknown means no attestation was present, or the attestation
	// was malformed, wrongly signed, or stale. Unknown never blocks.
	RevocationUnknown RevocationStatus = iota
	// RevocationGood means a fresh, correctly signed attestation states the
	// certificate is not revoked.
	RevocationGood
	// RevocationRevoked means a fresh, correctly signed attestation states the
	// certificate is revoked. Revoked always blocks.
	RevocationRevoked
)

// String returns a human-readable status name for logs and renderings.
func (s RevocationStatus) String() string {
	switch s {
	case RevocationGood:
		return "good"
	case RevocationRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// oidEmbeddedAttestation identifies the certificate extension carrying a
// pre-signed DER OCSP response produced at issuance time. Checking it needs
// no network round trip.
var oidEmbeddedAttestation = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 1}

// revocationSkew is the clock-skew tolerance applied to the attestation
// freshness window on both ends.
const revocationSkew = 5 * time.Minute

// checkRevocation inspects the embedded revocation attestation of cert, if
// any, and classifies it at the given point in time.
//
// The attestation must parse as a DER OCSP response, must be signed by the
// issuing CA (or by a responder certificate the issuing CA signed), must match
// the certificate's serial, and its thisUpdate/nextUpdate window widened by
// revocationSkew must contain the effective date. Any shortfall downgrades to
// RevocationUnknown; a stale or unverifiable attestation is never treated as
// proof of revocation.
//
// Parameters:
//   - cert: Certificate whose attestation is inspected
//   - issuer: CA that issued cert; anchors the attestation signature check
//   - at: Effective date the attestation must be fresh at
//
// Returns:
//   - RevocationStatus: Exactly one of Good, Revoked, or Unknown
func checkRevocation(cert, issuer *x509.Certificate, at time.Time) RevocationStatus {
	var raw []byte
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oidEmbeddedAttestation) {
			raw = ext.Value
			break
		}
	}
	if len(raw) == 0 {
		return RevocationUnknown
	}

	resp, err := ocsp.ParseResponseForCert(raw, cert, issuer)
	if err != nil {
		// Malformed bytes, a signature that does not chain to the issuer, and
		// a serial mismatch all land here.
		return RevocationUnknown
	}

	// Freshness window, inclusive, widened by the skew tolerance.
	if at.Before(resp.ThisUpdate.Add(-revocationSkew)) || at.After(resp.NextUpdate.Add(revocationSkew)) {
		return RevocationUnknown
	}

	switch resp.Status {
	case ocsp.Good:
		return RevocationGood
	case ocsp.Revoked:
		return RevocationRevoked
	default:
		return RevocationUnknown
	}
}
