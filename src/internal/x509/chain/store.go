// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"

	x509certs "github.com/H0llyW00dzZ/app-store-server-go/src/internal/x509/certs"
)

// RootStore is an immutable set of pinned root certificates.
//
// A RootStore is built once, at verifier construction, from the DER bytes of
// the roots the caller chooses to trust (for App Store payloads that is the
// Apple Root CA set). It is never mutated afterward, so every verification
// call may share the same store without copying or locking.
type RootStore struct {
	certs []*x509.Certificate
}

// NewRootStore builds a RootStore from DER-encoded root certificates.
//
// Parameters:
//   - ders: One DER-encoded certificate per entry
//
// Returns:
//   - *RootStore: Immutable store holding the parsed roots
//   - error: ErrEmptyRootStore when ders is empty, ErrMalformedCertificate
//     when any entry fails to parse
func NewRootStore(ders [][]byte) (*RootStore, error) {
	if len(ders) == 0 {
		return nil, ErrEmptyRootStore
	}

	decoder := x509certs.New()
	certs := make([]*x509.Certificate, 0, len(ders))
	for _, der := range ders {
		cert, err := decoder.DecodeDER(der)
		if err != nil {
			return nil, ErrMalformedCertificate
		}
		certs = append(certs, cert)
	}

	return &RootStore{certs: certs}, nil
}

// NewRootStoreFromCertificates builds a RootStore from already-parsed
// certificates, the shape produced by reading a pinned-roots PEM file.
//
// Parameters:
//   - certs: Parsed root certificates
//
// Returns:
//   - *RootStore: Immutable store holding the roots
//   - error: ErrEmptyRootStore when certs is empty
func NewRootStoreFromCertificates(certs []*x509.Certificate) (*RootStore, error) {
	if len(certs) == 0 {
		return nil, ErrEmptyRootStore
	}

	held := make([]*x509.Certificate, len(certs))
	copy(held, certs)

	return &RootStore{certs: held}, nil
}

// Len returns the number of pinned roots.
func (s *RootStore) Len() int { return len(s.certs) }

// Certificates returns the pinned roots in store order.
//
// The returned slice is a copy; the store itself stays immutable.
func (s *RootStore) Certificates() []*x509.Certificate {
	out := make([]*x509.Certificate, len(s.certs))
	copy(out, s.certs)
	return out
}
