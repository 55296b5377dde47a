// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"
)

func TestVerifyAtHappyPath(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})
	v := newTestVerifier(t, pki)

	key, err := v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.NoError(t, err, "healthy chain should verify")
	require.NotNil(t, key, "expected a trusted key")

	assert.Equal(t, pki.leaf.RawSubjectPublicKeyInfo, key.Raw, "Raw should be the leaf SPKI")
	assert.Equal(t, x509.ECDSA, key.Algorithm, "leaf key algorithm should be ECDSA")

	pub, ok := key.Key.(*ecdsa.PublicKey)
	require.True(t, ok, "expected an ECDSA public key")
	assert.True(t, pub.Equal(&pki.leafKey.PublicKey), "returned key should match the leaf key")
}

func TestVerifyAtFailures(t *testing.T) {
	tests := []struct {
		name    string
		cfg     testPKIConfig
		mutate  func(pki *testPKI) (leafDER, intermediateDER []byte)
		wantErr error
	}{
		{
			name: "garbage leaf DER",
			mutate: func(pki *testPKI) ([]byte, []byte) {
				return []byte("not a certificate"), pki.intermediateDER
			},
			wantErr: ErrMalformedCertificate,
		},
		{
			name: "garbage intermediate DER",
			mutate: func(pki *testPKI) ([]byte, []byte) {
				return pki.leafDER, []byte("not a certificate")
			},
			wantErr: ErrMalformedCertificate,
		},
		{
			name: "truncated leaf DER",
			mutate: func(pki *testPKI) ([]byte, []byte) {
				return pki.leafDER[:len(pki.leafDER)/2], pki.intermediateDER
			},
			wantErr: ErrMalformedCertificate,
		},
		{
			name:    "leaf missing receipt signing marker",
			cfg:     testPKIConfig{omitLeafMarker: true},
			wantErr: ErrInvalidExtension,
		},
		{
			name:    "intermediate missing WWDR marker",
			cfg:     testPKIConfig{omitIntermediateMarker: true},
			wantErr: ErrInvalidExtension,
		},
		{
			name: "leaf and intermediate swapped",
			mutate: func(pki *testPKI) ([]byte, []byte) {
				return pki.intermediateDER, pki.leafDER
			},
			wantErr: ErrInvalidExtension,
		},
		{
			name: "tampered leaf signature",
			mutate: func(pki *testPKI) ([]byte, []byte) {
				tampered := make([]byte, len(pki.leafDER))
				copy(tampered, pki.leafDER)
				tampered[len(tampered)-1] ^= 0x01
				return tampered, pki.intermediateDER
			},
			wantErr: ErrChainTrustFailure,
		},
		{
			name: "leaf expired",
			cfg: testPKIConfig{
				leafNotBefore: testEffectiveDate.Add(-48 * time.Hour),
				leafNotAfter:  testEffectiveDate.Add(-24 * time.Hour),
			},
			wantErr: ErrExpiredOrNotYetValid,
		},
		{
			name: "leaf not yet valid",
			cfg: testPKIConfig{
				leafNotBefore: testEffectiveDate.Add(24 * time.Hour),
				leafNotAfter:  testEffectiveDate.Add(48 * time.Hour),
			},
			wantErr: ErrExpiredOrNotYetValid,
		},
		{
			name: "intermediate expired",
			cfg: testPKIConfig{
				intermediateNotBefore: testEffectiveDate.Add(-48 * time.Hour),
				intermediateNotAfter:  testEffectiveDate.Add(-24 * time.Hour),
			},
			wantErr: ErrExpiredOrNotYetValid,
		},
		{
			name: "root expired",
			cfg: testPKIConfig{
				rootNotBefore: testEffectiveDate.Add(-48 * time.Hour),
				rootNotAfter:  testEffectiveDate.Add(-24 * time.Hour),
			},
			wantErr: ErrExpiredOrNotYetValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pki := newTestPKI(t, tt.cfg)

			leafDER, intermediateDER := pki.leafDER, pki.intermediateDER
			if tt.mutate != nil {
				leafDER, intermediateDER = tt.mutate(pki)
			}

			v := newTestVerifier(t, pki)
			key, err := v.VerifyAt(leafDER, intermediateDER, testEffectiveDate)
			require.Error(t, err, "expected verification to fail")
			assert.ErrorIs(t, err, tt.wantErr, "unexpected failure class")
			assert.Nil(t, key, "no key may be returned on failure")
		})
	}
}

func TestVerifyAtWrongRoot(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})
	stranger := newTestPKI(t, testPKIConfig{})

	roots, err := NewRootStore([][]byte{stranger.rootDER})
	require.NoError(t, err, "failed to build root store")

	v := NewVerifier(roots)
	_, err = v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	assert.ErrorIs(t, err, ErrChainTrustFailure, "a stranger's root must not validate the chain")
}

// rotatedRoot issues a second self-signed root certificate over the same key
// with its own validity window. Both certificates verify the intermediate's
// signature, which is what lets the candidate scan tell windows apart from
// trust.
func rotatedRoot(t *testing.T, pki *testPKI, notBefore, notAfter time.Time) []byte {
	t.Helper()
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(100),
		Subject:               pkix.Name{CommonName: "Test Root CA (rotated)"},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &pki.rootKey.PublicKey, pki.rootKey)
	require.NoError(t, err, "failed to create rotated root")
	return der
}

func TestVerifyAtMultipleRoots(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})
	stranger := newTestPKI(t, testPKIConfig{})
	expiredRootDER := rotatedRoot(t, pki,
		testEffectiveDate.Add(-48*time.Hour), testEffectiveDate.Add(-24*time.Hour))

	t.Run("scan continues past non-matching roots", func(t *testing.T) {
		roots, err := NewRootStore([][]byte{stranger.rootDER, pki.rootDER})
		require.NoError(t, err, "failed to build root store")

		key, err := NewVerifier(roots).VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
		require.NoError(t, err, "matching root later in the store should win")
		assert.NotNil(t, key)
	})

	t.Run("first satisfying root wins over an expired sibling", func(t *testing.T) {
		roots, err := NewRootStore([][]byte{expiredRootDER, pki.rootDER})
		require.NoError(t, err, "failed to build root store")

		key, err := NewVerifier(roots).VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
		require.NoError(t, err, "valid sibling root should satisfy the chain")
		assert.NotNil(t, key)
	})

	t.Run("window violation reported when no sibling satisfies", func(t *testing.T) {
		roots, err := NewRootStore([][]byte{expiredRootDER})
		require.NoError(t, err, "failed to build root store")

		_, err = NewVerifier(roots).VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
		assert.ErrorIs(t, err, ErrExpiredOrNotYetValid,
			"a chained-but-expired candidate must report the window, not a trust failure")
	})
}

func TestVerifyAtRevocation(t *testing.T) {
	fresh := func(status int) *attestationSpec {
		return &attestationSpec{
			status:     status,
			thisUpdate: testEffectiveDate.Add(-time.Hour),
			nextUpdate: testEffectiveDate.Add(time.Hour),
		}
	}

	tests := []struct {
		name    string
		cfg     testPKIConfig
		wantErr error
	}{
		{
			name: "good attestations on both certificates",
			cfg: testPKIConfig{
				leafAttestation:         fresh(ocsp.Good),
				intermediateAttestation: fresh(ocsp.Good),
			},
		},
		{
			name:    "revoked leaf blocks",
			cfg:     testPKIConfig{leafAttestation: fresh(ocsp.Revoked)},
			wantErr: ErrRevokedCertificate,
		},
		{
			name:    "revoked intermediate blocks",
			cfg:     testPKIConfig{intermediateAttestation: fresh(ocsp.Revoked)},
			wantErr: ErrRevokedCertificate,
		},
		{
			name: "garbage attestation downgrades to unknown",
			cfg:  testPKIConfig{leafAttestation: &attestationSpec{garbage: true}},
		},
		{
			name: "attestation signed by a stranger downgrades to unknown",
			cfg: testPKIConfig{leafAttestation: &attestationSpec{
				status:      ocsp.Revoked,
				thisUpdate:  testEffectiveDate.Add(-time.Hour),
				nextUpdate:  testEffectiveDate.Add(time.Hour),
				wrongSigner: true,
			}},
		},
		{
			name: "stale revoked attestation downgrades to unknown",
			cfg: testPKIConfig{leafAttestation: &attestationSpec{
				status:     ocsp.Revoked,
				thisUpdate: testEffectiveDate.Add(-48 * time.Hour),
				nextUpdate: testEffectiveDate.Add(-24 * time.Hour),
			}},
		},
		{
			name: "attestation from the future downgrades to unknown",
			cfg: testPKIConfig{leafAttestation: &attestationSpec{
				status:     ocsp.Revoked,
				thisUpdate: testEffectiveDate.Add(24 * time.Hour),
				nextUpdate: testEffectiveDate.Add(48 * time.Hour),
			}},
		},
		{
			name: "revoked attestation within skew of expiry still blocks",
			cfg: testPKIConfig{leafAttestation: &attestationSpec{
				status:     ocsp.Revoked,
				thisUpdate: testEffectiveDate.Add(-time.Hour),
				nextUpdate: testEffectiveDate.Add(-2 * time.Minute),
			}},
			wantErr: ErrRevokedCertificate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pki := newTestPKI(t, tt.cfg)
			v := newTestVerifier(t, pki)

			key, err := v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
			if tt.wantErr != nil {
				require.Error(t, err, "expected verification to fail")
				assert.ErrorIs(t, err, tt.wantErr, "unexpected failure class")
				assert.Nil(t, key)
				return
			}
			require.NoError(t, err, "attestation should not block verification")
			assert.NotNil(t, key)
		})
	}
}

func TestWithoutRevocationCheck(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{
		leafAttestation: &attestationSpec{
			status:     ocsp.Revoked,
			thisUpdate: testEffectiveDate.Add(-time.Hour),
			nextUpdate: testEffectiveDate.Add(time.Hour),
		},
	})

	v := newTestVerifier(t, pki, WithoutRevocationCheck())
	key, err := v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.NoError(t, err, "revocation disabled should ignore the attestation")
	assert.NotNil(t, key)
}

func TestVerifyZeroEffectiveDate(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})

	t.Run("clock inside the windows", func(t *testing.T) {
		v := newTestVerifier(t, pki, WithClock(func() time.Time { return testEffectiveDate }))
		key, err := v.Verify(pki.leafDER, pki.intermediateDER)
		require.NoError(t, err, "zero effective date should resolve to the clock")
		assert.NotNil(t, key)
	})

	t.Run("clock outside the windows", func(t *testing.T) {
		v := newTestVerifier(t, pki, WithClock(func() time.Time { return testNotAfter.Add(24 * time.Hour) }))
		_, err := v.Verify(pki.leafDER, pki.intermediateDER)
		assert.ErrorIs(t, err, ErrExpiredOrNotYetValid)
	})
}

func TestVerifyAtWindowEdges(t *testing.T) {
	notBefore := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	notAfter := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	pki := newTestPKI(t, testPKIConfig{leafNotBefore: notBefore, leafNotAfter: notAfter})

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "exactly at NotBefore", at: notBefore},
		{name: "exactly at NotAfter", at: notAfter},
		{name: "one second before NotBefore", at: notBefore.Add(-time.Second), wantErr: ErrExpiredOrNotYetValid},
		{name: "one second after NotAfter", at: notAfter.Add(time.Second), wantErr: ErrExpiredOrNotYetValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Fresh verifier per case; dates one second apart land in the
			// same cache bucket and would reuse the first outcome.
			v := newTestVerifier(t, pki)
			_, err := v.VerifyAt(pki.leafDER, pki.intermediateDER, tt.at)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr, "window bounds are inclusive")
				return
			}
			assert.NoError(t, err, "window bounds are inclusive")
		})
	}
}

func TestEmptyRootStore(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})

	t.Run("constructor rejects an empty set", func(t *testing.T) {
		_, err := NewRootStore(nil)
		assert.ErrorIs(t, err, ErrEmptyRootStore)

		_, err = NewRootStoreFromCertificates(nil)
		assert.ErrorIs(t, err, ErrEmptyRootStore)
	})

	t.Run("constructor rejects garbage DER", func(t *testing.T) {
		_, err := NewRootStore([][]byte{[]byte("garbage")})
		assert.ErrorIs(t, err, ErrMalformedCertificate)
	})

	t.Run("verifier without roots refuses to run", func(t *testing.T) {
		v := NewVerifier(nil)
		_, err := v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
		assert.ErrorIs(t, err, ErrEmptyRootStore)
	})
}

func TestRootStoreAccessors(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})

	roots, err := NewRootStore([][]byte{pki.rootDER})
	require.NoError(t, err, "failed to build root store")

	assert.Equal(t, 1, roots.Len())

	certs := roots.Certificates()
	require.Len(t, certs, 1)
	assert.Equal(t, pki.root.Raw, certs[0].Raw)

	// Mutating the returned slice must not touch the store.
	certs[0] = nil
	assert.NotNil(t, roots.Certificates()[0], "store contents should be insulated from callers")
}

func TestResolveChain(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{
		leafAttestation: &attestationSpec{
			status:     ocsp.Good,
			thisUpdate: testEffectiveDate.Add(-time.Hour),
			nextUpdate: testEffectiveDate.Add(time.Hour),
		},
	})
	v := newTestVerifier(t, pki)

	chain, err := v.ResolveChain(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.NoError(t, err, "healthy chain should resolve")
	require.NotNil(t, chain)

	assert.Equal(t, "Test Signing Leaf", chain.Leaf.Subject.CommonName)
	assert.Equal(t, "Test Intermediate CA", chain.Intermediate.Subject.CommonName)
	assert.Equal(t, "Test Root CA", chain.Root.Subject.CommonName)
	assert.Equal(t, testEffectiveDate, chain.EffectiveDate)
	assert.Equal(t, RevocationGood, chain.LeafRevocation)
	assert.Equal(t, RevocationUnknown, chain.IntermediateRevocation)

	certs := chain.Certificates()
	require.Len(t, certs, 3, "chain renders leaf to root")
	assert.True(t, IsSelfSigned(certs[2]), "pinned root is self-signed")
	assert.False(t, IsSelfSigned(certs[0]), "leaf is not self-signed")
}

func TestResolveChainFailurePropagates(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{omitLeafMarker: true})
	v := newTestVerifier(t, pki)

	chain, err := v.ResolveChain(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	assert.ErrorIs(t, err, ErrInvalidExtension)
	assert.Nil(t, chain, "failures never yield a partial chain")
}

func TestChainRendering(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})
	v := newTestVerifier(t, pki)

	chain, err := v.ResolveChain(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.NoError(t, err, "healthy chain should resolve")

	t.Run("ASCII tree", func(t *testing.T) {
		tree := chain.RenderASCIITree()
		assert.Contains(t, tree, "Test Signing Leaf")
		assert.Contains(t, tree, "Test Intermediate CA")
		assert.Contains(t, tree, "Test Root CA")
		assert.Contains(t, tree, "└── ", "last entry uses the closing connector")
		t.Logf("ASCII tree:\n%s", tree)
	})

	t.Run("markdown table", func(t *testing.T) {
		table := chain.RenderTable()
		assert.Contains(t, table, "Test Signing Leaf")
		assert.Contains(t, table, "256-bit ECDSA")
		assert.Contains(t, table, "pinned", "root row reports the trust anchor status")
		t.Logf("Table:\n%s", table)
	})

	t.Run("visualization JSON", func(t *testing.T) {
		raw, err := chain.ToVisualizationJSON()
		require.NoError(t, err, "visualization JSON should marshal")

		var data struct {
			EffectiveDate string `json:"effectiveDate"`
			ChainLength   int    `json:"chainLength"`
			Certificates  []struct {
				Role             string `json:"role"`
				Subject          string `json:"subject"`
				SelfSigned       bool   `json:"selfSigned"`
				RevocationStatus string `json:"revocationStatus"`
			} `json:"certificates"`
			Relationships []struct {
				FromIndex int    `json:"fromIndex"`
				ToIndex   int    `json:"toIndex"`
				Type      string `json:"type"`
			} `json:"relationships"`
		}
		require.NoError(t, json.Unmarshal(raw, &data), "visualization JSON should parse")

		assert.Equal(t, 3, data.ChainLength)
		assert.Equal(t, testEffectiveDate.Format(time.RFC3339), data.EffectiveDate)
		require.Len(t, data.Certificates, 3)
		assert.Equal(t, "End-Entity (Leaf) Certificate", data.Certificates[0].Role)
		assert.Equal(t, "Pinned Root CA Certificate", data.Certificates[2].Role)
		assert.True(t, data.Certificates[2].SelfSigned)
		require.Len(t, data.Relationships, 2)
		assert.Equal(t, "signed_by", data.Relationships[0].Type)
	})
}

func TestRevocationStatusString(t *testing.T) {
	assert.Equal(t, "good", RevocationGood.String())
	assert.Equal(t, "revoked", RevocationRevoked.String())
	assert.Equal(t, "unknown", RevocationUnknown.String())
	assert.Equal(t, "unknown", RevocationStatus(42).String())
}
