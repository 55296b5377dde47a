// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"
)

// Pinned times so trust decisions never depend on the wall clock.
var (
	testEffectiveDate = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	testNotBefore     = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	testNotAfter      = time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// asn1Null is the value both Apple marker extensions carry.
var asn1Null = []byte{0x05, 0x00}

// attestationSpec describes the embedded revocation attestation a test wants
// baked into a certificate.
type attestationSpec struct {
	status     int // ocsp.Good or ocsp.Revoked
	thisUpdate time.Time
	nextUpdate time.Time

	garbage     bool // replace the DER with bytes that do not parse
	wrongSigner bool // sign with a key the issuing CA never certified
}

// testPKIConfig controls the deviations a test wants from a healthy chain.
// The zero value produces a chain that verifies at testEffectiveDate.
type testPKIConfig struct {
	omitLeafMarker         bool
	omitIntermediateMarker bool

	leafNotBefore         time.Time // zero keeps the package defaults
	leafNotAfter          time.Time
	intermediateNotBefore time.Time
	intermediateNotAfter  time.Time
	rootNotBefore         time.Time
	rootNotAfter          time.Time

	leafAttestation         *attestationSpec
	intermediateAttestation *attestationSpec
}

// testPKI is a synthetic three-tier authority generated per test: an ECDSA
// P-256 root signing an intermediate signing a leaf, with the Apple marker
// extensions in place unless the config omits them.
type testPKI struct {
	rootKey         *ecdsa.PrivateKey
	intermediateKey *ecdsa.PrivateKey
	leafKey         *ecdsa.PrivateKey

	root         *x509.Certificate
	intermediate *x509.Certificate
	leaf         *x509.Certificate

	rootDER         []byte
	intermediateDER []byte
	leafDER         []byte
}

func newECDSAKey(tb testing.TB) *ecdsa.PrivateKey {
	tb.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(tb, err, "failed to generate ECDSA key")
	return key
}

func orTime(v, def time.Time) time.Time {
	if v.IsZero() {
		return def
	}
	return v
}

func createCert(tb testing.TB, template, parent *x509.Certificate, pub *ecdsa.PublicKey, signer *ecdsa.PrivateKey) ([]byte, *x509.Certificate) {
	tb.Helper()
	der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, signer)
	require.NoError(tb, err, "failed to create certificate")
	cert, err := x509.ParseCertificate(der)
	require.NoError(tb, err, "failed to parse created certificate")
	return der, cert
}

// newAttestation builds the extension value for an embedded revocation
// attestation covering the given serial, signed by the issuing CA unless the
// spec asks for a broken one.
func newAttestation(tb testing.TB, spec *attestationSpec, serial *big.Int, issuer *x509.Certificate, issuerKey *ecdsa.PrivateKey) []byte {
	tb.Helper()

	if spec.garbage {
		return []byte{0xde, 0xad, 0xbe, 0xef}
	}

	template := ocsp.Response{
		Status:       spec.status,
		SerialNumber: serial,
		ThisUpdate:   spec.thisUpdate,
		NextUpdate:   spec.nextUpdate,
	}
	if spec.status == ocsp.Revoked {
		template.RevokedAt = spec.thisUpdate
		template.RevocationReason = ocsp.KeyCompromise
	}

	var signer crypto.Signer = issuerKey
	if spec.wrongSigner {
		signer = newECDSAKey(tb)
	}

	der, err := ocsp.CreateResponse(issuer, issuer, template, signer)
	require.NoError(tb, err, "failed to create attestation")
	return der
}

// newTestPKI generates a root, intermediate, and leaf per the config.
func newTestPKI(tb testing.TB, cfg testPKIConfig) *testPKI {
	tb.Helper()

	pki := &testPKI{
		rootKey:         newECDSAKey(tb),
		intermediateKey: newECDSAKey(tb),
		leafKey:         newECDSAKey(tb),
	}

	rootTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Root CA"},
		NotBefore:             orTime(cfg.rootNotBefore, testNotBefore),
		NotAfter:              orTime(cfg.rootNotAfter, testNotAfter),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	pki.rootDER, pki.root = createCert(tb, rootTemplate, rootTemplate, &pki.rootKey.PublicKey, pki.rootKey)

	intermediateTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(2),
		Subject:               pkix.Name{CommonName: "Test Intermediate CA"},
		NotBefore:             orTime(cfg.intermediateNotBefore, testNotBefore),
		NotAfter:              orTime(cfg.intermediateNotAfter, testNotAfter),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	if !cfg.omitIntermediateMarker {
		intermediateTemplate.ExtraExtensions = append(intermediateTemplate.ExtraExtensions,
			pkix.Extension{Id: oidAppleWWDRIntermediate, Value: asn1Null})
	}
	if cfg.intermediateAttestation != nil {
		value := newAttestation(tb, cfg.intermediateAttestation, intermediateTemplate.SerialNumber, pki.root, pki.rootKey)
		intermediateTemplate.ExtraExtensions = append(intermediateTemplate.ExtraExtensions,
			pkix.Extension{Id: oidEmbeddedAttestation, Value: value})
	}
	pki.intermediateDER, pki.intermediate = createCert(tb, intermediateTemplate, pki.root, &pki.intermediateKey.PublicKey, pki.rootKey)

	leafTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{CommonName: "Test Signing Leaf"},
		NotBefore:    orTime(cfg.leafNotBefore, testNotBefore),
		NotAfter:     orTime(cfg.leafNotAfter, testNotAfter),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	if !cfg.omitLeafMarker {
		leafTemplate.ExtraExtensions = append(leafTemplate.ExtraExtensions,
			pkix.Extension{Id: oidAppleReceiptSigning, Value: asn1Null})
	}
	if cfg.leafAttestation != nil {
		value := newAttestation(tb, cfg.leafAttestation, leafTemplate.SerialNumber, pki.intermediate, pki.intermediateKey)
		leafTemplate.ExtraExtensions = append(leafTemplate.ExtraExtensions,
			pkix.Extension{Id: oidEmbeddedAttestation, Value: value})
	}
	pki.leafDER, pki.leaf = createCert(tb, leafTemplate, pki.intermediate, &pki.leafKey.PublicKey, pki.intermediateKey)

	return pki
}

// newTestVerifier pins the PKI's own root and applies any extra options.
func newTestVerifier(tb testing.TB, pki *testPKI, opts ...Option) *Verifier {
	tb.Helper()
	roots, err := NewRootStore([][]byte{pki.rootDER})
	require.NoError(tb, err, "failed to build root store")
	return NewVerifier(roots, opts...)
}
