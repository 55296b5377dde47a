// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package verifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/H0llyW00dzZ/app-store-server-go/src/appstore"
	x509chain "github.com/H0llyW00dzZ/app-store-server-go/src/internal/x509/chain"
)

var (
	// ErrVerificationFailure indicates the payload is not a well-formed
	// signed payload or its signature could not be verified: wrong segment
	// count, missing or malformed x5c header, an algorithm other than ES256,
	// a bad signature, or an undecodable claims body.
	ErrVerificationFailure = errors.New("verifier: verification failure")

	// ErrInvalidAppIdentifier indicates the payload was signed for a
	// different app than the verifier is configured for.
	ErrInvalidAppIdentifier = errors.New("verifier: invalid app identifier")

	// ErrInvalidEnvironment indicates the payload belongs to a different
	// server environment than the verifier is configured for.
	ErrInvalidEnvironment = errors.New("verifier: invalid environment")

	// ErrInvalidChainLength indicates the x5c header does not carry exactly
	// the leaf, intermediate, and root certificates.
	ErrInvalidChainLength = errors.New("verifier: x5c chain must contain exactly 3 certificates")
)

// expectedChainLength is the certificate count of every store-signed x5c
// header: leaf, intermediate, root.
const expectedChainLength = 3

// SignedDataVerifier verifies and decodes the signed payloads of one app.
//
// Thread Safety: a SignedDataVerifier is safe for concurrent use. The
// underlying chain verifier caches outcomes, so repeated payloads signed by
// the same certificate pair skip the chain work entirely.
type SignedDataVerifier struct {
	environment appstore.Environment
	bundleID    string
	appAppleID  int64
	chain       *x509chain.Verifier
}

// Option configures a SignedDataVerifier beyond its required parameters.
type Option func(*options)

type options struct {
	chainOpts []x509chain.Option
}

// WithClock overrides the time source used to resolve the effective
// verification date. Intended for tests with pinned certificates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.chainOpts = append(o.chainOpts, x509chain.WithClock(now))
	}
}

// WithCacheConfig tunes the chain verification cache.
func WithCacheConfig(config *x509chain.CacheConfig) Option {
	return func(o *options) {
		o.chainOpts = append(o.chainOpts, x509chain.WithCacheConfig(config))
	}
}

// WithoutRevocationCheck disables the embedded revocation attestation check
// on verified chains.
func WithoutRevocationCheck() Option {
	return func(o *options) {
		o.chainOpts = append(o.chainOpts, x509chain.WithoutRevocationCheck())
	}
}

// NewSignedDataVerifier builds a verifier for one app's signed payloads.
//
// Parameters:
//
//   - rootCertificates: DER-encoded roots to pin chain verification to.
//     Required for Sandbox and Production; optional for Xcode and
//     LocalTesting, which never verify signatures.
//   - environment: the environment payloads are expected to come from.
//   - bundleID: the app's bundle identifier.
//   - appAppleID: the app's Apple ID. Only compared for Production
//     notifications; pass 0 outside Production.
//
// Returns the verifier, or an error when a root certificate cannot be
// decoded or the root set is empty for an environment that verifies.
func NewSignedDataVerifier(rootCertificates [][]byte, environment appstore.Environment, bundleID string, appAppleID int64, opts ...Option) (*SignedDataVerifier, error) {
	v := &SignedDataVerifier{
		environment: environment,
		bundleID:    bundleID,
		appAppleID:  appAppleID,
	}

	if len(rootCertificates) == 0 && !v.decodeOnly() {
		return nil, x509chain.ErrEmptyRootStore
	}

	if len(rootCertificates) > 0 {
		roots, err := x509chain.NewRootStore(rootCertificates)
		if err != nil {
			return nil, err
		}

		var o options
		for _, opt := range opts {
			opt(&o)
		}
		v.chain = x509chain.NewVerifier(roots, o.chainOpts...)
	}

	return v, nil
}

// decodeOnly reports whether the configured environment carries payloads
// the store never signed, in which case signature checks are skipped.
func (v *SignedDataVerifier) decodeOnly() bool {
	return v.environment == appstore.EnvironmentXcode || v.environment == appstore.EnvironmentLocalTesting
}

// VerifyAndDecodeTransaction verifies a signedTransactionInfo JWS and
// decodes its claims.
//
// Returns ErrInvalidAppIdentifier when the transaction's bundle identifier
// differs from the verifier's, and ErrInvalidEnvironment when its
// environment differs.
func (v *SignedDataVerifier) VerifyAndDecodeTransaction(signedTransaction string) (*appstore.JWSTransactionDecodedPayload, error) {
	var txn appstore.JWSTransactionDecodedPayload
	if err := v.decodeSignedObject(signedTransaction, &txn); err != nil {
		return nil, err
	}

	if txn.BundleID != v.bundleID {
		return nil, fmt.Errorf("%w: transaction is for %q", ErrInvalidAppIdentifier, txn.BundleID)
	}
	if txn.Environment != v.environment {
		return nil, fmt.Errorf("%w: transaction is from %q", ErrInvalidEnvironment, txn.Environment)
	}

	return &txn, nil
}

// VerifyAndDecodeRenewalInfo verifies a signedRenewalInfo JWS and decodes
// its claims. Renewal info carries no bundle identifier, so only the
// signature is checked.
func (v *SignedDataVerifier) VerifyAndDecodeRenewalInfo(signedRenewalInfo string) (*appstore.JWSRenewalInfoDecodedPayload, error) {
	var info appstore.JWSRenewalInfoDecodedPayload
	if err := v.decodeSignedObject(signedRenewalInfo, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// VerifyAndDecodeNotification verifies an App Store Server Notification and
// decodes its payload.
//
// The app identity checked depends on which branch the notification
// carries: data, summary, or external purchase token. Token notifications
// derive their environment from the externalPurchaseId prefix, since the
// token itself names none. The appAppleId is compared only when the
// verifier is configured for Production, and an environment mismatch is
// tolerated only by a LocalTesting verifier.
func (v *SignedDataVerifier) VerifyAndDecodeNotification(signedPayload string) (*appstore.ResponseBodyV2DecodedPayload, error) {
	var payload appstore.ResponseBodyV2DecodedPayload
	if err := v.decodeSignedObject(signedPayload, &payload); err != nil {
		return nil, err
	}

	var (
		bundleID    string
		appAppleID  int64
		environment appstore.Environment
	)

	switch {
	case payload.Data != nil:
		bundleID = payload.Data.BundleID
		appAppleID = payload.Data.AppAppleID
		environment = payload.Data.Environment
	case payload.Summary != nil:
		bundleID = payload.Summary.BundleID
		appAppleID = payload.Summary.AppAppleID
		environment = payload.Summary.Environment
	case payload.ExternalPurchaseToken != nil:
		bundleID = payload.ExternalPurchaseToken.BundleID
		appAppleID = payload.ExternalPurchaseToken.AppAppleID
		if strings.HasPrefix(payload.ExternalPurchaseToken.ExternalPurchaseID, "SANDBOX") {
			environment = appstore.EnvironmentSandbox
		} else {
			environment = appstore.EnvironmentProduction
		}
	}

	if err := v.checkAppIdentity(bundleID, appAppleID, environment); err != nil {
		return nil, err
	}

	return &payload, nil
}

// VerifyAndDecodeAppTransaction verifies a signed app transaction and
// decodes its claims. The receiptType takes the place of an environment
// field and is checked against the verifier's environment.
func (v *SignedDataVerifier) VerifyAndDecodeAppTransaction(signedAppTransaction string) (*appstore.AppTransaction, error) {
	var appTxn appstore.AppTransaction
	if err := v.decodeSignedObject(signedAppTransaction, &appTxn); err != nil {
		return nil, err
	}

	if appTxn.BundleID != v.bundleID {
		return nil, fmt.Errorf("%w: app transaction is for %q", ErrInvalidAppIdentifier, appTxn.BundleID)
	}
	if appTxn.ReceiptType != v.environment {
		return nil, fmt.Errorf("%w: receipt type is %q", ErrInvalidEnvironment, appTxn.ReceiptType)
	}

	return &appTxn, nil
}

// checkAppIdentity compares a notification's app identity against the
// verifier's. Empty fields mean the notification named none and pass, with
// one exception: a Production verifier requires the appAppleId to match
// exactly, absent included.
func (v *SignedDataVerifier) checkAppIdentity(bundleID string, appAppleID int64, environment appstore.Environment) error {
	if bundleID != "" && bundleID != v.bundleID {
		return fmt.Errorf("%w: notification is for %q", ErrInvalidAppIdentifier, bundleID)
	}

	if v.environment == appstore.EnvironmentProduction && v.appAppleID != appAppleID {
		return fmt.Errorf("%w: notification is for app %d", ErrInvalidAppIdentifier, appAppleID)
	}

	if environment != "" && v.environment != appstore.EnvironmentLocalTesting && v.environment != environment {
		return fmt.Errorf("%w: notification is from %q", ErrInvalidEnvironment, environment)
	}

	return nil
}

// decodeSignedObject runs the shared pipeline: verify the JWS (unless the
// environment is decode-only) and unmarshal its claims body into out.
func (v *SignedDataVerifier) decodeSignedObject(signed string, out any) error {
	if v.decodeOnly() {
		return decodeUnverified(signed, out)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	// The parser buries keyfunc errors under its own wrapping, so capture
	// them directly to keep the chain and x5c sentinels intact.
	var keyErr error
	keyfunc := func(token *jwt.Token) (any, error) {
		key, err := v.trustedKey(token)
		if err != nil {
			keyErr = err
		}
		return key, err
	}

	if _, err := parser.Parse(signed, keyfunc); err != nil {
		if keyErr != nil {
			return keyErr
		}
		return fmt.Errorf("%w: %v", ErrVerificationFailure, err)
	}

	return decodeClaims(signed, out)
}

// trustedKey pulls the x5c chain out of the JWS header and resolves the
// signing key by verifying the chain against the pinned roots. The
// effective date is the verifier's current time.
func (v *SignedDataVerifier) trustedKey(token *jwt.Token) (any, error) {
	raw, ok := token.Header["x5c"]
	if !ok {
		return nil, fmt.Errorf("%w: missing x5c header", ErrVerificationFailure)
	}

	entries, ok := raw.([]any)
	if !ok || len(entries) == 0 {
		return nil, fmt.Errorf("%w: malformed x5c header", ErrVerificationFailure)
	}
	if len(entries) != expectedChainLength {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChainLength, len(entries))
	}

	chain := make([][]byte, 0, expectedChainLength)
	for _, entry := range entries {
		encoded, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("%w: malformed x5c entry", ErrVerificationFailure)
		}
		der, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: x5c entry is not base64: %v", ErrVerificationFailure, err)
		}
		chain = append(chain, der)
	}

	key, err := v.chain.Verify(chain[0], chain[1])
	if err != nil {
		return nil, err
	}

	return key.Key, nil
}

// CacheMetrics returns a snapshot of the chain verification cache counters.
// The zero value is returned for decode-only verifiers without a chain.
func (v *SignedDataVerifier) CacheMetrics() x509chain.CacheMetrics {
	if v.chain == nil {
		return x509chain.CacheMetrics{}
	}
	return v.chain.CacheMetrics()
}

// CacheConfig returns the chain verification cache configuration, or nil
// for decode-only verifiers without a chain.
func (v *SignedDataVerifier) CacheConfig() *x509chain.CacheConfig {
	if v.chain == nil {
		return nil
	}
	return v.chain.CacheConfig()
}

// CacheStats returns the chain verification cache report, formatted for
// humans.
func (v *SignedDataVerifier) CacheStats() string {
	if v.chain == nil {
		return "Verification cache disabled (decode-only environment)"
	}
	return v.chain.CacheStats()
}

// StartCacheCleanup launches the chain cache's periodic sweep. It stops
// when ctx is canceled. A no-op for decode-only verifiers.
func (v *SignedDataVerifier) StartCacheCleanup(ctx context.Context) {
	if v.chain == nil {
		return
	}
	v.chain.StartCacheCleanup(ctx)
}

// decodeUnverified handles the Xcode and LocalTesting environments: the
// payload still has to be a structurally valid JWS with a parsable header,
// but no signature exists to check.
func decodeUnverified(signed string, out any) error {
	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		return fmt.Errorf("%w: expected 3 JWS segments, got %d", ErrVerificationFailure, len(parts))
	}

	header, err := decodeSegment(parts[0])
	if err != nil {
		return fmt.Errorf("%w: header: %v", ErrVerificationFailure, err)
	}
	var headerFields map[string]any
	if err := json.Unmarshal(header, &headerFields); err != nil {
		return fmt.Errorf("%w: header: %v", ErrVerificationFailure, err)
	}

	return decodeClaims(signed, out)
}

// decodeClaims unmarshals the claims segment of a JWS into out. The caller
// has already established the segment count.
func decodeClaims(signed string, out any) error {
	parts := strings.Split(signed, ".")
	body, err := decodeSegment(parts[1])
	if err != nil {
		return fmt.Errorf("%w: claims: %v", ErrVerificationFailure, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: claims: %v", ErrVerificationFailure, err)
	}
	return nil
}

// decodeSegment decodes one base64url JWS segment, tolerating both padded
// and unpadded forms.
func decodeSegment(segment string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(segment, "="))
}
