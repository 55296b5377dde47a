// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package signer

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// payloadSeparator joins the promotional offer payload fields. StoreKit
// expects U+2063 INVISIBLE SEPARATOR, not a printable delimiter.
const payloadSeparator = "⁣"

// PromotionalOfferSignatureCreator creates the classic promotional offer
// signature an app passes to StoreKit 1 purchase calls.
//
// Thread Safety: safe for concurrent use.
type PromotionalOfferSignatureCreator struct {
	key      *ecdsa.PrivateKey
	keyID    string
	bundleID string
}

// NewPromotionalOfferSignatureCreator builds a creator from an App Store
// Connect subscription key.
//
// Parameters:
//   - signingKey: the PEM-encoded private key (.p8) downloaded from App
//     Store Connect.
//   - keyID: the identifier of that key.
//   - bundleID: the app's bundle identifier.
func NewPromotionalOfferSignatureCreator(signingKey []byte, keyID, bundleID string) (*PromotionalOfferSignatureCreator, error) {
	key, err := parseSigningKey(signingKey)
	if err != nil {
		return nil, err
	}

	return &PromotionalOfferSignatureCreator{
		key:      key,
		keyID:    keyID,
		bundleID: bundleID,
	}, nil
}

// CreateSignature signs a promotional offer for one purchase.
//
// Parameters:
//   - productID: the product identifier of the subscription.
//   - offerID: the promotional offer identifier set up in App Store
//     Connect.
//   - applicationUsername: an opaque per-customer value; lowercased into
//     the payload, matching what the app passes to StoreKit.
//   - nonce: a single-use UUID.
//   - timestamp: millisecond UNIX epoch of signature creation.
//
// Returns the standard-base64 ECDSA signature.
func (c *PromotionalOfferSignatureCreator) CreateSignature(productID, offerID, applicationUsername string, nonce uuid.UUID, timestamp int64) (string, error) {
	payload := c.payload(productID, offerID, applicationUsername, nonce, timestamp)

	digest := sha256.Sum256([]byte(payload))
	signature, err := ecdsa.SignASN1(rand.Reader, c.key, digest[:])
	if err != nil {
		return "", fmt.Errorf("signer: failed to sign promotional offer payload: %w", err)
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}

// payload assembles the separator-joined string the store verifies. Field
// order is fixed: bundle, key, product, offer, username, nonce, timestamp.
func (c *PromotionalOfferSignatureCreator) payload(productID, offerID, applicationUsername string, nonce uuid.UUID, timestamp int64) string {
	return strings.Join([]string{
		c.bundleID,
		c.keyID,
		productID,
		offerID,
		strings.ToLower(applicationUsername),
		strings.ToLower(nonce.String()),
		strconv.FormatInt(timestamp, 10),
	}, payloadSeparator)
}
