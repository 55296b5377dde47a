// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package signer

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Audiences of the JWS signature forms. Each creator is bound to one.
const (
	audiencePromotionalOffer             = "promotional-offer"
	audienceIntroductoryOfferEligibility = "introductory-offer-eligibility"
	audienceAdvancedCommerce             = "advanced-commerce-api"
)

// jwsSignatureCreator is the shared base of the JWS creators: one signing
// key, one audience, and the common claim set.
type jwsSignatureCreator struct {
	audience string
	key      *ecdsa.PrivateKey
	keyID    string
	issuerID string
	bundleID string
}

func newJWSSignatureCreator(audience string, signingKey []byte, keyID, issuerID, bundleID string) (jwsSignatureCreator, error) {
	key, err := parseSigningKey(signingKey)
	if err != nil {
		return jwsSignatureCreator{}, err
	}

	return jwsSignatureCreator{
		audience: audience,
		key:      key,
		keyID:    keyID,
		issuerID: issuerID,
		bundleID: bundleID,
	}, nil
}

// baseClaims returns the claims every signature form shares: a fresh
// nonce, the issuer, bundle, audience, and issue time.
func (c *jwsSignatureCreator) baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"nonce": uuid.New().String(),
		"iss":   c.issuerID,
		"bid":   c.bundleID,
		"aud":   c.audience,
		"iat":   time.Now().Unix(),
	}
}

// createSignature signs the claims as an ES256 JWS with the kid header.
func (c *jwsSignatureCreator) createSignature(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = c.keyID

	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("signer: failed to sign request: %w", err)
	}
	return signed, nil
}

// PromotionalOfferV2SignatureCreator creates promotional offer v2
// signatures for StoreKit 2 purchase calls.
//
// Thread Safety: safe for concurrent use.
type PromotionalOfferV2SignatureCreator struct {
	base jwsSignatureCreator
}

// NewPromotionalOfferV2SignatureCreator builds a creator from an App
// Store Connect subscription key.
func NewPromotionalOfferV2SignatureCreator(signingKey []byte, keyID, issuerID, bundleID string) (*PromotionalOfferV2SignatureCreator, error) {
	base, err := newJWSSignatureCreator(audiencePromotionalOffer, signingKey, keyID, issuerID, bundleID)
	if err != nil {
		return nil, err
	}
	return &PromotionalOfferV2SignatureCreator{base: base}, nil
}

// CreateSignature signs a promotional offer v2.
//
// Parameters:
//   - productID: the product identifier of the subscription.
//   - offerIdentifier: the promotional offer identifier from App Store
//     Connect.
//   - transactionID: any transaction identifier belonging to the
//     customer, the appTransactionId included. Optional but recommended;
//     empty omits the claim.
func (c *PromotionalOfferV2SignatureCreator) CreateSignature(productID, offerIdentifier, transactionID string) (string, error) {
	claims := c.base.baseClaims()
	claims["productId"] = productID
	claims["offerIdentifier"] = offerIdentifier
	if transactionID != "" {
		claims["transactionId"] = transactionID
	}

	return c.base.createSignature(claims)
}

// IntroductoryOfferEligibilitySignatureCreator creates signatures that
// declare whether a customer is eligible for an introductory offer.
//
// Thread Safety: safe for concurrent use.
type IntroductoryOfferEligibilitySignatureCreator struct {
	base jwsSignatureCreator
}

// NewIntroductoryOfferEligibilitySignatureCreator builds a creator from
// an App Store Connect subscription key.
func NewIntroductoryOfferEligibilitySignatureCreator(signingKey []byte, keyID, issuerID, bundleID string) (*IntroductoryOfferEligibilitySignatureCreator, error) {
	base, err := newJWSSignatureCreator(audienceIntroductoryOfferEligibility, signingKey, keyID, issuerID, bundleID)
	if err != nil {
		return nil, err
	}
	return &IntroductoryOfferEligibilitySignatureCreator{base: base}, nil
}

// CreateSignature signs an introductory offer eligibility statement.
//
// Parameters:
//   - productID: the product identifier of the subscription.
//   - allowIntroductoryOffer: whether the customer is eligible.
//   - transactionID: any transaction identifier belonging to the
//     customer, the appTransactionId included. Required.
func (c *IntroductoryOfferEligibilitySignatureCreator) CreateSignature(productID string, allowIntroductoryOffer bool, transactionID string) (string, error) {
	claims := c.base.baseClaims()
	claims["productId"] = productID
	claims["allowIntroductoryOffer"] = allowIntroductoryOffer
	claims["transactionId"] = transactionID

	return c.base.createSignature(claims)
}

// AdvancedCommerceInAppSignatureCreator signs Advanced Commerce in-app
// requests.
//
// Thread Safety: safe for concurrent use.
type AdvancedCommerceInAppSignatureCreator struct {
	base jwsSignatureCreator
}

// NewAdvancedCommerceInAppSignatureCreator builds a creator from an App
// Store Connect subscription key.
func NewAdvancedCommerceInAppSignatureCreator(signingKey []byte, keyID, issuerID, bundleID string) (*AdvancedCommerceInAppSignatureCreator, error) {
	base, err := newJWSSignatureCreator(audienceAdvancedCommerce, signingKey, keyID, issuerID, bundleID)
	if err != nil {
		return nil, err
	}
	return &AdvancedCommerceInAppSignatureCreator{base: base}, nil
}

// CreateSignature signs an Advanced Commerce request. The request is any
// JSON-marshalable Advanced Commerce in-app request body; it travels in
// the request claim as standard base64 of its JSON encoding.
func (c *AdvancedCommerceInAppSignatureCreator) CreateSignature(request any) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("signer: failed to encode request: %w", err)
	}

	claims := c.base.baseClaims()
	claims["request"] = base64.StdEncoding.EncodeToString(body)

	return c.base.createSignature(claims)
}
