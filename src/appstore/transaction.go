// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package appstore

import "github.com/google/uuid"

// ProductType is the in-app purchase product type of a transaction. Unlike
// most store enumerations these are display strings, not SCREAMING_SNAKE
// identifiers.
type ProductType string

const (
	ProductTypeAutoRenewableSubscription ProductType = "Auto-Renewable Subscription"
	ProductTypeNonConsumable             ProductType = "Non-Consumable"
	ProductTypeConsumable                ProductType = "Consumable"
	ProductTypeNonRenewingSubscription   ProductType = "Non-Renewing Subscription"
)

// InAppOwnershipType describes whether the transaction belongs to the
// purchaser or reached them through Family Sharing.
type InAppOwnershipType string

const (
	InAppOwnershipTypeFamilyShared InAppOwnershipType = "FAMILY_SHARED"
	InAppOwnershipTypePurchased    InAppOwnershipType = "PURCHASED"
)

// TransactionReason is the cause of a transaction: a customer purchase, or a
// server-initiated subscription renewal.
type TransactionReason string

const (
	TransactionReasonPurchase TransactionReason = "PURCHASE"
	TransactionReasonRenewal  TransactionReason = "RENEWAL"
)

// OfferType is the category of subscription offer applied to a transaction.
type OfferType int32

const (
	OfferTypeIntroductoryOffer     OfferType = 1
	OfferTypePromotionalOffer      OfferType = 2
	OfferTypeSubscriptionOfferCode OfferType = 3
)

// OfferDiscountType is the payment mode of a subscription offer.
type OfferDiscountType string

const (
	OfferDiscountTypeFreeTrial  OfferDiscountType = "FREE_TRIAL"
	OfferDiscountTypePayAsYouGo OfferDiscountType = "PAY_AS_YOU_GO"
	OfferDiscountTypePayUpFront OfferDiscountType = "PAY_UP_FRONT"
	OfferDiscountTypeOneTime    OfferDiscountType = "ONE_TIME"
)

// RevocationReason is why the store refunded a transaction or revoked it
// from Family Sharing.
type RevocationReason int32

const (
	RevocationReasonRefundedForOtherReason RevocationReason = 0
	RevocationReasonRefundedDueToIssue     RevocationReason = 1
)

// RevocationType describes the form a revocation took.
type RevocationType string

const (
	RevocationTypeRefundFull     RevocationType = "REFUND_FULL"
	RevocationTypeRefundProrated RevocationType = "REFUND_PRORATED"
	RevocationTypeFamilyRevoke   RevocationType = "FAMILY_REVOKE"
)

// JWSTransactionDecodedPayload is the claims set of a signed transaction,
// produced by verifying and decoding a signedTransactionInfo JWS.
//
// Monetary amounts (Price) are in milliunits of the currency. Timestamp
// fields are millisecond UNIX epochs.
//
// [JWSTransactionDecodedPayload]: https://developer.apple.com/documentation/appstoreserverapi/jwstransactiondecodedpayload
type JWSTransactionDecodedPayload struct {
	OriginalTransactionID         string                           `json:"originalTransactionId,omitempty"`
	PreviousOriginalTransactionID string                           `json:"previousOriginalTransactionId,omitempty"`
	TransactionID                 string                           `json:"transactionId,omitempty"`
	WebOrderLineItemID            string                           `json:"webOrderLineItemId,omitempty"`
	BundleID                      string                           `json:"bundleId,omitempty"`
	ProductID                     string                           `json:"productId,omitempty"`
	SubscriptionGroupIdentifier   string                           `json:"subscriptionGroupIdentifier,omitempty"`
	PurchaseDate                  int64                            `json:"purchaseDate,omitempty"`
	OriginalPurchaseDate          int64                            `json:"originalPurchaseDate,omitempty"`
	ExpiresDate                   int64                            `json:"expiresDate,omitempty"`
	Quantity                      int32                            `json:"quantity,omitempty"`
	Type                          ProductType                      `json:"type,omitempty"`
	AppAccountToken               *uuid.UUID                       `json:"appAccountToken,omitempty"`
	InAppOwnershipType            InAppOwnershipType               `json:"inAppOwnershipType,omitempty"`
	SignedDate                    int64                            `json:"signedDate,omitempty"`
	RevocationReason              *RevocationReason                `json:"revocationReason,omitempty"`
	RevocationDate                int64                            `json:"revocationDate,omitempty"`
	RevocationType                RevocationType                   `json:"revocationType,omitempty"`
	RevocationPercentage          int32                            `json:"revocationPercentage,omitempty"`
	IsUpgraded                    bool                             `json:"isUpgraded,omitempty"`
	OfferType                     OfferType                        `json:"offerType,omitempty"`
	OfferIdentifier               string                           `json:"offerIdentifier,omitempty"`
	Environment                   Environment                      `json:"environment,omitempty"`
	Storefront                    string                           `json:"storefront,omitempty"`
	StorefrontID                  string                           `json:"storefrontId,omitempty"`
	TransactionReason             TransactionReason                `json:"transactionReason,omitempty"`
	Currency                      string                           `json:"currency,omitempty"`
	Price                         *int64                           `json:"price,omitempty"`
	OfferDiscountType             OfferDiscountType                `json:"offerDiscountType,omitempty"`
	AppTransactionID              string                           `json:"appTransactionId,omitempty"`
	OfferPeriod                   string                           `json:"offerPeriod,omitempty"`
	AdvancedCommerceInfo          *AdvancedCommerceTransactionInfo `json:"advancedCommerceInfo,omitempty"`
}
