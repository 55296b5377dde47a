// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package appstore

import "github.com/google/uuid"

// AutoRenewStatus is the renewal state of an auto-renewable subscription.
type AutoRenewStatus int32

const (
	AutoRenewStatusOff AutoRenewStatus = 0
	AutoRenewStatusOn  AutoRenewStatus = 1
)

// ExpirationIntent is why a subscription expired.
type ExpirationIntent int32

const (
	ExpirationIntentCustomerCancelled                    ExpirationIntent = 1
	ExpirationIntentBillingError                         ExpirationIntent = 2
	ExpirationIntentCustomerDidNotConsentToPriceIncrease ExpirationIntent = 3
	ExpirationIntentProductNotAvailable                  ExpirationIntent = 4
	ExpirationIntentOther                                ExpirationIntent = 5
)

// PriceIncreaseStatus is the customer's response to a subscription price
// increase that requires consent.
type PriceIncreaseStatus int32

const (
	PriceIncreaseStatusCustomerHasNotResponded                             PriceIncreaseStatus = 0
	PriceIncreaseStatusCustomerConsentedOrWasNotifiedWithoutNeedingConsent PriceIncreaseStatus = 1
)

// JWSRenewalInfoDecodedPayload is the claims set of signed renewal
// information, produced by verifying and decoding a signedRenewalInfo JWS.
// It describes the upcoming renewal of an auto-renewable subscription.
//
// RenewalPrice is in milliunits of the currency. Timestamp fields are
// millisecond UNIX epochs.
//
// [JWSRenewalInfoDecodedPayload]: https://developer.apple.com/documentation/appstoreserverapi/jwsrenewalinfodecodedpayload
type JWSRenewalInfoDecodedPayload struct {
	ExpirationIntent                  ExpirationIntent                   `json:"expirationIntent,omitempty"`
	OriginalTransactionID             string                             `json:"originalTransactionId,omitempty"`
	AutoRenewProductID                string                             `json:"autoRenewProductId,omitempty"`
	ProductID                         string                             `json:"productId,omitempty"`
	AutoRenewStatus                   *AutoRenewStatus                   `json:"autoRenewStatus,omitempty"`
	IsInBillingRetryPeriod            bool                               `json:"isInBillingRetryPeriod,omitempty"`
	PriceIncreaseStatus               *PriceIncreaseStatus               `json:"priceIncreaseStatus,omitempty"`
	GracePeriodExpiresDate            int64                              `json:"gracePeriodExpiresDate,omitempty"`
	OfferType                         OfferType                          `json:"offerType,omitempty"`
	OfferIdentifier                   string                             `json:"offerIdentifier,omitempty"`
	SignedDate                        int64                              `json:"signedDate,omitempty"`
	Environment                       Environment                        `json:"environment,omitempty"`
	RecentSubscriptionStartDate       int64                              `json:"recentSubscriptionStartDate,omitempty"`
	RenewalDate                       int64                              `json:"renewalDate,omitempty"`
	Currency                          string                             `json:"currency,omitempty"`
	RenewalPrice                      *int64                             `json:"renewalPrice,omitempty"`
	OfferDiscountType                 OfferDiscountType                  `json:"offerDiscountType,omitempty"`
	EligibleWinBackOfferIDs           []string                           `json:"eligibleWinBackOfferIds,omitempty"`
	AppAccountToken                   *uuid.UUID                         `json:"appAccountToken,omitempty"`
	AppTransactionID                  string                             `json:"appTransactionId,omitempty"`
	OfferPeriod                       string                             `json:"offerPeriod,omitempty"`
	AdvancedCommerceInfo              *AdvancedCommerceRenewalInfo       `json:"advancedCommerceInfo,omitempty"`
	AdvancedCommercePriceIncreaseInfo *AdvancedCommercePriceIncreaseInfo `json:"advancedCommercePriceIncreaseInfo,omitempty"`
}
