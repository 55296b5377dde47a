// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package appstore

// NotificationTypeV2 is the event that triggered an App Store Server
// Notification.
type NotificationTypeV2 string

const (
	NotificationTypeV2Subscribed             NotificationTypeV2 = "SUBSCRIBED"
	NotificationTypeV2DidChangeRenewalPref   NotificationTypeV2 = "DID_CHANGE_RENEWAL_PREF"
	NotificationTypeV2DidChangeRenewalStatus NotificationTypeV2 = "DID_CHANGE_RENEWAL_STATUS"
	NotificationTypeV2OfferRedeemed          NotificationTypeV2 = "OFFER_REDEEMED"
	NotificationTypeV2DidRenew               NotificationTypeV2 = "DID_RENEW"
	NotificationTypeV2Expired                NotificationTypeV2 = "EXPIRED"
	NotificationTypeV2DidFailToRenew         NotificationTypeV2 = "DID_FAIL_TO_RENEW"
	NotificationTypeV2GracePeriodExpired     NotificationTypeV2 = "GRACE_PERIOD_EXPIRED"
	NotificationTypeV2PriceIncrease          NotificationTypeV2 = "PRICE_INCREASE"
	NotificationTypeV2Refund                 NotificationTypeV2 = "REFUND"
	NotificationTypeV2RefundDeclined         NotificationTypeV2 = "REFUND_DECLINED"
	NotificationTypeV2ConsumptionRequest     NotificationTypeV2 = "CONSUMPTION_REQUEST"
	NotificationTypeV2RenewalExtended        NotificationTypeV2 = "RENEWAL_EXTENDED"
	NotificationTypeV2Revoke                 NotificationTypeV2 = "REVOKE"
	NotificationTypeV2Test                   NotificationTypeV2 = "TEST"
	NotificationTypeV2RenewalExtension       NotificationTypeV2 = "RENEWAL_EXTENSION"
	NotificationTypeV2RefundReversed         NotificationTypeV2 = "REFUND_REVERSED"
)

// Subtype qualifies a notification type with the specific condition that
// raised it.
type Subtype string

const (
	SubtypeInitialBuy        Subtype = "INITIAL_BUY"
	SubtypeResubscribe       Subtype = "RESUBSCRIBE"
	SubtypeDowngrade         Subtype = "DOWNGRADE"
	SubtypeUpgrade           Subtype = "UPGRADE"
	SubtypeAutoRenewEnabled  Subtype = "AUTO_RENEW_ENABLED"
	SubtypeAutoRenewDisabled Subtype = "AUTO_RENEW_DISABLED"
	SubtypeVoluntary         Subtype = "VOLUNTARY"
	SubtypeBillingRetry      Subtype = "BILLING_RETRY"
	SubtypePriceIncrease     Subtype = "PRICE_INCREASE"
	SubtypeGracePeriod       Subtype = "GRACE_PERIOD"
	SubtypePending           Subtype = "PENDING"
	SubtypeAccepted          Subtype = "ACCEPTED"
	SubtypeBillingRecovery   Subtype = "BILLING_RECOVERY"
	SubtypeProductNotForSale Subtype = "PRODUCT_NOT_FOR_SALE"
	SubtypeSummary           Subtype = "SUMMARY"
	SubtypeFailure           Subtype = "FAILURE"
)

// Status is the state of an auto-renewable subscription as of the payload's
// signedDate.
type Status int32

const (
	StatusActive             Status = 1
	StatusExpired            Status = 2
	StatusBillingRetry       Status = 3
	StatusBillingGracePeriod Status = 4
	StatusRevoked            Status = 5
)

// TokenType is the kind of external purchase token: one reported when the
// app was acquired, or one reported for ongoing services.
type TokenType string

const (
	TokenTypeAcquisition TokenType = "ACQUISITION"
	TokenTypeServices    TokenType = "SERVICES"
)

// Data is the transaction-level payload of a notification. The signed
// fields are themselves JWS strings and need their own verification pass.
type Data struct {
	Environment           Environment `json:"environment,omitempty"`
	AppAppleID            int64       `json:"appAppleId,omitempty"`
	BundleID              string      `json:"bundleId,omitempty"`
	BundleVersion         string      `json:"bundleVersion,omitempty"`
	SignedTransactionInfo string      `json:"signedTransactionInfo,omitempty"`
	SignedRenewalInfo     string      `json:"signedRenewalInfo,omitempty"`
	Status                Status      `json:"status,omitempty"`
}

// Summary reports the outcome of a renewal-date extension requested for all
// active subscribers of a product.
type Summary struct {
	Environment            Environment `json:"environment,omitempty"`
	AppAppleID             int64       `json:"appAppleId,omitempty"`
	BundleID               string      `json:"bundleId,omitempty"`
	ProductID              string      `json:"productId,omitempty"`
	RequestIdentifier      string      `json:"requestIdentifier,omitempty"`
	StorefrontCountryCodes []string    `json:"storefrontCountryCodes,omitempty"`
	SucceededCount         int64       `json:"succeededCount,omitempty"`
	FailedCount            int64       `json:"failedCount,omitempty"`
}

// ExternalPurchaseToken identifies a purchase made through an external
// purchase link rather than the store itself.
type ExternalPurchaseToken struct {
	ExternalPurchaseID  string    `json:"externalPurchaseId,omitempty"`
	TokenCreationDate   int64     `json:"tokenCreationDate,omitempty"`
	AppAppleID          int64     `json:"appAppleId,omitempty"`
	BundleID            string    `json:"bundleId,omitempty"`
	TokenExpirationDate int64     `json:"tokenExpirationDate,omitempty"`
	TokenType           TokenType `json:"tokenType,omitempty"`
}

// ResponseBodyV2DecodedPayload is a decoded App Store Server Notification
// (version 2). Exactly one of Data, Summary, or ExternalPurchaseToken is
// set, depending on the notification type.
//
// [responseBodyV2DecodedPayload]: https://developer.apple.com/documentation/appstoreservernotifications/responsebodyv2decodedpayload
type ResponseBodyV2DecodedPayload struct {
	NotificationType      NotificationTypeV2     `json:"notificationType,omitempty"`
	Subtype               Subtype                `json:"subtype,omitempty"`
	NotificationUUID      string                 `json:"notificationUUID,omitempty"`
	Data                  *Data                  `json:"data,omitempty"`
	Version               string                 `json:"version,omitempty"`
	SignedDate            int64                  `json:"signedDate,omitempty"`
	Summary               *Summary               `json:"summary,omitempty"`
	ExternalPurchaseToken *ExternalPurchaseToken `json:"externalPurchaseToken,omitempty"`
}
