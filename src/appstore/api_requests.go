// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package appstore

import "github.com/google/uuid"

// Order is the sort direction for transaction history queries.
type Order string

const (
	OrderAscending  Order = "ASCENDING"
	OrderDescending Order = "DESCENDING"
)

// HistoryProductType filters transaction history queries by product
// category. These are the query-parameter identifiers, distinct from the
// display strings a decoded transaction carries in its type field.
type HistoryProductType string

const (
	HistoryProductTypeAutoRenewable HistoryProductType = "AUTO_RENEWABLE"
	HistoryProductTypeNonRenewable  HistoryProductType = "NON_RENEWABLE"
	HistoryProductTypeConsumable    HistoryProductType = "CONSUMABLE"
	HistoryProductTypeNonConsumable HistoryProductType = "NON_CONSUMABLE"
)

// TransactionHistoryRequest narrows a Get Transaction History query. Zero
// fields are omitted from the query string. StartDate and EndDate are
// millisecond UNIX epochs; Revoked is tri-state, nil meaning both revoked
// and unrevoked transactions.
type TransactionHistoryRequest struct {
	StartDate                    int64                `json:"startDate,omitempty"`
	EndDate                      int64                `json:"endDate,omitempty"`
	ProductIDs                   []string             `json:"productIds,omitempty"`
	ProductTypes                 []HistoryProductType `json:"productTypes,omitempty"`
	Sort                         Order                `json:"sort,omitempty"`
	SubscriptionGroupIdentifiers []string             `json:"subscriptionGroupIdentifiers,omitempty"`
	InAppOwnershipType           InAppOwnershipType   `json:"inAppOwnershipType,omitempty"`
	Revoked                      *bool                `json:"revoked,omitempty"`
}

// NotificationHistoryRequest is the body of a Get Notification History
// call. TransactionID and the NotificationType/NotificationSubtype pair are
// mutually exclusive filters; the server rejects requests carrying both.
type NotificationHistoryRequest struct {
	StartDate           int64              `json:"startDate,omitempty"`
	EndDate             int64              `json:"endDate,omitempty"`
	NotificationType    NotificationTypeV2 `json:"notificationType,omitempty"`
	NotificationSubtype Subtype            `json:"notificationSubtype,omitempty"`
	TransactionID       string             `json:"transactionId,omitempty"`
	OnlyFailures        *bool              `json:"onlyFailures,omitempty"`
}

// DeliveryStatus reports whether the app delivered a working In-App
// Purchase to the customer.
type DeliveryStatus string

const (
	DeliveryStatusDelivered               DeliveryStatus = "DELIVERED"
	DeliveryStatusUndeliveredQualityIssue DeliveryStatus = "UNDELIVERED_QUALITY_ISSUE"
	DeliveryStatusUndeliveredWrongItem    DeliveryStatus = "UNDELIVERED_WRONG_ITEM"
	DeliveryStatusUndeliveredServerOutage DeliveryStatus = "UNDELIVERED_SERVER_OUTAGE"
	DeliveryStatusUndeliveredOther        DeliveryStatus = "UNDELIVERED_OTHER"
)

// RefundPreference is the developer's preferred outcome for a refund
// request.
type RefundPreference string

const (
	RefundPreferenceMigration     RefundPreference = "MIGRATION"
	RefundPreferenceGrantFull     RefundPreference = "GRANT_FULL"
	RefundPreferenceGrantProrated RefundPreference = "GRANT_PRORATED"
)

// ConsumptionRequest is the body sent in response to a CONSUMPTION_REQUEST
// notification, telling the store how much of a consumable purchase the
// customer used before asking for a refund.
//
// ConsumptionPercentage is in milliunits of a percent (100000 = 100%).
// CustomerConsented must point at true for the store to accept the data;
// the field stays a pointer so an unset value is omitted rather than sent
// as false.
type ConsumptionRequest struct {
	CustomerConsented     *bool            `json:"customerConsented,omitempty"`
	ConsumptionPercentage int32            `json:"consumptionPercentage,omitempty"`
	DeliveryStatus        DeliveryStatus   `json:"deliveryStatus,omitempty"`
	RefundPreference      RefundPreference `json:"refundPreference,omitempty"`
	SampleContentProvided bool             `json:"sampleContentProvided"`
}

// ExtendReasonCode is why a subscription renewal date is being extended.
type ExtendReasonCode int32

const (
	ExtendReasonCodeUndeclared           ExtendReasonCode = 0
	ExtendReasonCodeCustomerSatisfaction ExtendReasonCode = 1
	ExtendReasonCodeOther                ExtendReasonCode = 2
	ExtendReasonCodeServiceIssueOrOutage ExtendReasonCode = 3
)

// ExtendRenewalDateRequest extends the renewal date of one subscriber's
// auto-renewable subscription.
type ExtendRenewalDateRequest struct {
	ExtendByDays      int32            `json:"extendByDays,omitempty"`
	ExtendReasonCode  ExtendReasonCode `json:"extendReasonCode"`
	RequestIdentifier string           `json:"requestIdentifier,omitempty"`
}

// MassExtendRenewalDateRequest extends the renewal date for all of a
// product's active subscribers in the given storefronts. An empty
// StorefrontCountryCodes list means every storefront.
type MassExtendRenewalDateRequest struct {
	ExtendByDays           int32            `json:"extendByDays"`
	ExtendReasonCode       ExtendReasonCode `json:"extendReasonCode"`
	RequestIdentifier      string           `json:"requestIdentifier"`
	StorefrontCountryCodes []string         `json:"storefrontCountryCodes"`
	ProductID              string           `json:"productId"`
}

// UpdateAppAccountTokenRequest sets or corrects the appAccountToken on a
// transaction after purchase.
type UpdateAppAccountTokenRequest struct {
	AppAccountToken uuid.UUID `json:"appAccountToken"`
}
