// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package appstore

// Advanced Commerce metadata embedded in signed transaction and renewal
// payloads for apps using the [Advanced Commerce API]. These mirror the
// store's wire shapes; amounts are milliunits and dates millisecond epochs,
// as everywhere else in this package.
//
// [Advanced Commerce API]: https://developer.apple.com/documentation/advancedcommerceapi

// AdvancedCommercePeriod is the duration of one auto-renewable subscription
// cycle.
type AdvancedCommercePeriod string

const (
	AdvancedCommercePeriodOneWeek     AdvancedCommercePeriod = "P1W"
	AdvancedCommercePeriodOneMonth    AdvancedCommercePeriod = "P1M"
	AdvancedCommercePeriodTwoMonths   AdvancedCommercePeriod = "P2M"
	AdvancedCommercePeriodThreeMonths AdvancedCommercePeriod = "P3M"
	AdvancedCommercePeriodSixMonths   AdvancedCommercePeriod = "P6M"
	AdvancedCommercePeriodOneYear     AdvancedCommercePeriod = "P1Y"
)

// AdvancedCommerceOfferPeriod is the duration of a discounted offer inside a
// subscription. Offers allow a few durations a full cycle does not.
type AdvancedCommerceOfferPeriod string

const (
	AdvancedCommerceOfferPeriodThreeDays   AdvancedCommerceOfferPeriod = "P3D"
	AdvancedCommerceOfferPeriodOneWeek     AdvancedCommerceOfferPeriod = "P1W"
	AdvancedCommerceOfferPeriodTwoWeeks    AdvancedCommerceOfferPeriod = "P2W"
	AdvancedCommerceOfferPeriodOneMonth    AdvancedCommerceOfferPeriod = "P1M"
	AdvancedCommerceOfferPeriodTwoMonths   AdvancedCommerceOfferPeriod = "P2M"
	AdvancedCommerceOfferPeriodThreeMonths AdvancedCommerceOfferPeriod = "P3M"
	AdvancedCommerceOfferPeriodSixMonths   AdvancedCommerceOfferPeriod = "P6M"
	AdvancedCommerceOfferPeriodNineMonths  AdvancedCommerceOfferPeriod = "P9M"
	AdvancedCommerceOfferPeriodOneYear     AdvancedCommerceOfferPeriod = "P1Y"
)

// AdvancedCommerceOfferReason is the business reason an offer was granted.
type AdvancedCommerceOfferReason string

const (
	AdvancedCommerceOfferReasonAcquisition AdvancedCommerceOfferReason = "ACQUISITION"
	AdvancedCommerceOfferReasonWinBack     AdvancedCommerceOfferReason = "WIN_BACK"
	AdvancedCommerceOfferReasonRetention   AdvancedCommerceOfferReason = "RETENTION"
)

// AdvancedCommerceRefundReason is why an item was refunded.
type AdvancedCommerceRefundReason string

const (
	AdvancedCommerceRefundReasonUnintendedPurchase      AdvancedCommerceRefundReason = "UNINTENDED_PURCHASE"
	AdvancedCommerceRefundReasonFulfillmentIssue        AdvancedCommerceRefundReason = "FULFILLMENT_ISSUE"
	AdvancedCommerceRefundReasonUnsatisfiedWithPurchase AdvancedCommerceRefundReason = "UNSATISFIED_WITH_PURCHASE"
	AdvancedCommerceRefundReasonLegal                   AdvancedCommerceRefundReason = "LEGAL"
	AdvancedCommerceRefundReasonOther                   AdvancedCommerceRefundReason = "OTHER"
	AdvancedCommerceRefundReasonModifyItemsRefund       AdvancedCommerceRefundReason = "MODIFY_ITEMS_REFUND"
	AdvancedCommerceRefundReasonSimulateRefundDecline   AdvancedCommerceRefundReason = "SIMULATE_REFUND_DECLINE"
)

// AdvancedCommerceRefundType is the scope of a refund.
type AdvancedCommerceRefundType string

const (
	AdvancedCommerceRefundTypeFull     AdvancedCommerceRefundType = "FULL"
	AdvancedCommerceRefundTypeProrated AdvancedCommerceRefundType = "PRORATED"
	AdvancedCommerceRefundTypeCustom   AdvancedCommerceRefundType = "CUSTOM"
)

// AdvancedCommercePriceIncreaseStatus is the progress of a scheduled price
// increase on a renewal.
type AdvancedCommercePriceIncreaseStatus string

const (
	AdvancedCommercePriceIncreaseStatusScheduled AdvancedCommercePriceIncreaseStatus = "SCHEDULED"
	AdvancedCommercePriceIncreaseStatusPending   AdvancedCommercePriceIncreaseStatus = "PENDING"
	AdvancedCommercePriceIncreaseStatusAccepted  AdvancedCommercePriceIncreaseStatus = "ACCEPTED"
)

// AdvancedCommerceDescriptors is the customer-facing name and description of
// a subscription or item.
type AdvancedCommerceDescriptors struct {
	Description string `json:"description"`
	DisplayName string `json:"displayName"`
}

// AdvancedCommerceOffer describes a discounted period applied to an item.
type AdvancedCommerceOffer struct {
	Period      AdvancedCommerceOfferPeriod `json:"period"`
	PeriodCount int32                       `json:"periodCount"`
	Price       int64                       `json:"price"`
	Reason      AdvancedCommerceOfferReason `json:"reason"`
}

// AdvancedCommerceRefund records one refund issued against an item.
type AdvancedCommerceRefund struct {
	RefundAmount int64                        `json:"refundAmount"`
	RefundDate   int64                        `json:"refundDate"`
	RefundReason AdvancedCommerceRefundReason `json:"refundReason"`
	RefundType   AdvancedCommerceRefundType   `json:"refundType"`
}

// AdvancedCommerceTransactionItem is one purchased item inside an Advanced
// Commerce transaction.
type AdvancedCommerceTransactionItem struct {
	SKU            string                   `json:"SKU"`
	Description    string                   `json:"description"`
	DisplayName    string                   `json:"displayName"`
	Offer          AdvancedCommerceOffer    `json:"offer"`
	Price          int64                    `json:"price"`
	Refunds        []AdvancedCommerceRefund `json:"refunds"`
	RevocationDate int64                    `json:"revocationDate"`
}

// AdvancedCommerceTransactionInfo is the Advanced Commerce metadata carried
// by a signed transaction.
type AdvancedCommerceTransactionInfo struct {
	Descriptors        AdvancedCommerceDescriptors       `json:"descriptors"`
	EstimatedTax       int64                             `json:"estimatedTax"`
	Items              []AdvancedCommerceTransactionItem `json:"items"`
	Period             AdvancedCommercePeriod            `json:"period"`
	RequestReferenceID string                            `json:"requestReferenceId"`
	TaxCode            string                            `json:"taxCode"`
	TaxExclusivePrice  int64                             `json:"taxExclusivePrice"`
	TaxRate            string                            `json:"taxRate"`
}

// AdvancedCommerceRenewalItem is one item inside an upcoming Advanced
// Commerce renewal.
type AdvancedCommerceRenewalItem struct {
	SKU         string                `json:"SKU"`
	Description string                `json:"description"`
	DisplayName string                `json:"displayName"`
	Offer       AdvancedCommerceOffer `json:"offer"`
	Price       int64                 `json:"price"`
}

// AdvancedCommerceRenewalInfo is the Advanced Commerce metadata carried by
// signed renewal information.
type AdvancedCommerceRenewalInfo struct {
	ConsistencyToken   string                        `json:"consistencyToken"`
	Descriptors        AdvancedCommerceDescriptors   `json:"descriptors"`
	Items              []AdvancedCommerceRenewalItem `json:"items"`
	Period             AdvancedCommercePeriod        `json:"period"`
	RequestReferenceID string                        `json:"requestReferenceId"`
	TaxCode            string                        `json:"taxCode"`
}

// AdvancedCommercePriceIncreaseInfo describes a pending or accepted price
// increase on an Advanced Commerce renewal.
type AdvancedCommercePriceIncreaseInfo struct {
	DependentSKUs []string                            `json:"dependentSkus,omitempty"`
	Price         int64                               `json:"price,omitempty"`
	Status        AdvancedCommercePriceIncreaseStatus `json:"status,omitempty"`
}
