// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package appstore

// APIError is an App Store Server API error code. The leading digits encode
// the HTTP status the server responded with (4000xxx = 400, 4040xxx = 404,
// and so on); codes ending in 1 within the 4040 and 5000 ranges indicate the
// request is worth retrying.
type APIError int64

const (
	APIErrorGeneralBadRequest                           APIError = 4000000
	APIErrorInvalidAppIdentifier                        APIError = 4000002
	APIErrorInvalidRequestRevision                      APIError = 4000005
	APIErrorInvalidTransactionID                        APIError = 4000006
	APIErrorInvalidOriginalTransactionID                APIError = 4000008
	APIErrorInvalidExtendByDays                         APIError = 4000009
	APIErrorInvalidExtendReasonCode                     APIError = 4000010
	APIErrorInvalidRequestIdentifier                    APIError = 4000011
	APIErrorStartDateTooFarInPast                       APIError = 4000012
	APIErrorStartDateAfterEndDate                       APIError = 4000013
	APIErrorInvalidPaginationToken                      APIError = 4000014
	APIErrorInvalidStartDate                            APIError = 4000015
	APIErrorInvalidEndDate                              APIError = 4000016
	APIErrorPaginationTokenExpired                      APIError = 4000017
	APIErrorInvalidNotificationType                     APIError = 4000018
	APIErrorMultipleFiltersSupplied                     APIError = 4000019
	APIErrorInvalidTestNotificationToken                APIError = 4000020
	APIErrorInvalidSort                                 APIError = 4000021
	APIErrorInvalidProductType                          APIError = 4000022
	APIErrorInvalidProductID                            APIError = 4000023
	APIErrorInvalidSubscriptionGroupIdentifier          APIError = 4000024
	APIErrorInvalidExcludeRevoked                       APIError = 4000025
	APIErrorInvalidInAppOwnershipType                   APIError = 4000026
	APIErrorInvalidEmptyStorefrontCountryCodeList       APIError = 4000027
	APIErrorInvalidStorefrontCountryCode                APIError = 4000028
	APIErrorInvalidRevoked                              APIError = 4000030
	APIErrorInvalidStatus                               APIError = 4000031
	APIErrorInvalidAccountTenure                        APIError = 4000032
	APIErrorInvalidAppAccountToken                      APIError = 4000033
	APIErrorInvalidConsumptionStatus                    APIError = 4000034
	APIErrorInvalidCustomerConsented                    APIError = 4000035
	APIErrorInvalidDeliveryStatus                       APIError = 4000036
	APIErrorInvalidLifetimeDollarsPurchased             APIError = 4000037
	APIErrorInvalidLifetimeDollarsRefunded              APIError = 4000038
	APIErrorInvalidPlatform                             APIError = 4000039
	APIErrorInvalidPlayTime                             APIError = 4000040
	APIErrorInvalidSampleContentProvided                APIError = 4000041
	APIErrorInvalidUserStatus                           APIError = 4000042
	APIErrorInvalidTransactionNotConsumable             APIError = 4000043
	APIErrorInvalidTransactionTypeNotSupported          APIError = 4000047
	APIErrorAppTransactionIDNotSupported                APIError = 4000048
	APIErrorSubscriptionExtensionIneligible             APIError = 4030004
	APIErrorSubscriptionMaxExtension                    APIError = 4030005
	APIErrorFamilySharedSubscriptionExtensionIneligible APIError = 4030007
	APIErrorAccountNotFound                             APIError = 4040001
	APIErrorAccountNotFoundRetryable                    APIError = 4040002
	APIErrorAppNotFound                                 APIError = 4040003
	APIErrorAppNotFoundRetryable                        APIError = 4040004
	APIErrorOriginalTransactionIDNotFound               APIError = 4040005
	APIErrorOriginalTransactionIDNotFoundRetryable      APIError = 4040006
	APIErrorServerNotificationURLNotFound               APIError = 4040007
	APIErrorTestNotificationNotFound                    APIError = 4040008
	APIErrorStatusRequestNotFound                       APIError = 4040009
	APIErrorTransactionIDNotFound                       APIError = 4040010
	APIErrorRateLimitExceeded                           APIError = 4290000
	APIErrorGeneralInternal                             APIError = 5000000
	APIErrorGeneralInternalRetryable                    APIError = 5000001
)

// ErrorPayload is the JSON body the App Store Server API returns with
// non-2xx responses.
type ErrorPayload struct {
	ErrorCode    APIError `json:"errorCode,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
}
