// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package appstore

// HistoryResponse is one page of a customer's transaction history. Each
// entry of SignedTransactions is a JWS to run through the verifier; pass
// Revision back in the next request while HasMore is true.
type HistoryResponse struct {
	Revision           string      `json:"revision,omitempty"`
	HasMore            bool        `json:"hasMore,omitempty"`
	BundleID           string      `json:"bundleId,omitempty"`
	AppAppleID         int64       `json:"appAppleId,omitempty"`
	Environment        Environment `json:"environment,omitempty"`
	SignedTransactions []string    `json:"signedTransactions,omitempty"`
}

// TransactionInfoResponse carries the signed transaction for a single
// transaction identifier.
type TransactionInfoResponse struct {
	SignedTransactionInfo string `json:"signedTransactionInfo,omitempty"`
}

// AppTransactionInfoResponse carries the signed app transaction for an app.
type AppTransactionInfoResponse struct {
	SignedAppTransactionInfo string `json:"signedAppTransactionInfo,omitempty"`
}

// OrderLookupStatus says whether an order ID belongs to this app.
type OrderLookupStatus int32

const (
	OrderLookupStatusValid   OrderLookupStatus = 0
	OrderLookupStatusInvalid OrderLookupStatus = 1
)

// OrderLookupResponse is the result of looking up a customer order ID.
// SignedTransactions holds the order's in-app purchases when the status is
// valid.
type OrderLookupResponse struct {
	Status             OrderLookupStatus `json:"status"`
	SignedTransactions []string          `json:"signedTransactions,omitempty"`
}

// LastTransactionsItem is the most recent signed transaction and renewal
// info for one original transaction within a subscription group.
type LastTransactionsItem struct {
	Status                Status `json:"status,omitempty"`
	OriginalTransactionID string `json:"originalTransactionId,omitempty"`
	SignedTransactionInfo string `json:"signedTransactionInfo,omitempty"`
	SignedRenewalInfo     string `json:"signedRenewalInfo,omitempty"`
}

// SubscriptionGroupIdentifierItem groups a customer's latest subscription
// transactions by subscription group.
type SubscriptionGroupIdentifierItem struct {
	SubscriptionGroupIdentifier string                 `json:"subscriptionGroupIdentifier,omitempty"`
	LastTransactions            []LastTransactionsItem `json:"lastTransactions,omitempty"`
}

// StatusResponse reports the status of every auto-renewable subscription
// the customer holds in the app.
type StatusResponse struct {
	Environment Environment                       `json:"environment,omitempty"`
	BundleID    string                            `json:"bundleId,omitempty"`
	AppAppleID  int64                             `json:"appAppleId,omitempty"`
	Data        []SubscriptionGroupIdentifierItem `json:"data,omitempty"`
}

// RefundHistoryResponse is one page of a customer's refunded transactions.
type RefundHistoryResponse struct {
	SignedTransactions []string `json:"signedTransactions"`
	Revision           string   `json:"revision"`
	HasMore            bool     `json:"hasMore"`
}

// SendTestNotificationResponse carries the token identifying a requested
// test notification.
type SendTestNotificationResponse struct {
	TestNotificationToken string `json:"testNotificationToken,omitempty"`
}

// SendAttemptResult is the outcome of one attempt to deliver a notification
// to the app's server.
type SendAttemptResult string

const (
	SendAttemptResultSuccess                      SendAttemptResult = "SUCCESS"
	SendAttemptResultTimedOut                     SendAttemptResult = "TIMED_OUT"
	SendAttemptResultTLSIssue                     SendAttemptResult = "TLS_ISSUE"
	SendAttemptResultCircularRedirect             SendAttemptResult = "CIRCULAR_REDIRECT"
	SendAttemptResultNoResponse                   SendAttemptResult = "NO_RESPONSE"
	SendAttemptResultSocketIssue                  SendAttemptResult = "SOCKET_ISSUE"
	SendAttemptResultUnsupportedCharset           SendAttemptResult = "UNSUPPORTED_CHARSET"
	SendAttemptResultInvalidResponse              SendAttemptResult = "INVALID_RESPONSE"
	SendAttemptResultPrematureClose               SendAttemptResult = "PREMATURE_CLOSE"
	SendAttemptResultUnsuccessfulHTTPResponseCode SendAttemptResult = "UNSUCCESSFUL_HTTP_RESPONSE_CODE"
	SendAttemptResultOther                        SendAttemptResult = "OTHER"
)

// SendAttemptItem records one delivery attempt of a notification.
type SendAttemptItem struct {
	AttemptDate       int64             `json:"attemptDate,omitempty"`
	SendAttemptResult SendAttemptResult `json:"sendAttemptResult,omitempty"`
}

// CheckTestNotificationResponse is the delivery record of a test
// notification, including the signed payload that was sent.
type CheckTestNotificationResponse struct {
	SignedPayload string            `json:"signedPayload,omitempty"`
	SendAttempts  []SendAttemptItem `json:"sendAttempts,omitempty"`
}

// NotificationHistoryResponseItem is one notification from the history,
// with its delivery attempts.
type NotificationHistoryResponseItem struct {
	SignedPayload string            `json:"signedPayload,omitempty"`
	SendAttempts  []SendAttemptItem `json:"sendAttempts,omitempty"`
}

// NotificationHistoryResponse is one page of notification history; pass
// PaginationToken back while HasMore is true.
type NotificationHistoryResponse struct {
	PaginationToken     string                            `json:"paginationToken,omitempty"`
	HasMore             bool                              `json:"hasMore,omitempty"`
	NotificationHistory []NotificationHistoryResponseItem `json:"notificationHistory,omitempty"`
}

// ExtendRenewalDateResponse reports the outcome of a single-subscriber
// renewal-date extension. EffectiveDate is the new expiration, a
// millisecond UNIX epoch.
type ExtendRenewalDateResponse struct {
	OriginalTransactionID string `json:"originalTransactionId,omitempty"`
	WebOrderLineItemID    string `json:"webOrderLineItemId,omitempty"`
	Success               bool   `json:"success,omitempty"`
	EffectiveDate         int64  `json:"effectiveDate,omitempty"`
}

// MassExtendRenewalDateStatusResponse is the progress of a mass
// renewal-date extension. The extension request itself is acknowledged with
// the same shape, carrying only the request identifier.
type MassExtendRenewalDateStatusResponse struct {
	RequestIdentifier string `json:"requestIdentifier,omitempty"`
	Complete          bool   `json:"complete,omitempty"`
	CompleteDate      int64  `json:"completeDate,omitempty"`
	SucceededCount    int64  `json:"succeededCount,omitempty"`
	FailedCount       int64  `json:"failedCount,omitempty"`
}
