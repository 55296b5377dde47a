// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/H0llyW00dzZ/app-store-server-go/src/appstore"
)

// GetTransactionInfo fetches the signed transaction information for a
// single transaction. See [Get Transaction Info].
//
// Parameters:
//   - transactionID: a transaction identifier belonging to the customer,
//     which may be an original transaction identifier.
//
// Returns:
//   - *appstore.TransactionInfoResponse: carries one signed transaction
//
// [Get Transaction Info]: https://developer.apple.com/documentation/appstoreserverapi/get_transaction_info
func (c *Client) GetTransactionInfo(ctx context.Context, transactionID string) (*appstore.TransactionInfoResponse, error) {
	path := fmt.Sprintf("/inApps/v1/transactions/%s", transactionID)

	var out appstore.TransactionInfoResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAppTransactionInfo fetches the signed app transaction for an app
// transaction identifier. See [Get App Transaction Info].
//
// [Get App Transaction Info]: https://developer.apple.com/documentation/appstoreserverapi/get-app-transaction-info
func (c *Client) GetAppTransactionInfo(ctx context.Context, appTransactionID string) (*appstore.AppTransactionInfoResponse, error) {
	path := fmt.Sprintf("/inApps/v1/appTransactions/%s", appTransactionID)

	var out appstore.AppTransactionInfoResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTransactionHistory fetches a page of the customer's in-app purchase
// history for the app. See [Get Transaction History].
//
// Parameters:
//   - transactionID: a transaction identifier belonging to the customer.
//   - revision: the pagination token from the previous HistoryResponse;
//     empty on the first call. Requests that carry a revision must repeat
//     the query constraints of the initial request.
//   - request: optional query constraints; nil applies none.
//   - version: the endpoint revision, normally GetTransactionHistoryV2.
//
// Returns:
//   - *appstore.HistoryResponse: one page of signed transactions plus the
//     revision token for the next page
//
// [Get Transaction History]: https://developer.apple.com/documentation/appstoreserverapi/get_transaction_history
func (c *Client) GetTransactionHistory(ctx context.Context, transactionID, revision string, request *appstore.TransactionHistoryRequest, version GetTransactionHistoryVersion) (*appstore.HistoryResponse, error) {
	path := fmt.Sprintf("/inApps/%s/history/%s", version, transactionID)

	query := url.Values{}
	if revision != "" {
		query.Set("revision", revision)
	}
	if request != nil {
		addHistoryQuery(query, request)
	}

	var out appstore.HistoryResponse
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// addHistoryQuery expands a TransactionHistoryRequest into query
// parameters; zero fields contribute nothing.
func addHistoryQuery(query url.Values, request *appstore.TransactionHistoryRequest) {
	if request.StartDate != 0 {
		query.Set("startDate", strconv.FormatInt(request.StartDate, 10))
	}
	if request.EndDate != 0 {
		query.Set("endDate", strconv.FormatInt(request.EndDate, 10))
	}
	for _, id := range request.ProductIDs {
		query.Add("productId", id)
	}
	for _, productType := range request.ProductTypes {
		query.Add("productType", string(productType))
	}
	if request.Sort != "" {
		query.Set("sort", string(request.Sort))
	}
	for _, id := range request.SubscriptionGroupIdentifiers {
		query.Add("subscriptionGroupIdentifier", id)
	}
	if request.InAppOwnershipType != "" {
		query.Set("inAppOwnershipType", string(request.InAppOwnershipType))
	}
	if request.Revoked != nil {
		query.Set("revoked", strconv.FormatBool(*request.Revoked))
	}
}

// GetAllSubscriptionStatuses fetches the status of each of the customer's
// auto-renewable subscriptions in the app. See
// [Get All Subscription Statuses].
//
// Parameters:
//   - transactionID: a transaction identifier belonging to the customer.
//   - status: optional filter; only subscriptions in one of these statuses
//     are included. Empty means all.
//
// [Get All Subscription Statuses]: https://developer.apple.com/documentation/appstoreserverapi/get_all_subscription_statuses
func (c *Client) GetAllSubscriptionStatuses(ctx context.Context, transactionID string, status []appstore.Status) (*appstore.StatusResponse, error) {
	path := fmt.Sprintf("/inApps/v1/subscriptions/%s", transactionID)

	query := url.Values{}
	for _, s := range status {
		query.Add("status", strconv.FormatInt(int64(s), 10))
	}

	var out appstore.StatusResponse
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LookUpOrderID fetches the customer's in-app purchases from a receipt
// using the order ID. See [Look Up Order ID].
//
// [Look Up Order ID]: https://developer.apple.com/documentation/appstoreserverapi/look_up_order_id
func (c *Client) LookUpOrderID(ctx context.Context, orderID string) (*appstore.OrderLookupResponse, error) {
	path := fmt.Sprintf("/inApps/v1/lookup/%s", orderID)

	var out appstore.OrderLookupResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRefundHistory fetches a page of the customer's refunded in-app
// purchases for the app. Revision is the pagination token from the
// previous page, empty on the first call. See [Get Refund History].
//
// [Get Refund History]: https://developer.apple.com/documentation/appstoreserverapi/get_refund_history
func (c *Client) GetRefundHistory(ctx context.Context, transactionID, revision string) (*appstore.RefundHistoryResponse, error) {
	path := fmt.Sprintf("/inApps/v2/refund/lookup/%s", transactionID)

	query := url.Values{}
	if revision != "" {
		query.Set("revision", revision)
	}

	var out appstore.RefundHistoryResponse
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestTestNotification asks the App Store server to send a TEST
// notification to the app's server notification URL. See
// [Request a Test Notification].
//
// [Request a Test Notification]: https://developer.apple.com/documentation/appstoreserverapi/request_a_test_notification
func (c *Client) RequestTestNotification(ctx context.Context) (*appstore.SendTestNotificationResponse, error) {
	var out appstore.SendTestNotificationResponse
	if err := c.do(ctx, http.MethodPost, "/inApps/v1/notifications/test", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTestNotificationStatus checks the status of a test notification,
// identified by the token from RequestTestNotification. See
// [Get Test Notification Status].
//
// [Get Test Notification Status]: https://developer.apple.com/documentation/appstoreserverapi/get_test_notification_status
func (c *Client) GetTestNotificationStatus(ctx context.Context, testNotificationToken string) (*appstore.CheckTestNotificationResponse, error) {
	path := fmt.Sprintf("/inApps/v1/notifications/test/%s", testNotificationToken)

	var out appstore.CheckTestNotificationResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetNotificationHistory fetches a page of the notifications the App Store
// server attempted to send to the app's server. See
// [Get Notification History].
//
// Parameters:
//   - paginationToken: token from the previous page; empty on the first
//     call.
//   - request: the date range and optional filters. Required.
//
// [Get Notification History]: https://developer.apple.com/documentation/appstoreserverapi/get_notification_history
func (c *Client) GetNotificationHistory(ctx context.Context, paginationToken string, request *appstore.NotificationHistoryRequest) (*appstore.NotificationHistoryResponse, error) {
	query := url.Values{}
	if paginationToken != "" {
		query.Set("paginationToken", paginationToken)
	}

	var out appstore.NotificationHistoryResponse
	if err := c.do(ctx, http.MethodPost, "/inApps/v1/notifications/history", query, request, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtendSubscriptionRenewalDate extends the renewal date of one
// subscriber's active subscription. See
// [Extend a Subscription Renewal Date].
//
// [Extend a Subscription Renewal Date]: https://developer.apple.com/documentation/appstoreserverapi/extend_a_subscription_renewal_date
func (c *Client) ExtendSubscriptionRenewalDate(ctx context.Context, originalTransactionID string, request *appstore.ExtendRenewalDateRequest) (*appstore.ExtendRenewalDateResponse, error) {
	path := fmt.Sprintf("/inApps/v1/subscriptions/extend/%s", originalTransactionID)

	var out appstore.ExtendRenewalDateResponse
	if err := c.do(ctx, http.MethodPut, path, nil, request, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtendRenewalDateForAllActiveSubscribers extends the renewal date for
// all of a product's eligible active subscribers. The returned request
// identifier feeds GetStatusOfSubscriptionRenewalDateExtensions. See
// [Extend Subscription Renewal Dates for All Active Subscribers].
//
// [Extend Subscription Renewal Dates for All Active Subscribers]: https://developer.apple.com/documentation/appstoreserverapi/extend_subscription_renewal_dates_for_all_active_subscribers
func (c *Client) ExtendRenewalDateForAllActiveSubscribers(ctx context.Context, request *appstore.MassExtendRenewalDateRequest) (*appstore.MassExtendRenewalDateStatusResponse, error) {
	var out appstore.MassExtendRenewalDateStatusResponse
	if err := c.do(ctx, http.MethodPost, "/inApps/v1/subscriptions/extend/mass", nil, request, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatusOfSubscriptionRenewalDateExtensions checks whether a mass
// renewal date extension completed, with final success and failure counts.
// See [Get Status of Subscription Renewal Date Extensions].
//
// Parameters:
//   - requestIdentifier: the UUID from the mass extension request.
//   - productID: the product identifier the extension was requested for.
//
// [Get Status of Subscription Renewal Date Extensions]: https://developer.apple.com/documentation/appstoreserverapi/get_status_of_subscription_renewal_date_extensions
func (c *Client) GetStatusOfSubscriptionRenewalDateExtensions(ctx context.Context, requestIdentifier, productID string) (*appstore.MassExtendRenewalDateStatusResponse, error) {
	path := fmt.Sprintf("/inApps/v1/subscriptions/extend/mass/%s/%s", productID, requestIdentifier)

	var out appstore.MassExtendRenewalDateStatusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendConsumptionData responds to a CONSUMPTION_REQUEST notification with
// consumption information for a consumable in-app purchase. See
// [Send Consumption Information].
//
// [Send Consumption Information]: https://developer.apple.com/documentation/appstoreserverapi/send_consumption_information
func (c *Client) SendConsumptionData(ctx context.Context, transactionID string, request *appstore.ConsumptionRequest) error {
	path := fmt.Sprintf("/inApps/v1/transactions/consumption/%s", transactionID)
	return c.do(ctx, http.MethodPut, path, nil, request, nil)
}

// SetAppAccountToken sets the app account token on a purchase the customer
// made outside the app, or updates it on an existing transaction. See
// [Set App Account Token].
//
// [Set App Account Token]: https://developer.apple.com/documentation/appstoreserverapi/set-app-account-token
func (c *Client) SetAppAccountToken(ctx context.Context, originalTransactionID string, request *appstore.UpdateAppAccountTokenRequest) error {
	path := fmt.Sprintf("/inApps/v1/transactions/%s/appAccountToken", originalTransactionID)
	return c.do(ctx, http.MethodPut, path, nil, request, nil)
}
