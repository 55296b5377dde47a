// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package api

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/H0llyW00dzZ/app-store-server-go/src/appstore"
	"github.com/H0llyW00dzZ/app-store-server-go/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/app-store-server-go/src/version"
)

var (
	// ErrUnsupportedEnvironment is returned when a client is constructed for
	// the Xcode environment, which exists only for local receipt validation
	// and has no server endpoints.
	ErrUnsupportedEnvironment = errors.New("api: the Xcode environment is not supported for App Store Server API calls")

	// ErrInvalidSigningKey is returned when the signing key is not a
	// PEM-encoded ECDSA private key.
	ErrInvalidSigningKey = errors.New("api: signing key must be a PEM-encoded ECDSA private key")
)

const (
	productionBaseURL = "https://api.storekit.itunes.apple.com"
	sandboxBaseURL    = "https://api.storekit-sandbox.itunes.apple.com"

	// tokenAudience and tokenTTL follow the App Store Connect API token
	// requirements.
	tokenAudience = "appstoreconnect-v1"
	tokenTTL      = 5 * time.Minute
)

// APIException is the error returned when the App Store Server API answers
// with a non-2xx status. RawAPIError carries the numeric errorCode even
// when it is newer than the constants in the appstore package.
type APIException struct {
	HTTPStatusCode int
	APIError       appstore.APIError
	RawAPIError    int64
	ErrorMessage   string
}

func (e *APIException) Error() string {
	msg := fmt.Sprintf("api: request failed with HTTP status %d", e.HTTPStatusCode)
	if e.RawAPIError != 0 {
		msg += fmt.Sprintf(", error code %d", e.RawAPIError)
	}
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

// GetTransactionHistoryVersion selects the transaction history endpoint
// revision.
type GetTransactionHistoryVersion string

const (
	// GetTransactionHistoryV1 is the original history endpoint.
	//
	// Deprecated: v1 is deprecated by the App Store Server API. Use
	// GetTransactionHistoryV2.
	GetTransactionHistoryV1 GetTransactionHistoryVersion = "v1"

	// GetTransactionHistoryV2 is the current history endpoint.
	GetTransactionHistoryV2 GetTransactionHistoryVersion = "v2"
)

// Client calls the App Store Server API on behalf of one app.
//
// Every request is authenticated with a freshly minted short-lived ES256
// bearer token, so a Client never holds session state.
//
// Thread Safety: a Client is safe for concurrent use.
type Client struct {
	baseURL    string
	signingKey *ecdsa.PrivateKey
	keyID      string
	issuerID   string
	bundleID   string
	httpConfig *HTTPConfig
	transport  Transport
	now        func() time.Time
}

// Option configures a Client beyond its required parameters.
type Option func(*Client)

// WithTransport replaces the default HTTP transport. Intended for tests
// and callers with their own connection pooling.
func WithTransport(transport Transport) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithHTTPConfig replaces the default HTTP configuration, controlling the
// request timeout and User-Agent of the default transport.
func WithHTTPConfig(config *HTTPConfig) Option {
	return func(c *Client) {
		c.httpConfig = config
	}
}

// WithClock overrides the time source used for bearer token expiry.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient builds an App Store Server API client.
//
// Parameters:
//
//   - signingKey: the PEM-encoded private key (.p8) downloaded from App
//     Store Connect.
//   - keyID: the identifier of that key.
//   - issuerID: the issuer identifier of the App Store Connect key.
//   - bundleID: the app's bundle identifier.
//   - environment: Production talks to the production servers; every other
//     environment talks to the sandbox. Xcode is rejected, it exists only
//     for local receipt validation.
//
// Returns the client, or ErrUnsupportedEnvironment / ErrInvalidSigningKey.
func NewClient(signingKey []byte, keyID, issuerID, bundleID string, environment appstore.Environment, opts ...Option) (*Client, error) {
	if environment == appstore.EnvironmentXcode {
		return nil, ErrUnsupportedEnvironment
	}

	key, err := parseSigningKey(signingKey)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    sandboxBaseURL,
		signingKey: key,
		keyID:      keyID,
		issuerID:   issuerID,
		bundleID:   bundleID,
		httpConfig: NewHTTPConfig(version.Version),
		now:        time.Now,
	}
	if environment == appstore.EnvironmentProduction {
		c.baseURL = productionBaseURL
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = &httpTransport{config: c.httpConfig}
	}

	return c, nil
}

// parseSigningKey decodes an App Store Connect private key. Keys download
// as PKCS#8 PEM; SEC 1 EC keys are accepted as well.
func parseSigningKey(pemBytes []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidSigningKey)
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: PKCS#8 block holds a %T", ErrInvalidSigningKey, key)
		}
		return ecKey, nil
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSigningKey, err)
	}
	return key, nil
}

// bearerToken mints the authorization token for one request.
func (c *Client) bearerToken() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"bid": c.bundleID,
		"iss": c.issuerID,
		"aud": tokenAudience,
		"exp": c.now().Add(tokenTTL).Unix(),
	})
	token.Header["kid"] = c.keyID

	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("api: failed to sign bearer token: %w", err)
	}
	return signed, nil
}

// do sends one API request and decodes the response body into out when out
// is non-nil. A non-2xx response is returned as an *APIException.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token, err := c.bearerToken()
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("api: failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.httpConfig.GetUserAgent())
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.transport.RoundTrip(req)
	if err != nil {
		return fmt.Errorf("api: request failed: %w", err)
	}
	defer resp.Body.Close()

	// Read the response through the buffer pool; both the success and the
	// error path need the full body.
	buf := gc.Default.Get()
	defer gc.Default.Put(buf)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("api: failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return extractError(resp.StatusCode, buf.Bytes())
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return fmt.Errorf("api: failed to decode response body: %w", err)
	}
	return nil
}

// extractError shapes a non-2xx response into an APIException. A body that
// is not an ErrorPayload still yields the HTTP status.
func extractError(statusCode int, body []byte) *APIException {
	exc := &APIException{HTTPStatusCode: statusCode}

	var payload appstore.ErrorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		exc.APIError = payload.ErrorCode
		exc.RawAPIError = int64(payload.ErrorCode)
		exc.ErrorMessage = payload.ErrorMessage
	}
	return exc
}
