// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package receipt

import (
	"encoding/asn1"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Attribute types assigned by the store. Type 17 carries one in-app
// purchase; inside it the identifier attributes carry the transaction ids.
const (
	attrTypeInApp                 = 17
	attrTypeTransactionID         = 1703
	attrTypeOriginalTransactionID = 1705
)

// ErrMalformedReceipt is returned when the input does not decode as the
// expected receipt structure.
var ErrMalformedReceipt = errors.New("receipt: malformed receipt")

// receiptEnvelope mirrors the subset of the PKCS #7 signedData container the
// store actually emits. Fields after the inner content (certificates, signer
// infos) are left to encoding/asn1's trailing-field tolerance since
// extraction never touches the signature.
type receiptEnvelope struct {
	ContentType asn1.ObjectIdentifier
	Content     signedData `asn1:"explicit,tag:0"`
}

type signedData struct {
	Version          int
	DigestAlgorithms asn1.RawValue
	Content          receiptContent
}

type receiptContent struct {
	ContentType asn1.ObjectIdentifier
	Payload     []byte `asn1:"explicit,tag:0"`
}

// receiptAttribute is the store's type-version-value triple. The same shape
// carries both the top-level receipt fields and the in-app purchase fields.
type receiptAttribute struct {
	Type    int
	Version int
	Value   []byte
}

// ExtractTransactionIDFromAppReceipt pulls a transaction id out of an
// encoded app receipt.
//
// No validation is performed on the receipt, and the returned id should only
// be used to look the transaction up through the App Store Server API.
//
// Parameters:
//   - appReceipt: The unmodified app receipt, standard base64 as issued.
//
// Returns:
//   - string: A transaction id from the array of in-app purchases, or ""
//     when the receipt holds no in-app purchases.
//   - error: [ErrMalformedReceipt] when the input does not decode as an app
//     receipt.
func ExtractTransactionIDFromAppReceipt(appReceipt string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(appReceipt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}

	var envelope receiptEnvelope
	if _, err := asn1.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}

	// The content octet string wraps a second octet string whose bytes are
	// the attribute set.
	var wrapped []byte
	if _, err := asn1.Unmarshal(envelope.Content.Content.Payload, &wrapped); err != nil {
		return "", fmt.Errorf("%w: payload: %v", ErrMalformedReceipt, err)
	}

	attributes, err := parseAttributeSet(wrapped)
	if err != nil {
		return "", fmt.Errorf("%w: payload: %v", ErrMalformedReceipt, err)
	}
	for _, attribute := range attributes {
		if attribute.Type == attrTypeInApp {
			return inAppTransactionID(attribute.Value)
		}
	}
	return "", nil
}

// inAppTransactionID scans one in-app purchase for its transaction
// identifier. The first identifier attribute in the set wins, whether it is
// the transaction id or the original transaction id.
func inAppTransactionID(value []byte) (string, error) {
	attributes, err := parseAttributeSet(value)
	if err != nil {
		return "", fmt.Errorf("%w: in-app purchase: %v", ErrMalformedReceipt, err)
	}
	for _, attribute := range attributes {
		if attribute.Type != attrTypeTransactionID && attribute.Type != attrTypeOriginalTransactionID {
			continue
		}
		var transactionID string
		if _, err := asn1.UnmarshalWithParams(attribute.Value, &transactionID, "utf8"); err != nil {
			return "", fmt.Errorf("%w: transaction id: %v", ErrMalformedReceipt, err)
		}
		return transactionID, nil
	}
	return "", nil
}

// parseAttributeSet decodes a SET OF attribute triples from raw DER.
func parseAttributeSet(der []byte) ([]receiptAttribute, error) {
	var attributes []receiptAttribute
	if _, err := asn1.UnmarshalWithParams(der, &attributes, "set"); err != nil {
		return nil, err
	}
	return attributes, nil
}

// The legacy transactionReceipt is an old-style property list, so the ids
// come out textually rather than through a plist parser.
var (
	purchaseInfoPattern  = regexp.MustCompile(`"purchase-info"\s+=\s+"([a-zA-Z0-9+/=]+)";`)
	transactionIDPattern = regexp.MustCompile(`"transaction-id"\s+=\s+"([a-zA-Z0-9+/=]+)";`)
)

// ExtractTransactionIDFromTransactionReceipt pulls a transaction id out of
// an encoded legacy transactionReceipt.
//
// No validation is performed on the receipt, and the returned id should only
// be used to look the transaction up through the App Store Server API.
//
// Parameters:
//   - transactionReceipt: The unmodified transactionReceipt.
//
// Returns:
//   - string: The transaction id, or "" when the receipt carries none.
//   - error: [ErrMalformedReceipt] when the input is not base64.
func ExtractTransactionIDFromTransactionReceipt(transactionReceipt string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(transactionReceipt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}
	if !utf8.Valid(raw) {
		return "", nil
	}

	purchaseInfo := purchaseInfoPattern.FindStringSubmatch(string(raw))
	if purchaseInfo == nil {
		return "", nil
	}
	inner, err := base64.StdEncoding.DecodeString(purchaseInfo[1])
	if err != nil || !utf8.Valid(inner) {
		return "", nil
	}

	if match := transactionIDPattern.FindStringSubmatch(string(inner)); match != nil {
		return match[1], nil
	}
	return "", nil
}
