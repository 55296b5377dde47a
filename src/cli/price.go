// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/app-store-server-go/src/appstore"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// formatPrice renders a milliunit amount in the conventions of the
// storefront it was charged in.
//
// Parameters:
//   - milliunits: Price in milliunits of the currency, as carried by
//     transaction payloads.
//   - currencyCode: ISO 4217 currency code, for example "USD".
//   - storefront: ISO 3166-1 alpha-3 storefront code, for example "USA".
//
// Returns:
//   - string: Localized price such as "$9.99", or a plain numeric
//     rendering when the currency code is unknown.
func formatPrice(milliunits int64, currencyCode, storefront string) string {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return strings.TrimSpace(fmt.Sprintf("%.2f %s", float64(milliunits)/1000, currencyCode))
	}

	// The storefront region selects formatting conventions, for example
	// decimal separators. An unknown storefront falls back to the
	// undetermined locale.
	tag := language.Und
	if region, err := language.ParseRegion(storefront); err == nil {
		if composed, err := language.Compose(region); err == nil {
			tag = composed
		}
	}

	amount := unit.Amount(float64(milliunits) / 1000)
	return message.NewPrinter(tag).Sprint(currency.Symbol(amount))
}

// renderTransactionTable renders the fields a human reaches for first
// when inspecting a transaction.
//
// Returns:
//   - string: Markdown table representation of the decoded transaction
func renderTransactionTable(txn *appstore.JWSTransactionDecodedPayload) string {
	price := ""
	if txn.Price != nil {
		price = formatPrice(*txn.Price, txn.Currency, txn.Storefront)
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	headers := []string{"🏷️ Field", "📦 Value"}
	table.Header(headers)

	rows := [][]string{
		{"Transaction ID", txn.TransactionID},
		{"Original Transaction ID", txn.OriginalTransactionID},
		{"Bundle ID", txn.BundleID},
		{"Product ID", txn.ProductID},
		{"Type", string(txn.Type)},
		{"Quantity", strconv.FormatInt(int64(txn.Quantity), 10)},
		{"Purchase Date", formatTimestamp(txn.PurchaseDate)},
		{"Expires Date", formatTimestamp(txn.ExpiresDate)},
		{"Storefront", txn.Storefront},
		{"Price", price},
		{"Environment", string(txn.Environment)},
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// formatTimestamp renders a millisecond epoch as RFC 3339 UTC, empty when
// the field is absent.
func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
