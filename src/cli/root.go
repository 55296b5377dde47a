// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/app-store-server-go/src/appstore"
	"github.com/H0llyW00dzZ/app-store-server-go/src/internal/helper/posix"
	x509certs "github.com/H0llyW00dzZ/app-store-server-go/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/app-store-server-go/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/app-store-server-go/src/logger"
	"github.com/H0llyW00dzZ/app-store-server-go/src/receipt"
	"github.com/H0llyW00dzZ/app-store-server-go/src/verifier"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

// Payload kinds accepted by the kind flag.
const (
	kindTransaction    = "transaction"
	kindRenewalInfo    = "renewal-info"
	kindNotification   = "notification"
	kindAppTransaction = "app-transaction"
)

// Sentinel errors surfaced by [Execute] so callers and tests can match
// failures without parsing messages.
var (
	// ErrPayloadRequired indicates that no signed payload or receipt was
	// provided, or that both input flags were set at once.
	ErrPayloadRequired = errors.New("cli: a signed payload is required (use --file or --payload)")
	// ErrRootsRequired indicates that verification was requested without
	// any trusted root certificates.
	ErrRootsRequired = errors.New("cli: root certificates are required (use --roots)")
	// ErrUnknownKind indicates an unrecognized --kind value.
	ErrUnknownKind = errors.New("cli: unknown payload kind")
	// ErrUnknownEnvironment indicates an unrecognized --environment value.
	ErrUnknownEnvironment = errors.New("cli: unknown environment")
	// ErrMalformedPayload indicates input that is not a JWS in compact
	// serialization.
	ErrMalformedPayload = errors.New("cli: malformed signed payload")
)

// Operation progress flags consulted by command wrappers after [Execute]
// returns, so shutdown messages reflect how far the run got.
var (
	// OperationPerformed reports whether input was read and processing
	// started.
	OperationPerformed bool
	// OperationPerformedSuccessfully reports whether the requested
	// operation completed and its output was written.
	OperationPerformedSuccessfully bool
)

var (
	inputFile     string
	inputPayload  string
	payloadKind   string
	rootFiles     []string
	bundleID      string
	appAppleID    int64
	environment   string
	effectiveDate string
	decodeOnly    bool
	appReceipt    bool
	legacyReceipt bool
	showTree      bool
	showTable     bool
	outputFile    string
)

// Execute runs the root command.
//
// Parameters:
//   - ctx: Context carrying cancellation from the caller, typically wired
//     to OS signals by the command wrapper.
//   - version: Version string reported by the --version flag.
//   - log: Destination for user-facing notices.
//
// Returns:
//   - error: The first failure encountered, or nil when the requested
//     operation completed.
//
// Thread Safety: Execute mutates package-level flag state and must not be
// called concurrently.
func Execute(ctx context.Context, version string, log logger.Logger) error {
	OperationPerformed = false
	OperationPerformedSuccessfully = false

	rootCmd := &cobra.Command{
		Use:          fmt.Sprintf("%s -f PAYLOAD_FILE [FLAGS]", posix.GetExecutableName()),
		Short:        "Verify and decode App Store signed payloads",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(log)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&inputFile, "file", "f", "", "file holding the signed payload or receipt")
	flags.StringVarP(&inputPayload, "payload", "p", "", "signed payload or receipt passed literally")
	flags.StringVarP(&payloadKind, "kind", "k", kindTransaction, "payload kind: transaction, renewal-info, notification, or app-transaction")
	flags.StringArrayVarP(&rootFiles, "roots", "r", nil, "trusted root certificate file (PEM, DER, or PKCS7); repeatable")
	flags.StringVarP(&bundleID, "bundle-id", "b", "", "bundle identifier the payload must belong to")
	flags.Int64VarP(&appAppleID, "app-apple-id", "a", 0, "app Apple ID checked for production payloads")
	flags.StringVarP(&environment, "environment", "e", string(appstore.EnvironmentProduction), "environment the payload must come from")
	flags.StringVar(&effectiveDate, "effective-date", "", "RFC 3339 instant used for certificate validity checks (default: now)")
	flags.BoolVar(&decodeOnly, "decode-only", false, "decode the payload without verifying its signature")
	flags.BoolVar(&appReceipt, "receipt", false, "treat the input as an app receipt and print its transaction id")
	flags.BoolVar(&legacyReceipt, "legacy-receipt", false, "treat the input as a legacy transaction receipt and print its transaction id")
	flags.BoolVarP(&showTree, "tree", "t", false, "render the verified certificate chain as an ASCII tree")
	flags.BoolVar(&showTable, "table", false, "render the decoded transaction as a table")
	flags.StringVarP(&outputFile, "output", "o", "", "output to OUTPUT_FILE (default: stdout)")

	return rootCmd.ExecuteContext(ctx)
}

// run dispatches the requested operation: receipt extraction, decode-only
// inspection, or full verification.
func run(log logger.Logger) error {
	input, err := readInput()
	if err != nil {
		return err
	}
	OperationPerformed = true

	var output []byte
	switch {
	case appReceipt || legacyReceipt:
		output, err = extractReceipt(input, log)
	case decodeOnly:
		output, err = decodePayload(input)
	default:
		output, err = verifyPayload(input)
	}
	if err != nil {
		return err
	}

	if err := writeOutput(output); err != nil {
		return err
	}
	OperationPerformedSuccessfully = true
	return nil
}

// readInput resolves the payload from --file or --payload. File contents
// are trimmed because encoded payloads commonly end with a newline.
func readInput() (string, error) {
	switch {
	case inputFile != "" && inputPayload != "":
		return "", fmt.Errorf("%w: --file and --payload are mutually exclusive", ErrPayloadRequired)
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("cli: reading %s: %w", inputFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	case inputPayload != "":
		return inputPayload, nil
	}
	return "", ErrPayloadRequired
}

// extractReceipt pulls a transaction id out of an app receipt or a legacy
// transaction receipt. A receipt without an id is reported, not an error.
func extractReceipt(input string, log logger.Logger) ([]byte, error) {
	extract := receipt.ExtractTransactionIDFromAppReceipt
	if legacyReceipt {
		extract = receipt.ExtractTransactionIDFromTransactionReceipt
	}
	id, err := extract(input)
	if err != nil {
		return nil, err
	}
	if id == "" {
		log.Println("No transaction id found in the receipt.")
		return nil, nil
	}
	return []byte(id + "\n"), nil
}

// decodePayload decodes the claims of a signed payload without checking
// the signature, the certificate chain, or the app identity. Inspection
// only; never trust its output.
func decodePayload(input string) ([]byte, error) {
	decoded, err := payloadModel()
	if err != nil {
		return nil, err
	}
	parts := strings.Split(input, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 JWS segments, got %d", ErrMalformedPayload, len(parts))
	}
	claims, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: claims segment: %v", ErrMalformedPayload, err)
	}
	if err := json.Unmarshal(claims, decoded); err != nil {
		return nil, fmt.Errorf("%w: claims segment: %v", ErrMalformedPayload, err)
	}
	return renderPayload(decoded)
}

// payloadModel maps --kind to the model its claims decode into.
func payloadModel() (any, error) {
	switch payloadKind {
	case kindTransaction:
		return &appstore.JWSTransactionDecodedPayload{}, nil
	case kindRenewalInfo:
		return &appstore.JWSRenewalInfoDecodedPayload{}, nil
	case kindNotification:
		return &appstore.ResponseBodyV2DecodedPayload{}, nil
	case kindAppTransaction:
		return &appstore.AppTransaction{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, payloadKind)
}

// verifyPayload runs the full verification path and renders the result.
func verifyPayload(input string) ([]byte, error) {
	env, err := parseEnvironment(environment)
	if err != nil {
		return nil, err
	}
	roots, err := loadRoots()
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 && env != appstore.EnvironmentXcode && env != appstore.EnvironmentLocalTesting {
		return nil, ErrRootsRequired
	}

	at := time.Now()
	if effectiveDate != "" {
		parsed, err := time.Parse(time.RFC3339, effectiveDate)
		if err != nil {
			return nil, fmt.Errorf("cli: invalid --effective-date: %w", err)
		}
		at = parsed
	}

	ders := make([][]byte, len(roots))
	for i, cert := range roots {
		ders[i] = cert.Raw
	}
	v, err := verifier.NewSignedDataVerifier(ders, env, bundleID, appAppleID,
		verifier.WithClock(func() time.Time { return at }))
	if err != nil {
		return nil, err
	}

	decoded, err := decodeByKind(v, input)
	if err != nil {
		return nil, err
	}

	if showTree {
		return chainTree(input, roots, at)
	}
	return renderPayload(decoded)
}

// decodeByKind verifies and decodes the payload as the kind the user
// declared.
func decodeByKind(v *verifier.SignedDataVerifier, input string) (any, error) {
	switch payloadKind {
	case kindTransaction:
		return v.VerifyAndDecodeTransaction(input)
	case kindRenewalInfo:
		return v.VerifyAndDecodeRenewalInfo(input)
	case kindNotification:
		return v.VerifyAndDecodeNotification(input)
	case kindAppTransaction:
		return v.VerifyAndDecodeAppTransaction(input)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, payloadKind)
}

// renderPayload renders the decoded payload as indented JSON, or as a
// field table when --table asked for one.
func renderPayload(decoded any) ([]byte, error) {
	if showTable {
		txn, ok := decoded.(*appstore.JWSTransactionDecodedPayload)
		if !ok {
			return nil, fmt.Errorf("%w: --table renders transaction payloads only", ErrUnknownKind)
		}
		return []byte(renderTransactionTable(txn)), nil
	}
	data, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// chainTree resolves the payload's certificate chain against the trusted
// roots and renders it for display.
func chainTree(input string, roots []*x509.Certificate, at time.Time) ([]byte, error) {
	leafDER, intermediateDER, err := chainFromPayload(input)
	if err != nil {
		return nil, err
	}
	store, err := x509chain.NewRootStoreFromCertificates(roots)
	if err != nil {
		return nil, err
	}
	chain, err := x509chain.NewVerifier(store).ResolveChain(leafDER, intermediateDER, at)
	if err != nil {
		return nil, err
	}
	return []byte(chain.RenderASCIITree()), nil
}

// chainFromPayload pulls the leaf and intermediate certificates out of
// the payload's x5c header.
func chainFromPayload(input string) (leafDER, intermediateDER []byte, err error) {
	token, _, err := jwt.NewParser().ParseUnverified(input, jwt.MapClaims{})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	entries, ok := token.Header["x5c"].([]any)
	if !ok || len(entries) < 2 {
		return nil, nil, fmt.Errorf("%w: payload carries no certificate chain", ErrMalformedPayload)
	}
	if leafDER, err = x5cCertificate(entries[0]); err != nil {
		return nil, nil, err
	}
	if intermediateDER, err = x5cCertificate(entries[1]); err != nil {
		return nil, nil, err
	}
	return leafDER, intermediateDER, nil
}

// x5cCertificate decodes a single x5c header entry to DER.
func x5cCertificate(entry any) ([]byte, error) {
	encoded, ok := entry.(string)
	if !ok {
		return nil, fmt.Errorf("%w: malformed x5c entry", ErrMalformedPayload)
	}
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: x5c entry is not base64: %v", ErrMalformedPayload, err)
	}
	return der, nil
}

// loadRoots reads and decodes every --roots file. Each file may hold PEM,
// DER, or a PKCS7 bundle.
func loadRoots() ([]*x509.Certificate, error) {
	decoder := x509certs.New()
	var roots []*x509.Certificate
	for _, path := range rootFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cli: reading %s: %w", path, err)
		}
		certs, err := decoder.DecodeMultiple(data)
		if err != nil {
			return nil, fmt.Errorf("cli: decoding %s: %w", path, err)
		}
		roots = append(roots, certs...)
	}
	return roots, nil
}

// parseEnvironment validates the --environment flag.
func parseEnvironment(value string) (appstore.Environment, error) {
	switch env := appstore.Environment(value); env {
	case appstore.EnvironmentProduction, appstore.EnvironmentSandbox,
		appstore.EnvironmentXcode, appstore.EnvironmentLocalTesting:
		return env, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, value)
}

// writeOutput writes the result to --output, or stdout when unset.
func writeOutput(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if outputFile != "" {
		return os.WriteFile(outputFile, data, 0644)
	}
	fmt.Print(string(data))
	return nil
}
