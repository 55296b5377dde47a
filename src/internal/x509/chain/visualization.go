// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// RenderASCIITree renders the verified chain as an ASCII tree diagram.
//
// It displays the leaf, intermediate, and pinned root with visual connectors
// and a status indicator derived from the revocation statuses recorded at
// verification time.
//
// Returns:
//   - string: ASCII tree representation of the verified chain
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderASCIITree() string {
	certs := ch.Certificates()

	var result strings.Builder
	for i, cert := range certs {
		isLast := i == len(certs)-1

		// Certificate icon and connector
		connector := "├── "
		if isLast {
			connector = "└── "
		}

		// Status indicator
		statusIcon := "✓"
		switch ch.revocationStatusFor(i) {
		case "revoked":
			statusIcon = "✗"
		case "unknown":
			statusIcon = "?"
		}

		role := ch.certificateRole(i)
		certInfo := fmt.Sprintf("[%s] %s (%s)", statusIcon, cert.Subject.CommonName, role)

		result.WriteString(connector + certInfo + "\n")
	}

	return result.String()
}

// RenderTable renders the verified chain as a formatted markdown table.
//
// It displays certificate details including role, subject, issuer, validity
// dates, key size, and revocation status in a tabular format using
// tablewriter.
//
// Returns:
//   - string: Markdown table representation of the verified chain
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderTable() string {
	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	// Headers with emojis
	headers := []string{"🔢 #", "🏷️ Role", "📛 Subject", "🏢 Issuer", "📅 Valid Until", "🔐 Key Size", "✅ Status"}
	table.Header(headers)

	// Prepare rows
	var rows [][]string
	for i, cert := range ch.Certificates() {
		// Format key size
		keySize := "unknown"
		if rsaKey, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			keySize = fmt.Sprintf("%d-bit RSA", rsaKey.Size()*8)
		} else if ecdsaKey, ok := cert.PublicKey.(*ecdsa.PublicKey); ok {
			keySize = fmt.Sprintf("%d-bit ECDSA", ecdsaKey.Curve.Params().BitSize)
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			ch.certificateRole(i),
			cert.Subject.CommonName,
			cert.Issuer.CommonName,
			cert.NotAfter.Format("2006-01-02"),
			keySize,
			ch.revocationStatusFor(i),
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// ToVisualizationJSON converts the verified chain to structured JSON for
// external tools.
//
// It creates a comprehensive data structure including certificate details,
// hierarchical relationships, the effective date of the trust decision, and
// revocation statuses suitable for visualization tools or programmatic
// processing.
//
// Returns:
//   - []byte: JSON representation of the verified chain
//   - error: Error if JSON marshaling fails
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) ToVisualizationJSON() ([]byte, error) {
	type CertificateVizData struct {
		Index              int       `json:"index"`
		Role               string    `json:"role"`
		Subject            string    `json:"subject"`
		Issuer             string    `json:"issuer"`
		SerialNumber       string    `json:"serialNumber"`
		SignatureAlgorithm string    `json:"signatureAlgorithm"`
		PublicKeyAlgorithm string    `json:"publicKeyAlgorithm"`
		KeySize            int       `json:"keySize"`
		NotBefore          time.Time `json:"notBefore"`
		NotAfter           time.Time `json:"notAfter"`
		IsCA               bool      `json:"isCA"`
		SelfSigned         bool      `json:"selfSigned"`
		RevocationStatus   string    `json:"revocationStatus"`
	}

	type RelationshipData struct {
		FromIndex int    `json:"fromIndex"`
		ToIndex   int    `json:"toIndex"`
		Type      string `json:"type"`
	}

	type VisualizationData struct {
		Timestamp     string               `json:"timestamp"`
		EffectiveDate string               `json:"effectiveDate"`
		ChainLength   int                  `json:"chainLength"`
		Certificates  []CertificateVizData `json:"certificates"`
		Relationships []RelationshipData   `json:"relationships"`
	}

	certs := ch.Certificates()
	data := VisualizationData{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EffectiveDate: ch.EffectiveDate.UTC().Format(time.RFC3339),
		ChainLength:   len(certs),
		Certificates:  make([]CertificateVizData, len(certs)),
		Relationships: make([]RelationshipData, 0, len(certs)-1),
	}

	// Convert certificates
	for i, cert := range certs {
		keySize := 0
		pubKeyAlgo := "unknown"

		switch pubKey := cert.PublicKey.(type) {
		case *rsa.PublicKey:
			keySize = pubKey.Size() * 8
			pubKeyAlgo = "RSA"
		case *ecdsa.PublicKey:
			keySize = pubKey.Curve.Params().BitSize
			pubKeyAlgo = "ECDSA"
		}

		data.Certificates[i] = CertificateVizData{
			Index:              i,
			Role:               ch.certificateRole(i),
			Subject:            cert.Subject.CommonName,
			Issuer:             cert.Issuer.CommonName,
			SerialNumber:       cert.SerialNumber.String(),
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			PublicKeyAlgorithm: pubKeyAlgo,
			KeySize:            keySize,
			NotBefore:          cert.NotBefore,
			NotAfter:           cert.NotAfter,
			IsCA:               cert.IsCA,
			SelfSigned:         IsSelfSigned(cert),
			RevocationStatus:   ch.revocationStatusFor(i),
		}
	}

	// Build relationships (each cert is signed by the next one in chain)
	for i := 0; i < len(certs)-1; i++ {
		data.Relationships = append(data.Relationships, RelationshipData{
			FromIndex: i,
			ToIndex:   i + 1,
			Type:      "signed_by",
		})
	}

	return json.MarshalIndent(data, "", "  ")
}

// certificateRole names the fixed role at each chain position.
func (ch *Chain) certificateRole(index int) string {
	switch index {
	case 0:
		return "End-Entity (Leaf) Certificate"
	case 1:
		return "Intermediate CA Certificate"
	default:
		return "Pinned Root CA Certificate"
	}
}

// revocationStatusFor maps a chain position to its recorded revocation
// status. The root is the trust anchor itself and reports as pinned.
func (ch *Chain) revocationStatusFor(index int) string {
	switch index {
	case 0:
		return ch.LeafRevocation.String()
	case 1:
		return ch.IntermediateRevocation.String()
	default:
		return "pinned"
	}
}
