// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or use this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import "bytes"

// mockBuffer satisfies Buffer through a plain bytes.Buffer rather than a
// pooled one, so tests can hand Put an implementation it cannot recycle.
// bytes.Buffer already covers every method except Set and SetString.
type mockBuffer struct {
	*bytes.Buffer
}

func (m *mockBuffer) Set(p []byte) {
	m.Buffer.Reset()
	m.Buffer.Write(p)
}

func (m *mockBuffer) SetString(s string) {
	m.Buffer.Reset()
	m.Buffer.WriteString(s)
}

// failingReader returns its configured error on every Read call.
type failingReader struct {
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	return 0, f.err
}
