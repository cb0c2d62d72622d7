// Package textenc resolves encoding labels and wraps readers so that input
// files are decoded to UTF-8 before they reach the CSV parser.
package textenc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// UTF8SIG decodes UTF-8 and drops a leading byte-order mark.
	UTF8SIG = "utf-8-sig"
	// Auto sniffs the charset from the first bytes of each file.
	Auto = "auto"

	fallbackCharset = "utf-8"
	sniffSize       = 4096
)

// ErrUnknownEncoding is returned for labels that do not name a supported encoding.
var ErrUnknownEncoding = errors.New("unknown encoding")

// Lookup validates label and returns its canonical name.
func Lookup(label string) (string, error) {
	switch normalize(label) {
	case "", UTF8SIG, "utf8-sig":
		return UTF8SIG, nil
	case Auto:
		return Auto, nil
	}
	enc, name := charset.Lookup(label)
	if enc == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	return name, nil
}

// NewReader wraps r in a decoder for label. It returns the canonical name of
// the encoding actually applied; for Auto that is the detected charset.
func NewReader(r io.Reader, label string) (io.Reader, string, error) {
	switch normalize(label) {
	case "", UTF8SIG, "utf8-sig":
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), UTF8SIG, nil
	case Auto:
		return detect(r)
	}

	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	return transform.NewReader(r, enc.NewDecoder()), name, nil
}

// detect peeks at the raw bytes, asks chardet for the most likely charset and
// decodes with it. A Unicode byte-order mark, when present, wins over the guess.
func detect(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffSize)
	peek, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, "", fmt.Errorf("failed to read encoding sample: %w", err)
	}

	label := fallbackCharset
	if len(peek) > 0 {
		if res, err := chardet.NewTextDetector().DetectBest(peek); err == nil && res != nil {
			label = res.Charset
		}
	}

	var enc encoding.Encoding
	enc, name := charset.Lookup(label)
	if enc == nil {
		enc, name = unicode.UTF8, fallbackCharset
	}
	return transform.NewReader(br, unicode.BOMOverride(enc.NewDecoder())), name, nil
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
