package common

import (
	"context"
	"io"
)

// RowProvider streams the records of one delimited source.
type RowProvider interface {
	// Delimiter returns the field delimiter in effect (detected or overridden).
	Delimiter() rune
	// Encoding returns the canonical name of the decoding applied to the source.
	Encoding() string
	// ScanRows iterates over rows in file order.
	// It calls the yield function for each row; the slice is only valid during the call.
	// If yield returns an error, iteration stops and that error is returned.
	ScanRows(ctx context.Context, yield func(row []string) error) error
}

// Driver defines the interface that must be implemented by a converter package.
type Driver interface {
	// Open returns a new RowProvider for the given input.
	Open(source io.Reader, config *ConversionConfig) (RowProvider, error)
}
