package common

const (
	// DefaultSampleSize is the number of decoded bytes inspected for delimiter detection.
	DefaultSampleSize = 4096
	// MaxSampleSize bounds the sample to the reader buffer size.
	MaxSampleSize = 65536
	// DefaultEncoding decodes UTF-8 and strips a leading byte-order mark.
	DefaultEncoding = "utf-8-sig"
)

// ConversionConfig stores configuration options for the conversion process.
type ConversionConfig struct {
	Delimiter  rune   // Delimiter override; zero means detect
	Encoding   string // Text encoding label of the input files
	SampleSize int    // Bytes peeked for delimiter detection
}

// WithDefaults returns a copy of c with empty fields filled in.
func (c *ConversionConfig) WithDefaults() ConversionConfig {
	var out ConversionConfig
	if c != nil {
		out = *c
	}
	if out.Encoding == "" {
		out.Encoding = DefaultEncoding
	}
	if out.SampleSize <= 0 {
		out.SampleSize = DefaultSampleSize
	}
	if out.SampleSize > MaxSampleSize {
		out.SampleSize = MaxSampleSize
	}
	return out
}
