package csv

import (
	"strings"
	"testing"

	"github.com/darianmavgo/mkxlsx/converters/common"
)

func TestCSVDelimiterDetection(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected rune
		cols     int
	}{
		{
			name:     "Comma",
			content:  "col1,col2,col3\nval1,val2,val3",
			expected: ',',
			cols:     3,
		},
		{
			name:     "Tab",
			content:  "col1\tcol2\tcol3\nval1\tval2\tval3",
			expected: '\t',
			cols:     3,
		},
		{
			name:     "Pipe",
			content:  "col1|col2|col3\nval1|val2|val3",
			expected: '|',
			cols:     3,
		},
		{
			name:     "Semicolon",
			content:  "col1;col2;col3\nval1;val2;val3",
			expected: ';',
			cols:     3,
		},
		{
			name:     "SingleColumn",
			content:  "only\none\ncolumn",
			expected: ',',
			cols:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := strings.NewReader(tt.content)
			c, err := NewCSVConverter(r)
			if err != nil {
				t.Fatalf("Failed to create converter: %v", err)
			}

			if c.Delimiter() != tt.expected {
				t.Errorf("Detected delimiter %q, want %q", c.Delimiter(), tt.expected)
			}

			rows := collect(t, c)
			if len(rows) == 0 || len(rows[0]) != tt.cols {
				t.Errorf("Detected %v, want %d columns", rows, tt.cols)
			}
		})
	}
}

func TestCSVDelimiterOverride(t *testing.T) {
	// semicolons everywhere, but the caller insists on pipes
	content := "a;b|c\nd;e|f\n"
	c, err := NewCSVConverterWithConfig(strings.NewReader(content), &common.ConversionConfig{Delimiter: '|'})
	if err != nil {
		t.Fatalf("Failed to create converter: %v", err)
	}
	if c.Delimiter() != '|' {
		t.Fatalf("Delimiter = %q, want '|'", c.Delimiter())
	}
	rows := collect(t, c)
	if len(rows) != 2 || rows[0][0] != "a;b" || rows[1][1] != "f" {
		t.Errorf("unexpected rows %q", rows)
	}
}

func TestCSVDetectionUsesBoundedSample(t *testing.T) {
	// The first records are semicolon separated; past the sample the file
	// switches to pipes, which must not influence detection.
	var b strings.Builder
	for b.Len() < 200 {
		b.WriteString("x;y\n")
	}
	for i := 0; i < 500; i++ {
		b.WriteString("p|q|r|s\n")
	}

	c, err := NewCSVConverterWithConfig(strings.NewReader(b.String()), &common.ConversionConfig{SampleSize: 64})
	if err != nil {
		t.Fatalf("Failed to create converter: %v", err)
	}
	if c.Delimiter() != ';' {
		t.Errorf("Delimiter = %q, want ';'", c.Delimiter())
	}
}

func TestTSVDriverDefaultsToTab(t *testing.T) {
	d := &csvDriver{defaultDelimiter: '\t'}
	p, err := d.Open(strings.NewReader("a,b\tc\n"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if p.Delimiter() != '\t' {
		t.Errorf("Delimiter = %q, want tab", p.Delimiter())
	}

	p, err = d.Open(strings.NewReader("a,b\tc\n"), &common.ConversionConfig{Delimiter: ','})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if p.Delimiter() != ',' {
		t.Errorf("override ignored, Delimiter = %q", p.Delimiter())
	}
}
