package csv

import (
	"context"
	"strings"
	"testing"
)

func BenchmarkScanRows(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 10000; i++ {
		sb.WriteString("1;\"Smith, John\";42.50;2024-01-01;x\n")
	}
	content := sb.String()

	b.SetBytes(int64(len(content)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c, err := NewCSVConverter(strings.NewReader(content))
		if err != nil {
			b.Fatal(err)
		}
		if err := c.ScanRows(context.Background(), func([]string) error { return nil }); err != nil {
			b.Fatal(err)
		}
	}
}
