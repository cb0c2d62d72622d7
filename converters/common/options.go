package common

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// minConsistency is the share of sampled records that must agree on a
// delimiter count before the delimiter is trusted.
const minConsistency = 0.9

var delimiters = []rune{',', ';', '\t', '|'}

type delimiterScore struct {
	consistency float64
	fields      int
}

func (s delimiterScore) better(o delimiterScore) bool {
	if s.consistency != o.consistency {
		return s.consistency > o.consistency
	}
	return s.fields > o.fields
}

// DetectDelimiter returns the field delimiter for sample.
// A non-zero override is returned as is. Otherwise every candidate is counted
// per record (outside quotes) and the candidate whose count is the most
// consistent across records wins; more fields breaks a tie. Ambiguous or
// single-column samples fall back to comma.
func DetectDelimiter(sample string, override rune) rune {
	if override != 0 {
		return override
	}

	records := splitRecords(sample)
	if len(records) == 0 {
		return ','
	}

	winner := ','
	var best delimiterScore
	tied := false
	for _, delim := range delimiters {
		score, ok := scoreDelimiter(records, delim)
		if !ok {
			continue
		}
		switch {
		case score.better(best):
			best = score
			winner = delim
			tied = false
		case !best.better(score):
			tied = true
		}
	}
	if tied {
		return ','
	}
	return winner
}

// scoreDelimiter finds the most common per-record count of delim and the
// share of records that have exactly that count.
func scoreDelimiter(records []string, delim rune) (delimiterScore, bool) {
	freq := make(map[int]int)
	for _, rec := range records {
		freq[countOutsideQuotes(rec, delim)]++
	}

	mode, modeFreq := 0, 0
	for count, n := range freq {
		if n > modeFreq || (n == modeFreq && count > mode) {
			mode, modeFreq = count, n
		}
	}
	if mode == 0 {
		return delimiterScore{}, false
	}

	consistency := float64(modeFreq) / float64(len(records))
	if consistency < minConsistency {
		return delimiterScore{}, false
	}
	return delimiterScore{consistency: consistency, fields: mode + 1}, true
}

// splitRecords splits sample on newlines that are not inside a quoted field.
// Blank records are dropped.
func splitRecords(sample string) []string {
	var records []string
	inQuotes := false
	start := 0
	emit := func(end int) {
		rec := strings.TrimSuffix(sample[start:end], "\r")
		if strings.TrimSpace(rec) != "" {
			records = append(records, rec)
		}
	}
	for i, r := range sample {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case '\n':
			if !inQuotes {
				emit(i)
				start = i + 1
			}
		}
	}
	if start < len(sample) {
		emit(len(sample))
	}
	return records
}

func countOutsideQuotes(record string, delim rune) int {
	count := 0
	inQuotes := false
	for _, r := range record {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			count++
		}
	}
	return count
}

// ParseDelimiter converts a user-supplied delimiter into a rune.
// The empty string means auto-detect and yields zero. "\t" (escaped or
// literal) and "tab" select a tab.
func ParseDelimiter(s string) (rune, error) {
	switch {
	case s == "":
		return 0, nil
	case s == "\t", strings.EqualFold(s, `\t`), strings.EqualFold(s, "tab"):
		return '\t', nil
	}

	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	if r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}

// TrimPartialRecord drops everything after the last newline of a sample that
// was cut at the sample size, so a half-read record does not skew detection.
func TrimPartialRecord(sample string) string {
	if idx := strings.LastIndexByte(sample, '\n'); idx != -1 {
		return sample[:idx+1]
	}
	return sample
}
