package common

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxTitleLen is the worksheet title ceiling enforced by the xlsx format.
	MaxTitleLen = 31
	// DefaultPlaceholder replaces stems that sanitize to nothing.
	DefaultPlaceholder = "Sheet"

	illegalTitleChars = "[]:*?/\\'"
	defaultMaxSuffix  = 1_000_000
)

// ErrTitleExhausted is returned when no numeric suffix fits in the title budget.
var ErrTitleExhausted = errors.New("no unique worksheet title available")

// TitleRegistry holds the worksheet titles already handed out in one run.
// Membership uses Unicode case folding, the same equality excelize applies to
// sheet names, so "Data" and "data" (or "s" and "ſ") count as one title.
type TitleRegistry struct {
	used        map[string]struct{}
	titles      []string
	placeholder string
	maxSuffix   int
}

// NewTitleRegistry returns an empty registry. An empty placeholder selects DefaultPlaceholder.
func NewTitleRegistry(placeholder string) *TitleRegistry {
	p := SanitizeTitle(placeholder, DefaultPlaceholder)
	return &TitleRegistry{
		used:        make(map[string]struct{}),
		placeholder: p,
		maxSuffix:   defaultMaxSuffix,
	}
}

// SanitizeTitle strips illegal characters from stem, substitutes placeholder
// when nothing is left and truncates the result to MaxTitleLen runes.
func SanitizeTitle(stem, placeholder string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalTitleChars, r) {
			return -1
		}
		return r
	}, stem)
	name = strings.TrimSpace(name)
	if name == "" {
		name = placeholder
	}
	if name == "" {
		name = DefaultPlaceholder
	}
	return truncateRunes(name, MaxTitleLen)
}

// Assign derives a unique title from stem and records it.
// Collisions are resolved with a "_N" suffix, shortening the base so the
// result still fits in MaxTitleLen.
func (r *TitleRegistry) Assign(stem string) (string, error) {
	base := SanitizeTitle(stem, r.placeholder)
	candidate := base
	for n := 1; r.Contains(candidate); n++ {
		suffix := "_" + strconv.Itoa(n)
		room := MaxTitleLen - len(suffix)
		if n > r.maxSuffix || room < 1 {
			return "", ErrTitleExhausted
		}
		candidate = truncateRunes(base, room) + suffix
	}
	r.used[titleKey(candidate)] = struct{}{}
	r.titles = append(r.titles, candidate)
	return candidate, nil
}

// Contains reports whether title has been assigned.
func (r *TitleRegistry) Contains(title string) bool {
	_, ok := r.used[titleKey(title)]
	return ok
}

// Titles returns the assigned titles in assignment order.
func (r *TitleRegistry) Titles() []string {
	out := make([]string, len(r.titles))
	copy(out, r.titles)
	return out
}

// Len returns the number of assigned titles.
func (r *TitleRegistry) Len() int {
	return len(r.titles)
}

// titleKey maps every rune to the smallest member of its case-fold orbit,
// so two titles share a key exactly when strings.EqualFold reports them equal.
func titleKey(title string) string {
	return strings.Map(foldRune, title)
}

func foldRune(r rune) rune {
	lo := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < lo {
			lo = f
		}
	}
	return lo
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
