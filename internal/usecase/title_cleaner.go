package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gameshelf/backend/internal/logger"
)

// TitleCleaner normalizes OCR labels before they are used as catalog queries
// and recognizes labels that cannot name a game
type TitleCleaner struct {
	enableDebugLogging bool
}

// Compiled regex patterns for label cleaning
var (
	// Box furniture like "2-4", "10+", "30-60", "ages 8+", "45 min"
	boxNumberPattern = regexp.MustCompile(`(?i)^\d+\s*([-–+]\s*\d*\+?)?\s*(min|mins|minutes|players?|yrs|years)?$|^(?i:ages?)\s*\d+\+?$`)

	orphanedPunctuationPattern = regexp.MustCompile(`\s+[,\-;:|•]+\s+`)
	edgePunctuationPattern     = regexp.MustCompile(`^[\s,\-;:|•"'.]+|[\s,\-;:|•"']+$`)
	multiSpacePattern          = regexp.MustCompile(`\s+`)
)

// boxNoiseWords are words printed on box spines that never form a title alone
var boxNoiseWords = map[string]bool{
	"the":        true,
	"a":          true,
	"an":         true,
	"and":        true,
	"of":         true,
	"game":       true,
	"games":      true,
	"board":      true,
	"edition":    true,
	"deluxe":     true,
	"expansion":  true,
	"players":    true,
	"player":     true,
	"ages":       true,
	"age":        true,
	"min":        true,
	"mins":       true,
	"minutes":    true,
	"new":        true,
	"family":     true,
	"strategy":   true,
	"card":       true,
	"cards":      true,
	"dice":       true,
	"by":         true,
	"for":        true,
	"with":       true,
	"from":       true,
	"contents":   true,
	"warning":    true,
	"choking":    true,
	"hazard":     true,
	"small":      true,
	"parts":      true,
	"made":       true,
	"in":         true,
	"china":      true,
	"germany":    true,
	"ce":         true,
	"tm":         true,
	"®":          true,
	"©":          true,
	"bestseller": true,
}

// maxQueryLength keeps queries short enough for the catalog search endpoint
const maxQueryLength = 100

// NewTitleCleaner creates a new title cleaner
func NewTitleCleaner(enableDebugLogging bool) *TitleCleaner {
	return &TitleCleaner{
		enableDebugLogging: enableDebugLogging,
	}
}

// Clean collapses whitespace, drops stray punctuation and caps the length
func (c *TitleCleaner) Clean(label string) string {
	original := label

	cleaned := orphanedPunctuationPattern.ReplaceAllString(label, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = edgePunctuationPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > maxQueryLength {
		cleaned = cleaned[:maxQueryLength]
		// Cut at a word boundary when one is reasonably close
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
		for !utf8.ValidString(cleaned) {
			cleaned = cleaned[:len(cleaned)-1]
		}
	}

	if c.enableDebugLogging {
		logger.Component("matcher").Debug().Str("input", original).Str("output", cleaned).Msg("label cleaned")
	}

	return cleaned
}

// IsNoise reports whether a label cannot name a game on its own: empty,
// a single character, box furniture such as "2-4" or "10+", or only
// spine words like "THE" and "EDITION"
func (c *TitleCleaner) IsNoise(label string) bool {
	cleaned := c.Clean(label)
	if utf8.RuneCountInString(cleaned) <= 1 {
		return true
	}
	if boxNumberPattern.MatchString(cleaned) {
		return true
	}

	for _, word := range strings.Fields(strings.ToLower(cleaned)) {
		word = strings.Trim(word, ",.!?;:-'\"")
		if word == "" || boxNoiseWords[word] || isNumeric(word) {
			continue
		}
		return false
	}
	return true
}

// isNumeric checks if a string contains only digits, '+' or '-'
func isNumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '+' && r != '-' {
			return false
		}
	}
	return true
}
