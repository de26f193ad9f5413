// Package organize computes deterministic, collision-free output paths
// for rendered documents: filename sanitization, flat/monthly/yearly
// directory layout, and case-insensitive collision suffixing.
package organize

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Mode selects the output directory layout.
type Mode string

const (
	ModeFlat    Mode = "flat"
	ModeMonthly Mode = "monthly"
	ModeYearly  Mode = "yearly"
)

// ParseMode validates a mode string, defaulting to monthly.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFlat, ModeMonthly, ModeYearly:
		return Mode(s), nil
	case "":
		return ModeMonthly, nil
	default:
		return "", fmt.Errorf("unknown organize mode %q (flat, monthly, yearly)", s)
	}
}

// maxFilenameLength caps sanitized names; longer titles truncate.
const maxFilenameLength = 100

var (
	forbiddenChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
	// Keep unicode letters and digits so non-English titles survive.
	nonWordChars = regexp.MustCompile(`[^\p{L}\p{N}_\-.]`)
)

// SanitizeFilename turns a conversation title into a filesystem-safe
// name. Empty results fall back to "untitled".
func SanitizeFilename(title string) string {
	safe := forbiddenChars.ReplaceAllString(title, "")
	safe = whitespaceRuns.ReplaceAllString(strings.TrimSpace(safe), "_")
	safe = nonWordChars.ReplaceAllString(safe, "")
	safe = strings.Trim(safe, "._")
	if safe == "" {
		safe = "untitled"
	}
	if len(safe) > maxFilenameLength {
		// Truncate on a rune boundary so multibyte letters survive intact.
		cut := maxFilenameLength
		for cut > 0 && !utf8.RuneStart(safe[cut]) {
			cut--
		}
		safe = safe[:cut]
	}
	return safe
}

// ResolvePath computes the relative output path for a titled, dated
// document under the given mode. Undated documents in monthly/yearly
// modes land in a literal "undated" subdirectory.
func ResolvePath(title string, createdAt *time.Time, mode Mode, base string) string {
	name := SanitizeFilename(title) + ".md"

	if mode == ModeFlat {
		return path.Join(base, name)
	}

	subdir := "undated"
	if createdAt != nil {
		if mode == ModeMonthly {
			subdir = createdAt.UTC().Format("2006-01")
		} else {
			subdir = createdAt.UTC().Format("2006")
		}
	}
	return path.Join(base, subdir, name)
}

// Deduper resolves path collisions by appending an incrementing numeric
// suffix before the extension. Matching is case-insensitive so output
// stays safe on case-folding filesystems. Not safe for concurrent use;
// each conversion run owns one Deduper.
type Deduper struct {
	used map[string]int
}

// NewDeduper returns an empty collision tracker.
func NewDeduper() *Deduper {
	return &Deduper{used: make(map[string]int)}
}

// Claim registers a path and returns it, suffixed if already taken. The
// first claim of a name keeps it unsuffixed.
func (d *Deduper) Claim(p string) string {
	key := strings.ToLower(p)
	n, taken := d.used[key]
	if !taken {
		d.used[key] = 0
		return p
	}
	ext := path.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	for {
		n++
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if _, clash := d.used[strings.ToLower(candidate)]; clash {
			continue
		}
		d.used[key] = n
		d.used[strings.ToLower(candidate)] = 0
		return candidate
	}
}
