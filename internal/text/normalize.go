package text

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	emojiPattern = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F700}-\x{1F77F}\x{1F780}-\x{1F7FF}\x{1F800}-\x{1F8FF}\x{1F900}-\x{1F9FF}\x{1FA00}-\x{1FA6F}\x{1FA70}-\x{1FAFF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}\x{1F1E6}-\x{1F1FF}]+`)

	diacriticsPattern = regexp.MustCompile(`[\x{0302}\x{0303}\x{0304}\x{0305}\x{0306}\x{0307}\x{0308}\x{030A}\x{030B}\x{030C}\x{0327}\x{0328}\x{0329}\x{032A}\x{032B}\x{032C}\x{032D}\x{032E}\x{032F}]`)

	spaceBeforePunct = regexp.MustCompile(` ([,.!?;:'])`)

	whitespaceRun = regexp.MustCompile(`\s+`)

	endsWithPunct = regexp.MustCompile(`[.!?;:,'"\x{201C}\x{201D}\x{2018}\x{2019})\]}…。」』】〉》›»]$`)
)

// replacements is applied in order; dash variants collapse to ASCII hyphen,
// smart quotes to straight quotes, and structural symbols to spaces.
var replacements = [...][2]string{
	{"–", "-"}, // en dash
	{"‑", "-"}, // non-breaking hyphen
	{"—", "-"}, // em dash
	{"¯", " "}, // macron
	{"_", " "}, // underscore
	{"“", `"`},
	{"”", `"`},
	{"‘", "'"},
	{"’", "'"},
	{"´", "'"}, // acute accent
	{"`", "'"}, // grave accent
	{"[", " "},
	{"]", " "},
	{"|", " "},
	{"/", " "},
	{"#", " "},
	{"→", " "},
	{"←", " "},
}

var specialSymbols = [...]string{"♥", "☆", "♡", "©", `\`}

var exprReplacements = [...][2]string{
	{"@", " at "},
	{"e.g.,", "for example, "},
	{"i.e.,", "that is, "},
}

// Normalize canonicalizes raw input text for synthesis: NFKD decomposition,
// emoji and decorative-symbol removal, punctuation and whitespace repair, and
// a trailing period when no terminal punctuation is present. Empty or
// whitespace-only input normalizes to the empty string.
//
// The transform is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = norm.NFKD.String(s)

	s = emojiPattern.ReplaceAllString(s, "")

	for _, r := range replacements {
		s = strings.ReplaceAll(s, r[0], r[1])
	}

	s = diacriticsPattern.ReplaceAllString(s, "")

	for _, sym := range specialSymbols {
		s = strings.ReplaceAll(s, sym, "")
	}

	for _, r := range exprReplacements {
		s = strings.ReplaceAll(s, r[0], r[1])
	}

	s = spaceBeforePunct.ReplaceAllString(s, "$1")

	// Collapse duplicated quote characters until a fixed point.
	for strings.Contains(s, `""`) {
		s = strings.ReplaceAll(s, `""`, `"`)
	}
	for strings.Contains(s, "''") {
		s = strings.ReplaceAll(s, "''", "'")
	}

	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if s != "" && !endsWithPunct.MatchString(s) {
		s += "."
	}

	return s
}
