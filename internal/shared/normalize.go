package shared

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxFileNameBytes = 180

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

var (
	bracketPattern   = regexp.MustCompile(`\s*[\(\[\{][^\)\]\}]*[\)\]\}]`)
	featuringPattern = regexp.MustCompile(`(?i)\s+(?:feat\.?|ft\.?|featuring)\s.*$`)
	artistSeparator  = regexp.MustCompile(`(?i)\s*(?:,|&|\bfeat\.?\s|\bft\.?\s|\bfeaturing\s)`)
)

// searchStopwords are words that describe the upload rather than the recording.
var searchStopwords = map[string]struct{}{
	"official":   {},
	"video":      {},
	"audio":      {},
	"lyrics":     {},
	"lyric":      {},
	"hd":         {},
	"hq":         {},
	"4k":         {},
	"mv":         {},
	"visualizer": {},
	"visualiser": {},
	"topic":      {},
	"remastered": {},
}

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters and control characters are removed. Runs of whitespace collapse
// to a single space and trailing dots are dropped.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = fileNameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")
	name = strings.TrimRight(name, ". ")
	return truncateBytes(name, maxFileNameBytes)
}

// SanitizeFolderName keeps letters, digits, spaces, underscores and hyphens.
func SanitizeFolderName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == ' ', r == '_', r == '-':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, name)
	name = strings.Join(strings.Fields(name), " ")
	return truncateBytes(name, maxFileNameBytes)
}

// TrackFileName returns "<ordinal> <title>.<ext>" with the ordinal zero-padded to two digits.
// Ordinals past 99 are written in full; total does not widen the padding.
func TrackFileName(ordinal, total int, title, ext string) string {
	name := SanitizeFileName(title)
	if name == "" {
		name = "track"
	}
	return fmt.Sprintf("%02d %s.%s", ordinal, name, strings.TrimPrefix(ext, "."))
}

// SidecarPath returns path with its extension replaced by ext.
func SidecarPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + strings.TrimPrefix(ext, ".")
}

// PrimaryArtist returns the text before the first comma, ampersand or featuring marker.
// Auto-generated " - Topic" channel suffixes are removed.
func PrimaryArtist(artist string) string {
	artist = strings.TrimSpace(artist)
	artist = strings.TrimSpace(strings.TrimSuffix(artist, " - Topic"))

	if loc := artistSeparator.FindStringIndex(artist); loc != nil && loc[0] > 0 {
		if primary := strings.TrimSpace(artist[:loc[0]]); primary != "" {
			return primary
		}
	}
	return artist
}

// CleanTitle strips bracketed annotations, featuring credits and an "Artist - " prefix
// matching artist from an upload title.
func CleanTitle(title, artist string) string {
	title = bracketPattern.ReplaceAllString(title, "")
	title = featuringPattern.ReplaceAllString(title, "")

	if before, after, ok := strings.Cut(title, " - "); ok && artist != "" {
		if FoldText(before) == FoldText(artist) || FoldText(before) == FoldText(PrimaryArtist(artist)) {
			title = after
		}
	}

	title = strings.Join(strings.Fields(title), " ")
	return strings.Trim(title, " -")
}

// CleanSearchQuery builds a lookup query from the given parts: bracketed text and
// featuring credits are removed, text is folded and stopwords are dropped.
func CleanSearchQuery(parts ...string) string {
	var words []string
	for _, part := range parts {
		part = bracketPattern.ReplaceAllString(part, "")
		part = featuringPattern.ReplaceAllString(part, "")
		for _, w := range strings.Fields(FoldText(part)) {
			if _, stop := searchStopwords[w]; stop {
				continue
			}
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// StripStopwords removes bracketed text, featuring credits and search stopwords from s,
// keeping the remaining words as written.
func StripStopwords(s string) string {
	s = bracketPattern.ReplaceAllString(s, "")
	s = featuringPattern.ReplaceAllString(s, "")

	var words []string
	for _, w := range strings.Fields(s) {
		if _, stop := searchStopwords[strings.TrimSpace(FoldText(w))]; stop {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

// FoldText lowercases s, strips diacritics, replaces punctuation other than
// apostrophes with spaces and collapses whitespace.
func FoldText(s string) string {
	s = stripMarks(s)
	s = cases.Lower(language.Und).String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'':
			return r
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTrackKey builds a cache key from a title and artist.
func NormalizeTrackKey(title, artist string) string {
	lower := cases.Lower(language.Und)
	t := strings.Join(strings.Fields(lower.String(title)), " ")
	a := strings.Join(strings.Fields(lower.String(artist)), " ")
	return t + "|" + a
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}
