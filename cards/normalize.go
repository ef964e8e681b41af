package cards

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxTags        = 12
	MaxTagLength   = 40
	MaxImages      = 12
	MaxTitleLength = 160
)

// ImageMode selects which image references survive normalization.
type ImageMode int

const (
	// ImagesURL keeps only http(s) URLs (server storage).
	ImagesURL ImageMode = iota
	// ImagesEmbedded keeps entries as-is, typically data URIs (local storage).
	ImagesEmbedded
)

// NormalizeTags trims, drops empties, truncates each tag to MaxTagLength runes,
// dedupes keeping the first occurrence and caps the result at MaxTags.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = truncateRunes(strings.TrimSpace(tag), MaxTagLength)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

// NormalizeImages trims, drops empties (and non-http(s) entries in URL mode),
// dedupes and caps the result at MaxImages.
func NormalizeImages(images []string, mode ImageMode) []string {
	out := make([]string, 0, len(images))
	seen := make(map[string]struct{}, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if mode == ImagesURL && !isHTTPURL(img) {
			continue
		}
		if _, ok := seen[img]; ok {
			continue
		}
		seen[img] = struct{}{}
		out = append(out, img)
		if len(out) == MaxImages {
			break
		}
	}
	return out
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// truncateRunes cuts s to at most n runes and trims the whitespace a cut may expose.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
