// Package util provides common utility functions.
package util

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)
	multipleDashRe    = regexp.MustCompile(`-+`)
)

// maxSlugLength keeps slugs readable in URLs.
const maxSlugLength = 80

// Slugify converts a game title to a URL-safe slug.
//
//	"The Legend of Zelda: Breath of the Wild" → "the-legend-of-zelda-breath-of-the-wild"
//	"Pokémon Red"                             → "pokemon-red"
//	"  Half-Life 2 "                          → "half-life-2"
func Slugify(s string) string {
	// Decompose accents so "é" becomes "e" plus a combining mark we drop.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumericRe.ReplaceAllString(s, "-")
	s = multipleDashRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}

// SlugWithSuffix appends "-n" for disambiguation when n > 1.
func SlugWithSuffix(slug string, n int) string {
	if n <= 1 {
		return slug
	}
	return slug + "-" + strconv.Itoa(n)
}
