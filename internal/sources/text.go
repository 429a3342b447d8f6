// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// plainText strips HTML or JATS markup and collapses whitespace.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ContainsRune(s, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// leadingYear parses the first four characters of s as a year.
func leadingYear(s string) int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || y < 1000 {
		return 0
	}
	return y
}

// withinYears reports whether year satisfies the optional bounds. Unknown
// years pass; the filter engine decides what to do with them.
func withinYears(year, start, end int) bool {
	if year == 0 {
		return true
	}
	if start > 0 && year < start {
		return false
	}
	if end > 0 && year > end {
		return false
	}
	return true
}
