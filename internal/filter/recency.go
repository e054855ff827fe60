// Package filter holds the pure document filters applied by the crawl
// engine: recency (best available date signal vs a maximum age) and keyword
// relevance.
package filter

import (
	"regexp"
	"strconv"
	"time"
)

// Date patterns recognized inside URL paths, e.g. /2024/03/20/story and
// archive_2022_12_25_holiday.
var (
	slashDatePattern      = regexp.MustCompile(`/((?:19|20)\d{2})/(\d{1,2})/(\d{1,2})(?:/|$)`)
	underscoreDatePattern = regexp.MustCompile(`((?:19|20)\d{2})_(\d{2})_(\d{2})`)
)

// Fresh reports whether a document should be kept under the given maximum
// age. Signal precedence: the explicit published timestamp, else a date
// embedded in the URL, else unknown, which always passes. A document sitting
// exactly at the boundary (now - date == maxAge) is kept.
//
// Timestamps are compared in UTC; timezone-naive values are interpreted as
// UTC since the session clock runs in UTC.
func Fresh(publishedAt *time.Time, rawURL string, now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return true
	}

	date, ok := bestDate(publishedAt, rawURL)
	if !ok {
		return true
	}
	return now.UTC().Sub(date.UTC()) <= maxAge
}

func bestDate(publishedAt *time.Time, rawURL string) (time.Time, bool) {
	if publishedAt != nil && !publishedAt.IsZero() {
		return *publishedAt, true
	}
	return DateFromURL(rawURL)
}

// DateFromURL scans a URL for an embedded publication date. It recognizes
// /YYYY/MM/DD/ path segments and YYYY_MM_DD style tokens, and rejects
// impossible month or day values.
func DateFromURL(rawURL string) (time.Time, bool) {
	for _, pattern := range []*regexp.Regexp{slashDatePattern, underscoreDatePattern} {
		m := pattern.FindStringSubmatch(rawURL)
		if m == nil {
			continue
		}
		if date, ok := buildDate(m[1], m[2], m[3]); ok {
			return date, true
		}
	}
	return time.Time{}, false
}

// ParsePublished parses an explicit published-date string. It accepts RFC
// 3339 timestamps and the common timezone-naive ISO-8601 form; naive values
// are taken as UTC. Unparseable input yields no date, which the recency
// filter treats as unknown.
func ParsePublished(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func buildDate(year, month, day string) (time.Time, bool) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}
