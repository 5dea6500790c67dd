package repository

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultPageLimit = 50

// maxPageLimit mirrors the upstream page cap; the facade never serves a
// bigger page than the sync engine can fetch.
const maxPageLimit = 250

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return pages
}

func sortDirection(order string) int {
	if order == "asc" {
		return 1
	}
	return -1
}

// searchRegex builds a case-insensitive contains-match for user input.
func searchRegex(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

// newestSynced returns the most recent lastSynced stamp in a page.
func newestSynced(stamps []time.Time) *time.Time {
	var newest time.Time
	for _, s := range stamps {
		if s.After(newest) {
			newest = s
		}
	}
	if newest.IsZero() {
		return nil
	}
	return &newest
}

func distinctStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
