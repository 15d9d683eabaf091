package utils

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryInt safely parses an integer from query parameters.
// If missing or invalid, returns the provided default.
func QueryInt(q url.Values, key string, def int) int {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// QueryString returns the trimmed value of key.
func QueryString(q url.Values, key string) string {
	return strings.TrimSpace(q.Get(key))
}
