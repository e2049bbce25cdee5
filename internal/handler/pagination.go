package handler

import (
	"net/http"
	"strconv"
)

// parseLimit reads the limit query parameter. Missing or non-positive values
// give def; values above max are clamped.
func parseLimit(r *http.Request, def, max int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
