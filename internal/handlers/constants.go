package handlers

import "time"

const (
	// AdminTokenHeader carries the teacher dashboard's shared secret
	AdminTokenHeader = "X-Admin-Token"

	// auth and reset routes: 10 tries per minute per IP
	authRateCount  = 10
	authRateWindow = time.Minute

	// exercise runs: 120 per minute per IP
	runRateCount  = 120
	runRateWindow = time.Minute

	limiterCleanupInterval = 5 * time.Minute

	maxSuggestions = 10
)
