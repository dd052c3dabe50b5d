package handlers

import (
	"net/http"
	"strconv"

	"pyquest/internal/service"
)

// ledgerFor returns the ledger of the profile RequireDevice put in the context
func ledgerFor(registry *service.LedgerRegistry, r *http.Request) *service.LedgerService {
	profileID, _ := ProfileFromContext(r.Context())
	return registry.For(profileID)
}

// queryInt reads an integer query parameter; a malformed value yields -1
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
