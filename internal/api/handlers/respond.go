package handlers

import (
	"errors"
	"net/http"

	"shipsync/internal/services/shopify"
	"shipsync/internal/shipping"

	"github.com/gin-gonic/gin"
)

// productsUpdateResponse is the boundary policy of the products/update
// webhook: the status is always 200 so the platform never redelivers.
func productsUpdateResponse(out *shipping.Outcome, err error) (int, gin.H) {
	if err != nil {
		return http.StatusOK, gin.H{"ok": false, "error": err.Error()}
	}
	switch {
	case out.NoVariants:
		return http.StatusOK, gin.H{"ok": true, "noVariantsAfterFetch": true}
	case out.Excluded:
		return http.StatusOK, gin.H{"ok": true, "excluded": true, "handle": out.Handle}
	}

	body := gin.H{
		"ok":           true,
		"handle":       out.Handle,
		"rebajasCount": out.RebajasCount,
		"generalCount": out.GeneralCount,
	}
	if out.Result != nil && !out.Result.OK() {
		body["ok"] = false
		body["error"] = out.Result.Err().Error()
		body["failures"] = out.Result.Failures()
	}
	return http.StatusOK, body
}

// assignProfileResponse maps a single-variant assignment onto the status
// codes Shopify Flow expects.
func assignProfileResponse(out *shipping.AssignOutcome, err error) (int, gin.H) {
	var userErr *shopify.UserErrorsError
	var gqlErr *shopify.GraphQLError
	switch {
	case err == nil && out.Skipped:
		return http.StatusOK, gin.H{"ok": true, "skipped": true, "reason": "excluded_by_handle", "handle": out.Handle}
	case err == nil:
		return http.StatusOK, gin.H{"ok": true, "handle": out.Handle}
	case errors.Is(err, shipping.ErrHandleNotFound):
		return http.StatusBadRequest, gin.H{"error": "Could not resolve product handle for variant"}
	case errors.As(err, &userErr):
		return http.StatusBadRequest, gin.H{"error": "UserErrors", "details": userErr.Errors}
	case errors.As(err, &gqlErr):
		return http.StatusInternalServerError, gin.H{"error": "GraphQL errors", "details": gqlErr.Message}
	default:
		return http.StatusInternalServerError, gin.H{"error": err.Error()}
	}
}

// upstreamStatus maps a user-facing Shopify call failure to a status code.
func upstreamStatus(err error) int {
	var userErr *shopify.UserErrorsError
	if errors.As(err, &userErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
