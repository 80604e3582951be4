package shopify

import (
	"errors"
	"fmt"
	"strings"
)

// HTTPStatusError is returned when the Admin API answers with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("API request failed: %d", e.StatusCode)
	}
	return fmt.Sprintf("API request failed: %d - %s", e.StatusCode, e.Body)
}

// GraphQLError is a top-level entry of a GraphQL "errors" array: the request
// reached the API but could not be executed as written.
type GraphQLError struct {
	Message string
}

func (e *GraphQLError) Error() string {
	return "shopify graphql error: " + e.Message
}

// UserErrorsError carries the userErrors of a mutation that did not apply.
type UserErrorsError struct {
	Action string
	Errors []UserError
}

func (e *UserErrorsError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		msg := strings.TrimSpace(ue.Message)
		if msg == "" {
			continue
		}
		if len(ue.Field) > 0 {
			msg = fmt.Sprintf("%s: %s", strings.Join(ue.Field, "."), msg)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("shopify %s failed with user errors", e.Action)
	}
	return fmt.Sprintf("shopify %s failed: %s", e.Action, strings.Join(parts, "; "))
}

// schemaMarkers are fragments of the validation messages the Admin API
// returns when a query does not fit the schema of the requested version.
var schemaMarkers = []string{
	"doesn't exist on type",
	"doesn't accept argument",
	"was provided invalid value",
	"isn't a defined input type",
	"missing required arguments",
	"is required, but it was not provided",
	"must have selections",
	"undefinedfield",
	"argumentnotaccepted",
	"missingrequiredarguments",
	"variablemismatch",
	"undefinedtype",
}

// IsSchemaError reports whether err means the query shape itself was
// rejected, as opposed to a transport failure or a business error.
func IsSchemaError(err error) bool {
	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) {
		return false
	}
	msg := strings.ToLower(gqlErr.Message)
	for _, marker := range schemaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func userErrorsToError(action string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	return &UserErrorsError{Action: action, Errors: errs}
}
