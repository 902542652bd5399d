// api/errors/policy_errors.go
package errors

import "errors"

var (
	ErrPolicyNotFound        = errors.New("policy not found")
	ErrPolicyConflict        = errors.New("policy conflict")
	ErrInvalidPolicyData     = errors.New("invalid policy data")
	ErrDatabaseOperation     = errors.New("database operation failed")
	ErrInternalServer        = errors.New("internal server error")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidPagination     = errors.New("invalid pagination parameters")
	ErrInvalidSearchCriteria = errors.New("invalid search criteria")
)
