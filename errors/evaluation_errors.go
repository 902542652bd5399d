// api/errors/evaluation_errors.go
package errors

import "errors"

var (
	ErrInvalidAccessRequest = errors.New("invalid access request")
	ErrEvaluationTimeout    = errors.New("evaluation timed out")
	ErrInvalidTrustSignal   = errors.New("invalid trust signal")
)
