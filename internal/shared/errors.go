package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingAPIKey = fmt.Errorf("missing provider api key")

	// Provider gateway errors
	ErrInvalidRequestKind = fmt.Errorf("invalid request kind")
	ErrInvalidParameter   = fmt.Errorf("invalid parameter")
	ErrUpstream           = fmt.Errorf("upstream request failed")

	// Ingestion errors
	ErrMalformedPayload = fmt.Errorf("malformed provider payload")
	ErrMalformedRecord  = fmt.Errorf("malformed provider record")

	// Persistence and web errors
	ErrNotFound      = fmt.Errorf("not found")
	ErrAlreadyExists = fmt.Errorf("already exists")
	ErrInvalidInput  = fmt.Errorf("invalid input")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
