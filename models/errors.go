package models

import "errors"

var (
	// ErrRequestRejected marks a request refused before streaming began because
	// its configuration (model, tools, reasoning hint) is not accepted.
	ErrRequestRejected = errors.New("request rejected")
	// ErrRequestFailed marks any other non-success response from the API.
	ErrRequestFailed = errors.New("API request failed")
)
