package domain

import "fmt"

// StatusError is a provider answer that carried a non-OK application status
// (Google Places "status", RapidAPI "status") after retries were exhausted.
type StatusError struct {
	Provider string
	Status   string
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %s", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: status %s: %s", e.Provider, e.Status, e.Message)
}
