package orchestrator

import "fmt"

// AdapterError wraps a failure returned (or panicked) by a partner adapter.
type AdapterError struct {
	AppID     string
	PartnerID string
	Err       error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s for app %s: %v", e.PartnerID, e.AppID, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// CursorWriteError is returned when ingestion succeeded but the new cursor
// could not be saved. The next cycle re-fetches the same window and
// ingestion deduplicates it.
type CursorWriteError struct {
	AppID     string
	PartnerID string
	Err       error
}

func (e *CursorWriteError) Error() string {
	return fmt.Sprintf("save cursor %s:%s: %v", e.AppID, e.PartnerID, e.Err)
}

func (e *CursorWriteError) Unwrap() error {
	return e.Err
}
