package models

import (
	"fmt"
	"time"
)

// ScheduledEvent asks for one future recompute of an asset's bias.
type ScheduledEvent struct {
	Asset  Asset     `json:"asset"`
	At     time.Time `json:"at"`
	Reason string    `json:"reason"`
}

// Validate rejects malformed events synchronously; the schedule is left
// unchanged when an error is returned.
func (e *ScheduledEvent) Validate(now time.Time) error {
	if !KnownAsset(e.Asset) {
		return fmt.Errorf("scheduled event: unknown asset %q", e.Asset)
	}
	if e.Reason == "" {
		return fmt.Errorf("scheduled event: reason is required")
	}
	if !e.At.After(now) {
		return fmt.Errorf("scheduled event: trigger time %s is not in the future", e.At.Format(time.RFC3339))
	}
	return nil
}
