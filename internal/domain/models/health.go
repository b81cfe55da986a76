package models

import "time"

// ScrapingResult records the outcome of one upstream fetch attempt.
// Telemetry only; never consumed by scoring.
type ScrapingResult struct {
	Source    string    `json:"source"`
	Asset     Asset     `json:"asset"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// SystemHealth summarizes ingestion and scoring health for the status
// surface.
type SystemHealth struct {
	Submitted           int64                `json:"submitted"`
	Rejected            int64                `json:"rejected"`
	ValidationPassRate  float64              `json:"validation_pass_rate"`
	ScrapeSuccessRate   float64              `json:"scrape_success_rate"`
	LastSuccessBySource map[string]time.Time `json:"last_success_by_source"`
	RecentErrors        []string             `json:"recent_errors,omitempty"`
	Uptime              time.Duration        `json:"uptime_ns"`
}

// SchedulerState is one asset's recompute state as exposed by the status
// surface.
type SchedulerState string

const (
	StateIdle    SchedulerState = "IDLE"
	StatePending SchedulerState = "PENDING"
	StateRunning SchedulerState = "RUNNING"
)

// LifecycleState is the orchestrator's coarse stage.
type LifecycleState string

const (
	LifecycleUninitialized LifecycleState = "UNINITIALIZED"
	LifecycleInitialized   LifecycleState = "INITIALIZED"
	LifecycleStarted       LifecycleState = "STARTED"
	LifecycleStopped       LifecycleState = "STOPPED"
	LifecycleClosed        LifecycleState = "CLOSED"
)

// ServiceStatus is the full status-report payload.
type ServiceStatus struct {
	Lifecycle LifecycleState           `json:"lifecycle"`
	Assets    map[Asset]SchedulerState `json:"assets"`
	Health    SystemHealth             `json:"health"`
}

// UpdateOutcome is one per-check result of a triggered recompute.
type UpdateOutcome struct {
	Check      string  `json:"check"`
	HasChanges bool    `json:"has_changes"`
	Detail     string  `json:"detail,omitempty"`
	Previous   float64 `json:"previous_normalized"`
	Current    float64 `json:"current_normalized"`
}
