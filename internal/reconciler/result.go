package reconciler

import (
	"fmt"
	"strings"
	"time"
)

// ActionType represents the type of reconciliation action.
type ActionType string

const (
	// ActionUpdate indicates a record content will be/was patched.
	ActionUpdate ActionType = "update"
	// ActionSkip indicates a zone or record was not touched.
	ActionSkip ActionType = "skip"
)

// ActionStatus represents the outcome of an action.
type ActionStatus string

const (
	// StatusSuccess indicates the action completed successfully.
	StatusSuccess ActionStatus = "success"
	// StatusFailed indicates the provider rejected the action.
	StatusFailed ActionStatus = "failed"
	// StatusSkipped indicates nothing was attempted.
	StatusSkipped ActionStatus = "skipped"
)

// Action represents a single reconciliation outcome.
type Action struct {
	// Type is the action type (update, skip).
	Type ActionType

	// Status is the outcome of the action.
	Status ActionStatus

	// Zone is the configured zone name.
	Zone string

	// Hostname is the fully-qualified record name. Empty for zone-level skips.
	Hostname string

	// RecordType is "A" or "AAAA" when known.
	RecordType string

	// RecordID is the provider-assigned record id when known.
	RecordID string

	// Target is the address written (or that would be written).
	Target string

	// Error explains a failed or skipped action.
	Error string

	// DryRun indicates this action was not actually executed.
	DryRun bool
}

// String returns a human-readable representation of the action.
func (a Action) String() string {
	status := string(a.Status)
	if a.DryRun && a.Status == StatusSuccess {
		status = "dry-run"
	}

	subject := a.Hostname
	if subject == "" {
		subject = "zone " + a.Zone
	}
	if a.RecordType != "" {
		subject += " " + a.RecordType
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s %s", status, a.Type, subject)
	if a.Target != "" {
		fmt.Fprintf(&sb, " -> %s", a.Target)
	}
	if a.RecordID != "" {
		fmt.Fprintf(&sb, " (%s)", a.RecordID)
	}
	if a.Error != "" {
		fmt.Fprintf(&sb, ": %s", a.Error)
	}
	return sb.String()
}

// Result holds the complete result of a reconciliation run.
type Result struct {
	// StartTime is when reconciliation started.
	StartTime time.Time

	// EndTime is when reconciliation completed.
	EndTime time.Time

	// ZonesProcessed counts zones whose records were listed.
	ZonesProcessed int

	// Actions contains all reconciliation actions taken (or planned in dry-run).
	Actions []Action

	// DryRun indicates if this was a dry-run (no changes applied).
	DryRun bool

	// Aborted is set when a fatal provider error ended the run early.
	Aborted bool
}

// NewResult creates a new Result with the start time set to now.
func NewResult(dryRun bool) *Result {
	return &Result{
		StartTime: time.Now(),
		Actions:   make([]Action, 0),
		DryRun:    dryRun,
	}
}

// Complete marks the result as complete with the end time set to now.
func (r *Result) Complete() {
	r.EndTime = time.Now()
}

// Duration returns the total reconciliation duration.
func (r *Result) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// AddAction adds an action to the result.
func (r *Result) AddAction(action Action) {
	action.DryRun = r.DryRun
	r.Actions = append(r.Actions, action)
}

// Updated returns all successful update actions.
func (r *Result) Updated() []Action {
	return r.filter(func(a Action) bool {
		return a.Type == ActionUpdate && a.Status == StatusSuccess
	})
}

// Failed returns all failed actions.
func (r *Result) Failed() []Action {
	return r.filter(func(a Action) bool { return a.Status == StatusFailed })
}

// Skipped returns all skipped actions.
func (r *Result) Skipped() []Action {
	return r.filter(func(a Action) bool {
		return a.Status == StatusSkipped || a.Type == ActionSkip
	})
}

func (r *Result) filter(keep func(Action) bool) []Action {
	var filtered []Action
	for _, a := range r.Actions {
		if keep(a) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// UpdatedCount returns the number of records updated (or that would be in dry-run).
func (r *Result) UpdatedCount() int {
	return len(r.Updated())
}

// FailedCount returns the number of failed actions.
func (r *Result) FailedCount() int {
	return len(r.Failed())
}

// HasErrors returns true if any actions failed.
func (r *Result) HasErrors() bool {
	return r.FailedCount() > 0
}

// Summary returns a human-readable summary of the reconciliation.
func (r *Result) Summary() string {
	var sb strings.Builder

	mode := "applied"
	if r.DryRun {
		mode = "dry-run"
	}
	if r.Aborted {
		mode += ", aborted"
	}

	fmt.Fprintf(&sb, "Reconciliation complete (%s) in %s\n", mode, r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "  Zones processed: %d\n", r.ZonesProcessed)
	fmt.Fprintf(&sb, "  Records updated: %d\n", r.UpdatedCount())

	if skipped := r.Skipped(); len(skipped) > 0 {
		fmt.Fprintf(&sb, "  Skipped: %d\n", len(skipped))
		for _, a := range skipped {
			fmt.Fprintf(&sb, "    - %s\n", a.String())
		}
	}

	if r.HasErrors() {
		fmt.Fprintf(&sb, "  Failed: %d\n", r.FailedCount())
		for _, a := range r.Failed() {
			fmt.Fprintf(&sb, "    - %s\n", a.String())
		}
	}

	return sb.String()
}
