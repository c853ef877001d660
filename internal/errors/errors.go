package errors

import (
	"errors"
	"fmt"
)

// FaultType represents the categories of failure the evaluation pipeline
// distinguishes. Detection faults are always resolved to a fail-safe
// outcome; settings faults are surfaced so the operator sees a
// misconfiguration instead of a silently defaulted evaluation; evaluation
// faults are caught at the outer boundary and converted to a
// treat-as-corrupted result.
type FaultType string

const (
	FaultTypeDetection  FaultType = "detection"
	FaultTypeSettings   FaultType = "settings"
	FaultTypeEvaluation FaultType = "evaluation"
)

// Fault is a structured pipeline error carrying its category
type Fault struct {
	Type    FaultType `json:"type"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (f *Fault) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", f.Type, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Type, f.Message)
}

// Unwrap returns the underlying error
func (f *Fault) Unwrap() error {
	return f.Cause
}

// NewDetectionFault creates a fault for an unreadable or undecodable image,
// or a checker that failed internally
func NewDetectionFault(message string, cause error) *Fault {
	return &Fault{
		Type:    FaultTypeDetection,
		Message: message,
		Cause:   cause,
	}
}

// NewSettingsFault creates a fault for missing or invalid configuration
func NewSettingsFault(message string, cause error) *Fault {
	return &Fault{
		Type:    FaultTypeSettings,
		Message: message,
		Cause:   cause,
	}
}

// NewEvaluationFault creates a fault for an unexpected failure inside the
// scoring or retry logic
func NewEvaluationFault(message string, cause error) *Fault {
	return &Fault{
		Type:    FaultTypeEvaluation,
		Message: message,
		Cause:   cause,
	}
}

// IsType checks if the error is a fault of the given type
func IsType(err error, faultType FaultType) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Type == faultType
	}
	return false
}
