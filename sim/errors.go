package sim

import (
	"errors"
	"fmt"
)

// ConfigError reports a setup bug: unknown tier, policy or worker type, a
// channel that is saturated at initialization, or an invalid scenario value.
// A ConfigError aborts the run.
type ConfigError struct {
	Component string
	Msg       string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: configuration error: %s", e.Component, e.Msg)
}

// InvariantError reports a numeric-stability fault that should be impossible,
// e.g. a bandit utility reaching +Inf or a probability walk selecting no bucket.
// An InvariantError aborts the run.
type InvariantError struct {
	Component string
	Msg       string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: invariant violated: %s", e.Component, e.Msg)
}

// IsFatal reports whether err (or anything it wraps) must abort the run.
func IsFatal(err error) bool {
	var cfgErr *ConfigError
	var invErr *InvariantError
	return errors.As(err, &cfgErr) || errors.As(err, &invErr)
}

// Link is a network link type.
type Link int

const (
	LinkWLAN Link = iota
	LinkMAN
	LinkWAN
	LinkGSM
)

// AllLinks lists link types in reporting order.
var AllLinks = []Link{LinkWLAN, LinkMAN, LinkWAN, LinkGSM}

func (l Link) String() string {
	switch l {
	case LinkWLAN:
		return "WLAN"
	case LinkMAN:
		return "MAN"
	case LinkWAN:
		return "WAN"
	case LinkGSM:
		return "GSM"
	}
	return fmt.Sprintf("Link(%d)", int(l))
}

// FailureReason classifies a recoverable per-task failure.
type FailureReason int

const (
	// FailureBandwidth: the channel delay estimate was 0 (saturated) at send time.
	FailureBandwidth FailureReason = iota
	// FailureCapacity: no worker in the target tier had enough residual CPU.
	FailureCapacity
	// FailureMobility: the device left the serving cell before the transfer completed.
	FailureMobility
)

func (r FailureReason) String() string {
	switch r {
	case FailureBandwidth:
		return "bandwidth"
	case FailureCapacity:
		return "capacity"
	case FailureMobility:
		return "mobility"
	}
	return fmt.Sprintf("FailureReason(%d)", int(r))
}

// Failure describes why a task terminated unsuccessfully.
// Link is meaningful only for FailureBandwidth.
type Failure struct {
	Reason FailureReason
	Link   Link
}

func (f Failure) String() string {
	if f.Reason == FailureBandwidth {
		return fmt.Sprintf("%s(%s)", f.Reason, f.Link)
	}
	return f.Reason.String()
}

// ReportsToOrchestrator reports whether learning policies should see this failure.
// Mobility failures carry no capacity signal and are excluded.
func (f Failure) ReportsToOrchestrator() bool {
	return f.Reason != FailureMobility
}
