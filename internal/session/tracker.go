// Package session detects ON/OFF boundaries of a device's switch state and
// emits completed usage periods.
package session

import "time"

// State is the persisted switch state a device carries between observations.
type State struct {
	On    bool
	Since *time.Time // start of the open session, nil when Off
}

// Observation is one normalized look at a device's switch.
type Observation struct {
	SwitchOn bool
	Online   bool
	At       time.Time
}

// Completed is a finished ON period.
type Completed struct {
	Start           time.Time
	End             time.Time
	DurationSeconds int64
}

// Transition applies one observation to the previous state. It is a pure
// function: the caller persists the returned state and, when non-nil, the
// completed session. An offline device counts as OFF regardless of its raw
// switch value.
func Transition(prev State, obs Observation) (State, *Completed) {
	effectiveOn := obs.SwitchOn && obs.Online

	// OFF -> ON: open a new session.
	if !prev.On && effectiveOn {
		at := obs.At
		return State{On: true, Since: &at}, nil
	}

	// ON -> OFF: close the open session, if one was recorded.
	if prev.On && !effectiveOn {
		next := State{On: false, Since: nil}
		if prev.Since == nil {
			return next, nil
		}
		// A clock going backwards must not produce end < start.
		end := obs.At
		if end.Before(*prev.Since) {
			end = *prev.Since
		}
		return next, &Completed{
			Start:           *prev.Since,
			End:             end,
			DurationSeconds: int64(end.Sub(*prev.Since).Seconds()),
		}
	}

	// ON -> ON or OFF -> OFF: keep the session start untouched.
	return State{On: effectiveOn, Since: prev.Since}, nil
}
