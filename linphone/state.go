package linphone

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Tristate is a boolean that may not be known yet.
type Tristate int8

const (
	Unknown Tristate = iota
	False
	True
)

// TristateOf converts a bool to [True] or [False].
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// IsTrue reports whether s is [True].
func (s Tristate) IsTrue() bool { return s == True }

// IsFalse reports whether s is [False]. [Unknown] is neither true nor false.
func (s Tristate) IsFalse() bool { return s == False }

// IsKnown reports whether s is not [Unknown].
func (s Tristate) IsKnown() bool { return s != Unknown }

func (s Tristate) String() string {
	switch s {
	case False:
		return "false"
	case True:
		return "true"
	default:
		return "unknown"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (s Tristate) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// State is the call state derived from the client's status responses.
// The zero value is the fully unknown state of a fresh session.
type State struct {
	// Session identifies the client process the state was derived from.
	// It is [uuid.Nil] while no process is running.
	Session    uuid.UUID `json:"session"`
	Registered Tristate  `json:"registered"`
	Dialing    Tristate  `json:"dialing"`
	InCall     Tristate  `json:"in_call"`
}

// Busy reports whether a call is being dialed or is established.
func (s State) Busy() bool { return s.Dialing.IsTrue() || s.InCall.IsTrue() }

// LogValue implements [slog.LogValuer].
func (s State) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("registered", s.Registered.String()),
		slog.String("dialing", s.Dialing.String()),
		slog.String("in_call", s.InCall.String()),
	)
}

// FaultKind classifies conditions the supervisor cannot repair by itself.
type FaultKind string

// FaultDeregistered is reported when the client answers "registered=-1",
// i.e. registration failed or was dropped and the client is likely wedged.
const FaultDeregistered FaultKind = "deregistered"

// Fault is a condition reported by the supervisor to its subscribers.
type Fault struct {
	Session  uuid.UUID `json:"session"`
	Kind     FaultKind `json:"kind"`
	Response string    `json:"response"`
}

// LogValue implements [slog.LogValuer].
func (f Fault) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", string(f.Kind)),
		slog.String("session", f.Session.String()),
		slog.String("response", f.Response),
	)
}

// Client commands.
const (
	cmdStatusRegister = "status register"
	cmdStatusHook     = "status hook"
	cmdRegister       = "register"
	cmdCall           = "call"
	cmdTerminateAll   = "terminate all"
	cmdQuit           = "quit"
	cmdAutoanswerOn   = "autoanswer enable"
	cmdAutoanswerOff  = "autoanswer disable"
)

// delta is a state change derived from one record; [Unknown] fields are left untouched.
type delta struct {
	registered, dialing, inCall Tristate
	fault                       FaultKind
}

func (d delta) empty() bool {
	return d == delta{}
}

// classify maps a record to the state change it implies.
func classify(rec Record) delta {
	switch rec.Request {
	case cmdStatusRegister:
		switch resp := rec.Response; {
		case resp == "registered=0":
			return delta{registered: False, dialing: False, inCall: False}
		case resp == "registered=-1":
			return delta{registered: False, dialing: False, inCall: False, fault: FaultDeregistered}
		case strings.HasPrefix(resp, "registered, identity="):
			return delta{registered: True}
		}
	case cmdStatusHook:
		switch resp := rec.Response; {
		case resp == "hook=offhook":
			return delta{dialing: False, inCall: False}
		case strings.HasPrefix(resp, "Call out, "):
			return delta{dialing: False, inCall: True}
		default:
			return delta{dialing: True, inCall: False}
		}
	}
	return delta{}
}

// fieldChange describes one state field that changed.
type fieldChange struct {
	field    string
	from, to Tristate
}

// apply merges d into s and returns the resulting state along with the fields that actually changed.
func (d delta) apply(s State) (State, []fieldChange) {
	var changes []fieldChange
	set := func(name string, cur *Tristate, v Tristate) {
		if v == Unknown || v == *cur {
			return
		}
		changes = append(changes, fieldChange{name, *cur, v})
		*cur = v
	}
	set("registered", &s.Registered, d.registered)
	set("dialing", &s.Dialing, d.dialing)
	set("in_call", &s.InCall, d.inCall)
	return s, changes
}
