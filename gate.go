package notesafe

// Decision is the outcome of an access check. The biometric prompt (or
// whatever stands in for it) lives outside this engine; the engine only
// consumes the granted/denied result.
type Decision int

const (
	DecisionDenied Decision = iota
	DecisionGranted
)

func (d Decision) String() string {
	if d == DecisionGranted {
		return "granted"
	}
	return "denied"
}

// Gate yields an access decision before each vault operation. An error
// means the check itself could not run; a clean denial is Decision
// Denied with a nil error, never an error value.
type Gate interface {
	Authorize() (Decision, error)
}

// GateFunc adapts a plain function to the Gate interface
type GateFunc func() (Decision, error)

func (f GateFunc) Authorize() (Decision, error) {
	return f()
}

// Allow returns a gate that grants every request. This is the default:
// embedding applications that run their own biometric check before
// touching the vault do not need a second gate inside it.
func Allow() Gate {
	return GateFunc(func() (Decision, error) {
		return DecisionGranted, nil
	})
}

// Deny returns a gate that refuses every request
func Deny() Gate {
	return GateFunc(func() (Decision, error) {
		return DecisionDenied, nil
	})
}
