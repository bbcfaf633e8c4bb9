package models

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is the user-facing outcome of an operation.
type Notice struct {
	Severity Severity
	Message  string
}

func (n Notice) String() string {
	return string(n.Severity) + ": " + n.Message
}
