package model

// MismatchKind enumerates the contract-checker finding kinds, per spec §4.7.
type MismatchKind string

const (
	MismatchType           MismatchKind = "TypeMismatch"
	MismatchMissingField   MismatchKind = "MissingField"
	MismatchUnnormalized   MismatchKind = "UnnormalizedData"
	MismatchDecoratorInval MismatchKind = "DecoratorInvalid"
	MismatchOpenAPIDrift   MismatchKind = "OpenAPIDrift"
)

// Severity is the reported urgency of a Mismatch, always derived from the
// configured rules table — the checker never invents a severity outside
// that mapping.
type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityWarning  Severity = "Warning"
	SeverityCritical Severity = "Critical"
)

// Mismatch is a single finding on a Stitch.
type Mismatch struct {
	Kind     MismatchKind
	Severity Severity
	Field    string
	Message  string
}
