package diag

import (
	"time"
)

// Event is one diagnostic event of a compiler run.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Time when the event occurred (nanosecond precision).
	Time time.Time `cbor:"1,keyasint"`

	// RunID uniquely identifies the compiler invocation (UUID).
	RunID string `cbor:"2,keyasint"`

	// Stage of the pipeline that produced the event.
	Stage Stage `cbor:"3,keyasint"`

	// Severity classifies the event.
	Severity Severity `cbor:"4,keyasint"`

	// Path names the description element the event concerns, when it
	// concerns one (`peripheral "SPI1" > register "CR"`).
	Path string `cbor:"5,keyasint,omitempty"`

	// Message is the human-readable event text.
	Message string `cbor:"6,keyasint"`

	// Count carries an element tally for stage completion events
	// (peripherals built, registers planned, files emitted).
	Count int `cbor:"7,keyasint,omitempty"`
}

// Stage identifies a step of the compile pipeline.
type Stage uint8

const (
	// StageParse is the element tree parsing step.
	StageParse Stage = 0
	// StageBuild is the model building step.
	StageBuild Stage = 1
	// StageValidate is the layout validation step.
	StageValidate Stage = 2
	// StagePlan is the access planning step.
	StagePlan Stage = 3
	// StageEmit is the source emission step.
	StageEmit Stage = 4
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageParse:
		return "PARSE"
	case StageBuild:
		return "BUILD"
	case StageValidate:
		return "VALIDATE"
	case StagePlan:
		return "PLAN"
	case StageEmit:
		return "EMIT"
	default:
		return "UNKNOWN"
	}
}

// Severity classifies how serious an event is.
type Severity uint8

const (
	// SeverityInfo is routine progress information.
	SeverityInfo Severity = 0
	// SeverityWarning flags a description construct that generates
	// correctly but deserves datasheet confirmation.
	SeverityWarning Severity = 1
	// SeverityError mirrors a fatal compile error.
	SeverityError Severity = 2
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
