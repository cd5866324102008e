package bitio

// Error is a bit stream failure. Callers match the sentinels below with
// errors.Is; returned errors usually wrap one of them with positional detail.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrOutOfData is returned when a read needs more content bits than remain.
	ErrOutOfData = &Error{"out of data"}
	// ErrIllegalWidth is returned for a bit count outside a primitive's range.
	ErrIllegalWidth = &Error{"illegal bit width"}
	// ErrNegativeValue is returned when an unsigned writer is given a negative value.
	ErrNegativeValue = &Error{"negative value for unsigned field"}
	// ErrOverflow is returned when a value does not fit its target width.
	ErrOverflow = &Error{"value overflows target width"}
	// ErrCorruptData is returned for malformed buffers and frames.
	ErrCorruptData = &Error{"corrupt data"}
)
