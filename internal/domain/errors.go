package domain

// ErrorKind identifies a business failure independently of how the
// transport layer reports it.
type ErrorKind string

const (
	KindStudentNotFound     ErrorKind = "student_not_found"
	KindReservationNotFound ErrorKind = "reservation_not_found"
	KindKeyNotFound         ErrorKind = "key_not_found"
	KindInvalidAuthCode     ErrorKind = "invalid_auth_code"
	KindAuthCodeMismatch    ErrorKind = "auth_code_mismatch"
	KindReservationConflict ErrorKind = "reservation_conflict"
	KindDailyLimitReached   ErrorKind = "daily_limit_reached"
	KindDateOutOfRange      ErrorKind = "date_out_of_range"
	KindKeyAuthFailed       ErrorKind = "key_authentication_failed"
	KindKeyStateMismatch    ErrorKind = "key_state_mismatch"
	KindInvalidTimeRange    ErrorKind = "invalid_time_range"
	KindInvalidID           ErrorKind = "invalid_id"
)

// ErrorClass groups kinds by the rough HTTP family a transport should map
// them to, without the transport having to enumerate every kind.
type ErrorClass int

const (
	ClassBadRequest ErrorClass = iota
	ClassUnauthorized
	ClassNotFound
	ClassConflict
)

// Error is a tagged business error. Two Errors compare equal under
// errors.Is when their kinds match, so services can return the package
// sentinels below while callers match on kind alone.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Class reports the transport family for this error's kind.
func (e *Error) Class() ErrorClass {
	switch e.Kind {
	case KindStudentNotFound, KindReservationNotFound, KindKeyNotFound:
		return ClassNotFound
	case KindAuthCodeMismatch, KindKeyAuthFailed:
		return ClassUnauthorized
	case KindReservationConflict, KindDailyLimitReached, KindKeyStateMismatch:
		return ClassConflict
	default:
		return ClassBadRequest
	}
}

var (
	ErrStudentNotFound     = &Error{Kind: KindStudentNotFound, Message: "student not found"}
	ErrReservationNotFound = &Error{Kind: KindReservationNotFound, Message: "reservation not found"}
	ErrKeyNotFound         = &Error{Kind: KindKeyNotFound, Message: "room key not found"}
	ErrInvalidAuthCode     = &Error{Kind: KindInvalidAuthCode, Message: "auth code must be exactly 4 digits"}
	ErrAuthCodeMismatch    = &Error{Kind: KindAuthCodeMismatch, Message: "auth code mismatch"}
	ErrReservationConflict = &Error{Kind: KindReservationConflict, Message: "reservation time overlaps an existing reservation"}
	ErrDailyLimitReached   = &Error{Kind: KindDailyLimitReached, Message: "student already has a reservation on this date"}
	ErrDateOutOfRange      = &Error{Kind: KindDateOutOfRange, Message: "reservation date outside the booking window"}
	ErrKeyAuthFailed       = &Error{Kind: KindKeyAuthFailed, Message: "no reservation authorizes this key operation"}
	ErrKeyStateMismatch    = &Error{Kind: KindKeyStateMismatch, Message: "room key is not in the expected state"}
	ErrInvalidTimeRange    = &Error{Kind: KindInvalidTimeRange, Message: "start time must be before end time"}
	ErrInvalidID           = &Error{Kind: KindInvalidID, Message: "invalid id"}
)
