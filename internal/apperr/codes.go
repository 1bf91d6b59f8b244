package apperr

// Code is a machine-readable error code returned to API clients.
type Code string

const (
	CodeInternal Code = "INTERNAL"

	// Lookups
	CodeEventNotFound        Code = "EVENT_NOT_FOUND"
	CodeRegistrationNotFound Code = "REGISTRATION_NOT_FOUND"
	CodeAttendanceNotFound   Code = "ATTENDANCE_NOT_FOUND"
	CodeTokenNotFound        Code = "TOKEN_NOT_FOUND"
	CodeNoActiveToken        Code = "NO_ACTIVE_TOKEN"
	CodeUserNotFound         Code = "USER_NOT_FOUND"
	CodeInvitationNotFound   Code = "INVITATION_NOT_FOUND"

	// Conflicts
	CodeAlreadyRegistered    Code = "ALREADY_REGISTERED"
	CodeAlreadyCheckedIn     Code = "ALREADY_CHECKED_IN"
	CodeAlreadyCheckedOut    Code = "ALREADY_CHECKED_OUT"
	CodeDuplicateActiveToken Code = "DUPLICATE_ACTIVE_TOKEN"
	CodeUserExists           Code = "USER_EXISTS"
	CodeInvitationPending    Code = "INVITATION_PENDING"
	CodeEventInUse           Code = "EVENT_IN_USE"

	// Event / ledger state
	CodeEventInactive            Code = "EVENT_INACTIVE"
	CodeEventNotStarted          Code = "EVENT_NOT_STARTED"
	CodeEventEnded               Code = "EVENT_ENDED"
	CodeEventAlreadyStarted      Code = "EVENT_ALREADY_STARTED"
	CodeRegistrationNotRequired  Code = "REGISTRATION_NOT_REQUIRED"
	CodeDeadlinePassed           Code = "DEADLINE_PASSED"
	CodeCapacityExceeded         Code = "CAPACITY_EXCEEDED"
	CodeUserNotRegistered        Code = "USER_NOT_REGISTERED"
	CodeRegistrationNotConfirmed Code = "REGISTRATION_NOT_CONFIRMED"
	CodeNotCheckedIn             Code = "NOT_CHECKED_IN"
	CodeTokenExpired             Code = "TOKEN_EXPIRED"
	CodeInvitationExpired        Code = "INVITATION_EXPIRED"

	// Input
	CodeInvalidInput   Code = "INVALID_INPUT"
	CodeInvalidFormat  Code = "INVALID_FORMAT"
	CodeEventMismatch  Code = "EVENT_MISMATCH"
	CodeInvalidContact Code = "INVALID_CONTACT"

	// Access
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeInvalidOTP         Code = "INVALID_OTP"
	CodeForbidden          Code = "FORBIDDEN"

	// Collaborators
	CodeNotificationFailed Code = "NOTIFICATION_FAILED"
)

var (
	ErrEventNotFound        = New(CodeEventNotFound, KindNotFound, "event not found")
	ErrRegistrationNotFound = New(CodeRegistrationNotFound, KindNotFound, "registration not found")
	ErrAttendanceNotFound   = New(CodeAttendanceNotFound, KindNotFound, "attendance record not found")
	ErrTokenNotFound        = New(CodeTokenNotFound, KindNotFound, "check-in token not found or no longer active")
	ErrNoActiveToken        = New(CodeNoActiveToken, KindNotFound, "event has no active check-in token")
	ErrUserNotFound         = New(CodeUserNotFound, KindNotFound, "user not found")
	ErrInvitationNotFound   = New(CodeInvitationNotFound, KindNotFound, "invitation not found")

	ErrAlreadyRegistered    = New(CodeAlreadyRegistered, KindConflict, "user is already registered for this event")
	ErrAlreadyCheckedIn     = New(CodeAlreadyCheckedIn, KindConflict, "user is already checked in")
	ErrAlreadyCheckedOut    = New(CodeAlreadyCheckedOut, KindConflict, "user is already checked out")
	ErrDuplicateActiveToken = New(CodeDuplicateActiveToken, KindConflict, "event already has an active check-in token")
	ErrUserExists           = New(CodeUserExists, KindConflict, "a user with this contact already exists")
	ErrInvitationPending    = New(CodeInvitationPending, KindConflict, "a pending invitation already exists for this contact")
	ErrEventInUse           = New(CodeEventInUse, KindConflict, "event has registrations or attendance; deactivate it instead")

	ErrEventInactive            = New(CodeEventInactive, KindInvalidState, "event is not active")
	ErrEventNotStarted          = New(CodeEventNotStarted, KindInvalidState, "event has not started yet")
	ErrEventEnded               = New(CodeEventEnded, KindInvalidState, "event has ended")
	ErrEventAlreadyStarted      = New(CodeEventAlreadyStarted, KindInvalidState, "event has already started")
	ErrRegistrationNotRequired  = New(CodeRegistrationNotRequired, KindInvalidState, "event does not require registration")
	ErrDeadlinePassed           = New(CodeDeadlinePassed, KindInvalidState, "registration deadline has passed")
	ErrCapacityExceeded         = New(CodeCapacityExceeded, KindInvalidState, "event is at full capacity")
	ErrUserNotRegistered        = New(CodeUserNotRegistered, KindInvalidState, "user is not registered for this event")
	ErrRegistrationNotConfirmed = New(CodeRegistrationNotConfirmed, KindInvalidState, "registration is not confirmed")
	ErrNotCheckedIn             = New(CodeNotCheckedIn, KindInvalidState, "user has not checked in")
	ErrTokenExpired             = New(CodeTokenExpired, KindInvalidState, "check-in token has expired")
	ErrInvitationExpired        = New(CodeInvitationExpired, KindInvalidState, "invitation has expired")

	ErrInvalidInput   = New(CodeInvalidInput, KindValidation, "invalid input")
	ErrInvalidFormat  = New(CodeInvalidFormat, KindValidation, "malformed check-in token")
	ErrEventMismatch  = New(CodeEventMismatch, KindValidation, "check-in token belongs to a different event")
	ErrInvalidContact = New(CodeInvalidContact, KindValidation, "an email address or phone number is required")

	ErrUnauthorized       = New(CodeUnauthorized, KindUnauthorized, "authentication required")
	ErrInvalidCredentials = New(CodeInvalidCredentials, KindUnauthorized, "invalid credentials")
	ErrInvalidOTP         = New(CodeInvalidOTP, KindUnauthorized, "invalid verification code")
	ErrForbidden          = New(CodeForbidden, KindForbidden, "insufficient permissions")

	ErrNotificationFailed = New(CodeNotificationFailed, KindUpstream, "failed to deliver notification")
)
