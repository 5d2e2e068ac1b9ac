package lobby

import "errors"

type ErrorCode string

const (
	ErrorCodeInvalidNickname ErrorCode = "invalid_nickname"
	ErrorCodeRoomNotFound    ErrorCode = "room_not_found"
	ErrorCodeRoomExists      ErrorCode = "room_exists"
	ErrorCodeAlreadyMember   ErrorCode = "already_member"
	ErrorCodeWrongPassword   ErrorCode = "wrong_password"
	ErrorCodeRoomFull        ErrorCode = "room_full"
	ErrorCodeTokenInvalid    ErrorCode = "token_invalid"
	ErrorCodeMissingToken    ErrorCode = "missing_token"
	ErrorCodeBadRequest      ErrorCode = "bad_request"
	ErrorCodeInternal        ErrorCode = "internal_error"
)

// Error is a client-facing failure. It is reported to the originating
// connection and never ends the connection.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can write errors.Is(err, lobby.ErrRoomFull).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var (
	ErrInvalidNickname = newError(ErrorCodeInvalidNickname, "nickname must not be empty or contain / < > [ ] * ^ @ #", nil)
	ErrRoomNotFound    = newError(ErrorCodeRoomNotFound, "room not found", nil)
	ErrRoomExists      = newError(ErrorCodeRoomExists, "room id already in use", nil)
	ErrAlreadyMember   = newError(ErrorCodeAlreadyMember, "you are already in this room", nil)
	ErrWrongPassword   = newError(ErrorCodeWrongPassword, "wrong password", nil)
	ErrRoomFull        = newError(ErrorCodeRoomFull, "room is full", nil)
	ErrTokenInvalid    = newError(ErrorCodeTokenInvalid, "token is invalid or already used", nil)
	ErrMissingToken    = newError(ErrorCodeMissingToken, "missing token", nil)
)

// CodeOf returns the code of a lobby error, or "" for anything else.
func CodeOf(err error) ErrorCode {
	var lobbyErr *Error
	if errors.As(err, &lobbyErr) {
		return lobbyErr.Code
	}
	return ""
}

// BadRequest reports a frame the server could not make sense of.
func BadRequest(message string) *Error {
	return newError(ErrorCodeBadRequest, message, nil)
}
