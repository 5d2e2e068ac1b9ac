package api

import (
	"errors"
	"net/http"

	"lobby-backend/internal/service/lobby"
)

type HTTPError struct {
	StatusCode int
	Message    string
	ErrorLog   error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.ErrorLog
}

type ApiError struct {
	Error string `json:"message"`
}

// FromLobbyError maps a lobby failure onto an HTTP status.
func FromLobbyError(err error) *HTTPError {
	var lobbyErr *lobby.Error
	if !errors.As(err, &lobbyErr) {
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: err}
	}

	status := http.StatusInternalServerError
	switch lobbyErr.Code {
	case lobby.ErrorCodeMissingToken, lobby.ErrorCodeBadRequest, lobby.ErrorCodeInvalidNickname:
		status = http.StatusBadRequest
	case lobby.ErrorCodeTokenInvalid, lobby.ErrorCodeRoomNotFound:
		status = http.StatusNotFound
	case lobby.ErrorCodeRoomExists, lobby.ErrorCodeAlreadyMember, lobby.ErrorCodeRoomFull:
		status = http.StatusConflict
	case lobby.ErrorCodeWrongPassword:
		status = http.StatusForbidden
	}
	return &HTTPError{StatusCode: status, Message: lobbyErr.Message, ErrorLog: err}
}
