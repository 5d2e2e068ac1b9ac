package endpoints

import (
	"net/http"

	"lobby-backend/internal/api"
	"lobby-backend/internal/dto"
	"lobby-backend/internal/service/lobby"
)

type RoomEndpoints interface {
	RoomByToken(http.ResponseWriter, *http.Request) error
	AdminRooms(http.ResponseWriter, *http.Request) error
}

type roomEndpoints struct {
	lobby *lobby.Service
}

func NewRoomEndpoints(svc *lobby.Service) RoomEndpoints {
	return &roomEndpoints{lobby: svc}
}

func (h *roomEndpoints) RoomByToken(w http.ResponseWriter, r *http.Request) error {
	return methods{
		http.MethodGet: h.handleRoomByToken,
	}.serve(w, r)
}

func (h *roomEndpoints) AdminRooms(w http.ResponseWriter, r *http.Request) error {
	return methods{
		http.MethodGet: h.handleAdminRooms,
	}.serve(w, r)
}

// handleRoomByToken peeks at a token without redeeming it.
func (h *roomEndpoints) handleRoomByToken(w http.ResponseWriter, r *http.Request) error {
	info, err := h.lobby.RoomByToken(r.URL.Query().Get("token"))
	if err != nil {
		return api.FromLobbyError(err)
	}
	return WriteJSON(w, http.StatusOK, info)
}

func (h *roomEndpoints) handleAdminRooms(w http.ResponseWriter, r *http.Request) error {
	return WriteJSON(w, http.StatusOK, dto.RoomListResponse{Rooms: h.lobby.ListRooms(true)})
}
