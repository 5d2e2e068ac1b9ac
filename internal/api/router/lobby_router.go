package router

import (
	"net/http"

	"lobby-backend/internal/api"
	"lobby-backend/internal/api/endpoints"
)

// LobbyRoutes mounts the websocket endpoint and the public room queries.
func LobbyRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		roomEndpoints := endpoints.NewRoomEndpoints(s.Lobby())
		mux.HandleFunc(prefix+"/ws", s.MakeStreamHandler(s.Sockets()))
		mux.HandleFunc(prefix+"/rooms/by-token", s.MakeHTTPHandleFunc(roomEndpoints.RoomByToken, s.RateLimit()))
	}
}
