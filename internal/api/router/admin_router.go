package router

import (
	"net/http"

	"lobby-backend/internal/api"
	"lobby-backend/internal/api/endpoints"
	"lobby-backend/internal/api/middleware"
)

func AdminRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		roomEndpoints := endpoints.NewRoomEndpoints(s.Lobby())
		mux.HandleFunc(prefix+"/rooms", s.MakeHTTPHandleFunc(roomEndpoints.AdminRooms, middleware.ValidateAdminJWT(s.Issuer())))
	}
}
