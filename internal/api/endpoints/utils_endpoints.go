package endpoints

import (
	"net/http"
	"time"

	"lobby-backend/internal/service/lobby"
)

type UtilsEndpoints interface {
	Health(http.ResponseWriter, *http.Request) error
}

type utilsEndpoints struct {
	lobby   *lobby.Service
	started time.Time
}

func NewUtilsEndpoints(svc *lobby.Service) UtilsEndpoints {
	return &utilsEndpoints{lobby: svc, started: time.Now()}
}

type healthResponse struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
	Uptime string `json:"uptime"`
}

func (h *utilsEndpoints) Health(w http.ResponseWriter, r *http.Request) error {
	return methods{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) error {
			return WriteJSON(w, http.StatusOK, healthResponse{
				Status: "ok",
				Rooms:  len(h.lobby.ListRooms(false)),
				Uptime: time.Since(h.started).Round(time.Second).String(),
			})
		},
	}.serve(w, r)
}
