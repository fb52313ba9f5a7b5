package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/take5-client/internal/room"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func SetupRoutes(b Backend, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/view", GetView(b))
	r.Get("/ws", ViewStream(b, log))

	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", GetRooms(b))
		r.Post("/", CreateRoom(b, log))
		r.Post("/{id}/join", JoinRoom(b, log))
	})

	r.Post("/hand/{value}", Tap(b))
	r.Post("/play", Play(b))
	r.Post("/rows/{idx}", ChooseRow(b))
	r.Post("/ready", Command(b, room.Ready{}))
	r.Post("/restart", Command(b, room.Restart{}))
	r.Post("/force_restart", Command(b, room.ForceRestart{}))
	r.Post("/delete", Command(b, room.Delete{}))
	r.Post("/dismiss", Command(b, room.DismissAlert{}))
	r.Post("/leave", Leave(b))
	return r
}
