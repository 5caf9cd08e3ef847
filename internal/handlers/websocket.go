package handlers

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/realtime"
	authService "github.com/evn/absen_backend/internal/services/auth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler subscribes the caller to the public channel, and to the
// admin channel as well when ?token= carries an admin-scoped JWT.
func WebSocketHandler(hub *realtime.Hub, jwtAuth *jwtauth.JWTAuth, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channels := []string{realtime.ChannelPublic}
		if raw := r.URL.Query().Get("token"); raw != "" {
			token, err := jwtauth.VerifyToken(jwtAuth, raw)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if scope, _ := token.PrivateClaims()["scope"].(string); scope == authService.ScopeAdmin {
				channels = append(channels, realtime.ChannelAdmin)
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := realtime.NewClient(conn, channels...)
		hub.Register(client)

		go hub.ReadPump(client)
		go hub.WritePump(client)
	}
}
