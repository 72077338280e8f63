package orderControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/junaidrashid-git/storefront-api/events"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GET /admin/orders/ws streams order events to the staff dashboard.
func OrderWebSocketHandler(hub *events.Hub, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		hub.Add(conn)
		defer hub.Remove(conn)

		// Reads only detect the client going away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
