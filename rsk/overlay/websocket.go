package overlay

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ankurkotwal/remoshock/rsk/common"
	"github.com/ankurkotwal/remoshock/rsk/gamepad"
)

// Events sent by the overlay page
const (
	EventConnected    = "connected"
	EventState        = "state"
	EventDisconnected = "disconnected"
)

// Message is what the overlay page sends: a Web Gamepad API snapshot
type Message struct {
	Event   string        `json:"event"`
	Gamepad gamepad.State `json:"gamepad"`
}

const writeTimeout = 5 * time.Second

// WebsocketHandler receives gamepad snapshots from the overlay page and
// pushes the display back whenever it changes
func WebsocketHandler(session *Session, log *common.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			log.Err("websocket accept %s", err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "closing")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		updates, unsubscribe := session.Subscribe()
		defer unsubscribe()
		go func() {
			defer cancel()
			for {
				writeCtx, writeCancel := context.WithTimeout(ctx, writeTimeout)
				err := wsjson.Write(writeCtx, conn, session.Display())
				writeCancel()
				if err != nil {
					return
				}
				select {
				case <-ctx.Done():
					return
				case <-updates:
				}
			}
		}()

		// Only the connection that brought the gamepad takes it away again
		owner := false
		for {
			var msg Message
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				status := websocket.CloseStatus(err)
				if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway &&
					ctx.Err() == nil {
					log.Err("websocket read %s", err)
				}
				break
			}
			switch msg.Event {
			case EventConnected:
				owner = true
				session.Connect(msg.Gamepad)
			case EventState:
				owner = true
				session.Update(msg.Gamepad)
			case EventDisconnected:
				owner = false
				session.Disconnect()
			default:
				log.Err("websocket unknown event %q", msg.Event)
			}
		}
		if owner {
			session.Disconnect()
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}
}
