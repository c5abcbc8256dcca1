package echoapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // the dashboard is served from another origin
}

// events streams the notifications of a session over a websocket until the client leaves.
// Every notification is delivered once: the outbox is flushed on connect and live ones are acknowledged.
func (api *sessionApi) events(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	if api.hub == nil {
		return errHttpNotFound
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errWebsocketUpgrade
	}
	defer conn.Close()

	notifs, unsubscribe := api.hub.Subscribe(sess.Owner().ID)
	defer unsubscribe()

	// reader: answers pings and notices the client leaving
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// flush what happened before the client connected
	var lastSeq uint64
	for _, n := range sess.Notifications() {
		if err := api.write(conn, n); err != nil {
			return nil
		}
		lastSeq = n.Seq
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return nil
		case n, ok := <-notifs:
			if !ok {
				return nil
			}
			if n.SessionID != sess.ID() || n.Seq <= lastSeq {
				continue
			}
			if err := api.write(conn, n); err != nil {
				api.logger.Debug(errors.Wrap(err, "writing notification").Error())
				return nil
			}
			sess.Ack(n.Seq)
			lastSeq = n.Seq
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

func (api *sessionApi) write(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
