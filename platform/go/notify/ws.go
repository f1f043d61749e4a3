package notify

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/solusisistem/internal-admin/platform/go/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same-origin policy is enforced upstream; the payloads are opaque ids.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsPeer adapts a websocket connection to the Peer interface. gorilla
// connections allow one concurrent writer, hence the mutex.
type wsPeer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *wsPeer) Send(payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, []byte(payload))
}

// Handler upgrades the request, registers the peer, and blocks reading until
// the client goes away. Inbound messages are ignored.
func (n *Notifier) Handler(base *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromRequest(r, base)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		peer := &wsPeer{conn: conn}
		n.Register(peer)
		defer func() {
			n.Unregister(peer)
			_ = conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
