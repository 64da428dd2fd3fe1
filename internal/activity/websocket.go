package activity

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MacJediWizard/subdash/internal/models"
)

// Message is the frame written to websocket clients.
type Message struct {
	Type       string             `json:"type"`
	Collection Collection         `json:"collection"`
	Packages   []*models.Package  `json:"packages,omitempty"`
	Customers  []*models.Customer `json:"customers,omitempty"`
}

// client is one connected websocket. send is never closed; writePump exits
// when the connection or the feed is done.
type client struct {
	conn    *websocket.Conn
	feed    *Feed
	send    chan []byte
	done    chan struct{}
	dropped atomic.Int64
}

// HandleWebSocket upgrades the request and streams package and customer
// snapshots until the client disconnects.
func (f *Feed) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	c := &client{
		conn: conn,
		feed: f,
		send: make(chan []byte, f.config.SendBufferSize),
		done: make(chan struct{}),
	}

	unsubPackages := f.SubscribePackages(func(pkgs []*models.Package) {
		c.enqueue(Message{Type: "snapshot", Collection: CollectionPackages, Packages: pkgs})
	})
	unsubCustomers := f.SubscribeCustomers(func(customers []*models.Customer) {
		c.enqueue(Message{Type: "snapshot", Collection: CollectionCustomers, Customers: customers})
	})

	f.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("websocket client connected")

	go c.writePump()
	go func() {
		c.readPump()
		unsubPackages()
		unsubCustomers()
		f.logger.Debug().
			Str("remote_addr", r.RemoteAddr).
			Int64("dropped", c.dropped.Load()).
			Msg("websocket client disconnected")
	}()
}

func (c *client) enqueue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.feed.logger.Error().Err(err).Msg("failed to encode snapshot")
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.dropped.Add(1)
		c.feed.logger.Warn().Str("collection", string(msg.Collection)).Msg("client send buffer full, dropping snapshot")
	}
}

// readPump discards client input and detects disconnects.
func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.feed.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.feed.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.feed.config.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.feed.logger.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.feed.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case <-c.feed.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.feed.config.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.feed.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.feed.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
