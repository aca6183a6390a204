package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

// Conn is the slice of a websocket connection the hub needs. The real
// network conn lives in the ws handlers; tests swap in a fake.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// RFC 6455 text frame opcode, matches websocket.TextMessage.
const textMessage = 1

type ConnectionState int32

const (
	StateConnecting ConnectionState = iota
	StateOpen
	StateClosed
)

// Connection is one live viewer. Writes are serialized through mu so
// concurrent broadcasts never interleave frames on the same conn.
type Connection struct {
	ID string

	conn  Conn
	mu    sync.Mutex
	state int32
}

func (v *Connection) State() ConnectionState {
	return ConnectionState(atomic.LoadInt32(&v.state))
}

func (v *Connection) markOpen() {
	atomic.StoreInt32(&v.state, int32(StateOpen))
}

// MarkClosed flips the connection to its terminal state and closes the
// underlying transport. Safe to call more than once.
func (v *Connection) MarkClosed() {
	if atomic.SwapInt32(&v.state, int32(StateClosed)) != int32(StateClosed) {
		_ = v.conn.Close()
	}
}

func (v *Connection) send(data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.conn.WriteMessage(textMessage, data)
}

// Write pushes one text frame to this connection alone, outside of any
// broadcast.
func (v *Connection) Write(data []byte) error {
	return v.send(data)
}

// Hub keeps the set of live connections and fans poll snapshots out to
// them. Delivery is best-effort and fire-and-forget; a failed write
// closes and removes the connection instead of retrying.
type Hub struct {
	mu          sync.RWMutex
	connections map[*Connection]struct{}
}

var hub *Hub
var once sync.Once

// Default returns the process-wide hub.
func Default() *Hub {
	once.Do(func() {
		hub = NewHub()
	})
	return hub
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[*Connection]struct{}),
	}
}

// Register wraps conn into a live connection and adds it to the set.
// The connection is Open from this point on.
func (v *Hub) Register(conn Conn) *Connection {
	connection := &Connection{
		ID:   uuid.NewString(),
		conn: conn,
	}
	connection.markOpen()

	v.mu.Lock()
	v.connections[connection] = struct{}{}
	v.mu.Unlock()

	log.Debug().Str("connection", connection.ID).Msg("New live connection established.")

	return connection
}

// Unregister removes the connection from the set and closes it. Must be
// called before the conn object could be reused, otherwise the set
// grows without bound.
func (v *Hub) Unregister(connection *Connection) {
	v.mu.Lock()
	delete(v.connections, connection)
	v.mu.Unlock()

	connection.MarkClosed()

	log.Debug().Str("connection", connection.ID).Msg("Live connection closed.")
}

// Len reports the current size of the live set.
func (v *Hub) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.connections)
}

// Broadcast serializes payload once and pushes it to every open
// connection. Connections in any other state are skipped; ones that
// fail mid-send are pruned. No ordering guarantee between two
// concurrent broadcasts.
func (v *Hub) Broadcast(payload any) {
	data, err := jsoniter.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Msg("An error occurred when serializing broadcast payload...")
		return
	}

	v.mu.RLock()
	receivers := make([]*Connection, 0, len(v.connections))
	for connection := range v.connections {
		receivers = append(receivers, connection)
	}
	v.mu.RUnlock()

	for _, connection := range receivers {
		if connection.State() != StateOpen {
			continue
		}
		if err := connection.send(data); err != nil {
			log.Debug().Err(err).Str("connection", connection.ID).Msg("Dropping live connection after failed send.")
			v.Unregister(connection)
		}
	}
}

// Sweep drops every connection that is no longer open and reports how
// many were removed.
func (v *Hub) Sweep() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	var swept int
	for connection := range v.connections {
		if connection.State() != StateOpen {
			delete(v.connections, connection)
			swept++
		}
	}

	return swept
}
