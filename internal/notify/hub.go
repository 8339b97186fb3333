package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
)

type registration struct {
	deviceUID string
	conn      *websocket.Conn
}

// Hub tracks live websocket connections keyed by device UID and delivers
// notifications to them. A device may hold several connections (phone plus
// laptop); Deliver succeeds if at least one write goes through.
type Hub struct {
	clients    map[string]map[*websocket.Conn]bool
	register   chan registration
	unregister chan registration
	mutex      sync.RWMutex
	// Serializes writes; gorilla/websocket allows one concurrent writer per
	// connection.
	writeMu sync.Mutex
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*websocket.Conn]bool),
		register:   make(chan registration),
		unregister: make(chan registration),
		logger:     logger,
	}
}

// Run owns the client map mutations. It exits when ctx is cancelled, closing
// every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case reg := <-h.register:
			h.mutex.Lock()
			conns, ok := h.clients[reg.deviceUID]
			if !ok {
				conns = make(map[*websocket.Conn]bool)
				h.clients[reg.deviceUID] = conns
			}
			conns[reg.conn] = true
			total := len(conns)
			h.mutex.Unlock()
			h.logger.Debug("websocket client connected",
				zap.String("device_uid", reg.deviceUID),
				zap.Int("device_connections", total))

		case reg := <-h.unregister:
			h.mutex.Lock()
			if conns, ok := h.clients[reg.deviceUID]; ok {
				if conns[reg.conn] {
					delete(conns, reg.conn)
					reg.conn.Close()
				}
				if len(conns) == 0 {
					delete(h.clients, reg.deviceUID)
				}
			}
			h.mutex.Unlock()
			h.logger.Debug("websocket client disconnected",
				zap.String("device_uid", reg.deviceUID))

		case <-ctx.Done():
			h.mutex.Lock()
			for _, conns := range h.clients {
				for conn := range conns {
					conn.Close()
				}
			}
			h.clients = make(map[string]map[*websocket.Conn]bool)
			h.mutex.Unlock()
			return
		}
	}
}

// Register adds a connection for the device and blocks until the reader loop
// ends, then unregisters it.
func (h *Hub) Register(deviceUID string, conn *websocket.Conn) {
	h.register <- registration{deviceUID: deviceUID, conn: conn}
}

// Unregister removes a connection for the device.
func (h *Hub) Unregister(deviceUID string, conn *websocket.Conn) {
	h.unregister <- registration{deviceUID: deviceUID, conn: conn}
}

// Deliver implements Dispatcher. It writes the notification to every live
// connection of the device and reports ErrNotConnected when none succeed.
func (h *Hub) Deliver(_ context.Context, device *domain.Device, n *domain.Notification) error {
	message, err := json.Marshal(n)
	if err != nil {
		return err
	}

	h.mutex.RLock()
	conns := make([]*websocket.Conn, 0, 2)
	for conn := range h.clients[device.DeviceUID] {
		conns = append(conns, conn)
	}
	h.mutex.RUnlock()

	if len(conns) == 0 {
		return ErrNotConnected
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	delivered := false
	for _, conn := range conns {
		if writeErr := conn.WriteMessage(websocket.TextMessage, message); writeErr != nil {
			h.logger.Warn("websocket write failed",
				zap.String("device_uid", device.DeviceUID),
				zap.Error(writeErr))
			h.Unregister(device.DeviceUID, conn)
			continue
		}
		delivered = true
	}
	if !delivered {
		return ErrNotConnected
	}
	return nil
}
