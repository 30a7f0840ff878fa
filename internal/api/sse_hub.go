package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"npdstudio/internal"

	"github.com/gin-gonic/gin"
)

// Upload event types
const (
	EventUploadStarted   = "upload_started"
	EventUploadCompleted = "upload_completed"
)

// SSEClient represents a connected SSE client
type SSEClient struct {
	WorkspaceID string
	Channel     chan UploadEvent
}

// UploadEvent reports a change of a form's upload control
type UploadEvent struct {
	WorkspaceID string                 `json:"workspace_id"`
	FormID      string                 `json:"form_id"`
	EventType   string                 `json:"event_type"`
	State       string                 `json:"state"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// SSEHub fans upload events out to the clients watching a workspace
type SSEHub struct {
	clients    map[string]map[chan UploadEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan UploadEvent
	done       chan struct{}
	closeOnce  sync.Once
	logger     *internal.Logger

	// PingInterval is how often idle connections receive a keep-alive
	PingInterval time.Duration
}

// NewSSEHub creates a new SSE hub and starts its loop
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &SSEHub{
		clients:      make(map[string]map[chan UploadEvent]bool),
		register:     make(chan SSEClient),
		unregister:   make(chan SSEClient, 10),
		broadcast:    make(chan UploadEvent, 100),
		done:         make(chan struct{}),
		logger:       logger,
		PingInterval: 30 * time.Second,
	}

	go hub.run()
	return hub
}

// Close stops the hub loop and disconnects every client
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case <-h.done:
			h.clientsMu.Lock()
			for workspaceID, clients := range h.clients {
				for clientChan := range clients {
					close(clientChan)
				}
				delete(h.clients, workspaceID)
			}
			h.clientsMu.Unlock()
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.WorkspaceID] == nil {
				h.clients[client.WorkspaceID] = make(map[chan UploadEvent]bool)
			}
			h.clients[client.WorkspaceID][client.Channel] = true
			h.logger.Debug("[SSE] Client registered for workspace %s (total clients: %d)",
				client.WorkspaceID, len(h.clients[client.WorkspaceID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.WorkspaceID]; exists {
				if clients[client.Channel] {
					delete(clients, client.Channel)
					close(client.Channel)
				}
				h.logger.Debug("[SSE] Client unregistered from workspace %s (remaining clients: %d)",
					client.WorkspaceID, len(clients))
				if len(clients) == 0 {
					delete(h.clients, client.WorkspaceID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.WorkspaceID] {
				select {
				case clientChan <- event:
				default:
					h.logger.Warn("[SSE] Client channel full for workspace %s, skipping event", event.WorkspaceID)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Broadcast sends an event to all clients watching its workspace
func (h *SSEHub) Broadcast(event UploadEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	case <-h.done:
	default:
		h.logger.Warn("[SSE] Broadcast channel full, dropping event: %s", event.EventType)
	}
}

// Subscribe registers a listener for a workspace. The listener is registered when
// Subscribe returns. The returned cancel function unregisters it; the channel is
// closed once unregistered.
func (h *SSEHub) Subscribe(workspaceID string) (<-chan UploadEvent, func()) {
	clientChan := make(chan UploadEvent, 10)
	client := SSEClient{WorkspaceID: workspaceID, Channel: clientChan}

	select {
	case h.register <- client:
	case <-h.done:
		close(clientChan)
		return clientChan, func() {}
	}

	var once sync.Once
	return clientChan, func() {
		once.Do(func() {
			select {
			case h.unregister <- client:
			case <-h.done:
			}
		})
	}
}

// Stream sends the upload events of one workspace until the client disconnects
func (h *SSEHub) Stream(c *gin.Context, workspaceID string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, cancel := h.Subscribe(workspaceID)
	defer cancel()

	ping := time.NewTicker(h.PingInterval)
	defer ping.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("upload", string(eventJSON))
			return true

		case <-ping.C:
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// GetActiveWorkspaces returns workspaces with connected clients
func (h *SSEHub) GetActiveWorkspaces() []string {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	workspaces := make([]string, 0, len(h.clients))
	for workspaceID := range h.clients {
		workspaces = append(workspaces, workspaceID)
	}
	return workspaces
}

// GetClientCount returns the number of connected clients for a workspace
func (h *SSEHub) GetClientCount(workspaceID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[workspaceID])
}
