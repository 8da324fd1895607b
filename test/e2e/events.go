package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/imunetrack/internal/models"
)

// EventsClient follows the backend's /ws/eventos stream
type EventsClient struct {
	conn   *websocket.Conn
	events chan models.Evento
}

type eventsMessage struct {
	Type    string        `json:"type"`
	Payload models.Evento `json:"payload"`
}

// DialEvents connects to the backend event stream
func DialEvents(ctx context.Context, baseURL string) (*EventsClient, error) {
	wsURL := "ws" + strings.TrimPrefix(strings.TrimRight(baseURL, "/"), "http") + "/ws/eventos"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}

	c := &EventsClient{
		conn:   conn,
		events: make(chan models.Evento, 64),
	}
	go c.readLoop()
	return c, nil
}

func (c *EventsClient) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg eventsMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "evento" {
			continue
		}
		select {
		case c.events <- msg.Payload:
		default:
		}
	}
}

// WaitFor returns the first event of eventType received within timeout
func (c *EventsClient) WaitFor(eventType string, timeout time.Duration) (models.Evento, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				return models.Evento{}, fmt.Errorf("event stream closed before %s", eventType)
			}
			if ev.Type == eventType {
				return ev, nil
			}
		case <-timer.C:
			return models.Evento{}, fmt.Errorf("no %s event within %s", eventType, timeout)
		}
	}
}

func (c *EventsClient) Close() error {
	return c.conn.Close()
}
