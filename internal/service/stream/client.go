package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"BiasEngine/internal/domain/models"
	drepo "BiasEngine/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a RecordStream backed by a sentiment provider's
// WebSocket feed.
type Client struct {
	apiKey         string
	websocketURL   string
	assets         []models.Asset
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new sentiment RecordStream.
func New(apiKey, websocketURL string, assets []models.Asset, reconnectDelay, pingInterval time.Duration) drepo.RecordStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		assets:         assets,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("sentiment stream connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("sentiment stream: connected")
	return nil
}

// Subscribe subscribes to the configured assets.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("sentiment stream not connected")
	}
	for _, a := range c.assets {
		msg := map[string]string{"type": "subscribe", "asset": string(a)}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", a, err)
		}
		log.Printf("sentiment stream: subscribed %s", a)
	}
	return nil
}

type wsSnapshot struct {
	Asset string  `json:"asset"`
	Long  float64 `json:"long_pct"`
	Short float64 `json:"short_pct"`
	Conf  float64 `json:"confidence"`
	T     int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string       `json:"type"`
	Data []wsSnapshot `json:"data"`
}

// Read streams sentiment snapshots and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.SentimentData, <-chan error) {
	records := make(chan *models.SentimentData, 256)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(records)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("sentiment stream conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("sentiment stream read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-data frames
					continue
				}
				if m.Type != "sentiment" {
					continue
				}
				for _, d := range m.Data {
					snap := &models.SentimentData{
						Asset:           models.Asset(d.Asset),
						Timestamp:       time.Unix(d.T/1000, 0),
						RetailLongPct:   d.Long,
						RetailShortPct:  d.Short,
						ConfidenceLevel: d.Conf,
					}
					select {
					case records <- snap:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return records, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
