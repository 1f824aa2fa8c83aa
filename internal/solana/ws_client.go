package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnectionLost is returned to waiting subscribers when the socket read fails.
var ErrConnectionLost = errors.New("websocket connection lost")

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// Commitment is the level signatureSubscribe waits for.
	Commitment Commitment
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription ID.
	SubscribeTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		Commitment:       CommitmentConfirmed,
		PingInterval:     30 * time.Second,
		WriteTimeout:     10 * time.Second,
		SubscribeTimeout: 30 * time.Second,
	}
}

// WSClientImpl implements WSClient using gorilla/websocket.
// It does not reconnect: a lost connection fails every outstanding subscription.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to the waiting subscriber
	subs   map[int64]*signatureSub
	subsMu sync.Mutex

	// pendingSubs maps request ID to a subscriber waiting for its subscription ID
	pendingSubs   map[uint64]*pendingSub
	pendingSubsMu sync.Mutex

	done     chan struct{}
	lost     chan struct{}
	lostOnce sync.Once
	wg       sync.WaitGroup
}

type signatureSub struct {
	signature string
	ch        chan SignatureNotification
}

type pendingSub struct {
	sub     *signatureSub
	confirm chan error
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClientImpl{
		endpoint:    endpoint,
		config:      cfg,
		subs:        make(map[int64]*signatureSub),
		pendingSubs: make(map[uint64]*pendingSub),
		done:        make(chan struct{}),
		lost:        make(chan struct{}),
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn

	c.wg.Add(1)
	go c.readLoop()

	if cfg.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop()
	}

	return c, nil
}

// SubscribeSignature subscribes to a transaction signature.
func (c *WSClientImpl) SubscribeSignature(ctx context.Context, signature string) (<-chan SignatureNotification, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]interface{}{"commitment": c.config.Commitment},
		},
	}

	pending := &pendingSub{
		sub: &signatureSub{
			signature: signature,
			ch:        make(chan SignatureNotification, 1),
		},
		confirm: make(chan error, 1),
	}
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = pending
	c.pendingSubsMu.Unlock()

	c.connMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()

	if err != nil {
		c.dropPending(reqID)
		return nil, fmt.Errorf("write subscribe: %w", err)
	}

	timeout := c.config.SubscribeTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	select {
	case err := <-pending.confirm:
		if err != nil {
			return nil, fmt.Errorf("signatureSubscribe: %w", err)
		}
		return pending.sub.ch, nil
	case <-time.After(timeout):
		c.dropPending(reqID)
		return nil, fmt.Errorf("subscription timeout after %v", timeout)
	case <-c.lost:
		return nil, ErrConnectionLost
	case <-c.done:
		return nil, fmt.Errorf("client closed")
	case <-ctx.Done():
		c.dropPending(reqID)
		return nil, ctx.Err()
	}
}

// Lost is closed when the connection read loop fails.
func (c *WSClientImpl) Lost() <-chan struct{} {
	return c.lost
}

func (c *WSClientImpl) dropPending(reqID uint64) {
	c.pendingSubsMu.Lock()
	delete(c.pendingSubs, reqID)
	c.pendingSubsMu.Unlock()
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			c.lostOnce.Do(func() { close(c.lost) })
			return
		}
		c.handleMessage(message)
	}
}

// handleMessage processes incoming WebSocket message.
func (c *WSClientImpl) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	if msg.Method == "signatureNotification" {
		c.handleSignatureNotification(msg.Params)
		return
	}

	if msg.ID != nil {
		c.handleSubscribeResponse(*msg.ID, msg.Result, msg.Error)
	}
}

// handleSubscribeResponse registers the subscriber under its subscription ID
// before the next message is read, so an immediate notification is not lost.
func (c *WSClientImpl) handleSubscribeResponse(reqID uint64, result json.RawMessage, rpcErr *RPCError) {
	c.pendingSubsMu.Lock()
	pending, ok := c.pendingSubs[reqID]
	if ok {
		delete(c.pendingSubs, reqID)
	}
	c.pendingSubsMu.Unlock()

	if !ok {
		return
	}

	if rpcErr != nil {
		pending.confirm <- rpcErr
		return
	}

	var subID int64
	if err := json.Unmarshal(result, &subID); err != nil {
		pending.confirm <- fmt.Errorf("unmarshal subscription id: %w", err)
		return
	}

	c.subsMu.Lock()
	c.subs[subID] = pending.sub
	c.subsMu.Unlock()

	pending.confirm <- nil
}

// handleSignatureNotification delivers the single notification of a subscription.
// signatureSubscribe auto-cancels after it fires, so the subscription is removed.
func (c *WSClientImpl) handleSignatureNotification(params *wsNotificationParams) {
	if params == nil {
		return
	}

	var value struct {
		Err json.RawMessage `json:"err"`
	}
	if err := json.Unmarshal(params.Result.Value, &value); err != nil {
		// "receivedSignature" notifications carry a string value
		return
	}

	c.subsMu.Lock()
	sub, ok := c.subs[params.Subscription]
	if ok {
		delete(c.subs, params.Subscription)
	}
	c.subsMu.Unlock()

	if !ok {
		return
	}

	notif := SignatureNotification{
		Signature: sub.signature,
		Err:       value.Err,
	}
	if params.Result.Context != nil {
		notif.Slot = params.Result.Context.Slot
	}

	sub.ch <- notif
	close(sub.ch)
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-c.lost:
			return
		case <-ticker.C:
			c.connMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			// a dead connection surfaces as a read error in readLoop
			_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsMessage struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      *uint64               `json:"id,omitempty"`
	Result  json.RawMessage       `json:"result,omitempty"`
	Error   *RPCError             `json:"error,omitempty"`
	Method  string                `json:"method,omitempty"`
	Params  *wsNotificationParams `json:"params,omitempty"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext      `json:"context"`
	Value   json.RawMessage `json:"value"`
}

type wsContext struct {
	Slot uint64 `json:"slot"`
}
