package solana

import "context"

// WSClient defines Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSignature subscribes to the status of one transaction signature.
	// The returned channel delivers a single notification and is then closed.
	SubscribeSignature(ctx context.Context, signature string) (<-chan SignatureNotification, error)

	// Lost is closed when the connection fails; outstanding subscriptions never fire after that.
	Lost() <-chan struct{}

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification represents a signatureSubscribe message.
type SignatureNotification struct {
	Signature string
	Slot      uint64
	Err       []byte // raw JSON, nil or "null" on success
}
