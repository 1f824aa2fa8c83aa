package solana

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTransactionFailed is returned when a transaction landed but its execution failed.
var ErrTransactionFailed = errors.New("transaction failed on-chain")

// statusLister is the subset of RPCClient needed for polling confirmation.
type statusLister interface {
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}

// PollingConfirmer confirms signatures by polling getSignatureStatuses.
type PollingConfirmer struct {
	rpc        statusLister
	commitment Commitment
	interval   time.Duration
	timeout    time.Duration
}

// NewPollingConfirmer creates a confirmer that polls every interval until timeout.
func NewPollingConfirmer(rpc statusLister, commitment Commitment, interval, timeout time.Duration) *PollingConfirmer {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &PollingConfirmer{
		rpc:        rpc,
		commitment: commitment,
		interval:   interval,
		timeout:    timeout,
	}
}

// Confirm polls until the signature reaches the commitment, fails, or the timeout elapses.
// A failed status query ends the wait with that error.
func (p *PollingConfirmer) Confirm(ctx context.Context, signature string) (*SignatureStatus, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{signature})
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("confirmation timed out: %w", ctx.Err())
			}
			return nil, fmt.Errorf("get signature status: %w", err)
		}

		if len(statuses) > 0 && statuses[0] != nil {
			status := statuses[0]
			if status.Failed() {
				return status, fmt.Errorf("%w: %s", ErrTransactionFailed, string(status.Err))
			}
			if status.ConfirmationStatus.Reaches(p.commitment) {
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("confirmation timed out: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// WSConfirmer confirms signatures through signatureSubscribe.
// When rpc is set, one status query after subscribing covers a transaction
// that was confirmed before the subscription became active.
type WSConfirmer struct {
	ws         WSClient
	rpc        statusLister
	commitment Commitment
	timeout    time.Duration
}

// NewWSConfirmer creates a WebSocket-based confirmer. rpc may be nil.
func NewWSConfirmer(ws WSClient, rpc statusLister, commitment Commitment, timeout time.Duration) *WSConfirmer {
	return &WSConfirmer{
		ws:         ws,
		rpc:        rpc,
		commitment: commitment,
		timeout:    timeout,
	}
}

// Confirm waits for the signature notification, an on-chain failure, or the timeout.
func (w *WSConfirmer) Confirm(ctx context.Context, signature string) (*SignatureStatus, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	ch, err := w.ws.SubscribeSignature(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("subscribe signature: %w", err)
	}

	if w.rpc != nil {
		statuses, err := w.rpc.GetSignatureStatuses(ctx, []string{signature})
		if err == nil && len(statuses) > 0 && statuses[0] != nil {
			status := statuses[0]
			if status.Failed() {
				return status, fmt.Errorf("%w: %s", ErrTransactionFailed, string(status.Err))
			}
			if status.ConfirmationStatus.Reaches(w.commitment) {
				return status, nil
			}
		}
	}

	select {
	case notif, ok := <-ch:
		if !ok {
			return nil, ErrConnectionLost
		}
		status := &SignatureStatus{
			Slot:               notif.Slot,
			Err:                notif.Err,
			ConfirmationStatus: w.commitment,
		}
		if status.Failed() {
			return status, fmt.Errorf("%w: %s", ErrTransactionFailed, string(status.Err))
		}
		return status, nil
	case <-w.ws.Lost():
		return nil, ErrConnectionLost
	case <-ctx.Done():
		return nil, fmt.Errorf("confirmation timed out: %w", ctx.Err())
	}
}
