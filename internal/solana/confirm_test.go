package solana

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptedStatuses returns the next scripted status on each call and repeats the last one.
type scriptedStatuses struct {
	mu    sync.Mutex
	steps []*SignatureStatus
	err   error
	calls int
}

func (s *scriptedStatuses) GetSignatureStatuses(_ context.Context, signatures []string) ([]*SignatureStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*SignatureStatus, len(signatures))
	if len(s.steps) == 0 {
		return out, nil
	}
	i := s.calls - 1
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	out[0] = s.steps[i]
	return out, nil
}

func TestPollingConfirmer_WaitsForCommitment(t *testing.T) {
	rpc := &scriptedStatuses{steps: []*SignatureStatus{
		nil,
		{Slot: 10, ConfirmationStatus: CommitmentProcessed},
		{Slot: 10, ConfirmationStatus: CommitmentConfirmed},
	}}

	c := NewPollingConfirmer(rpc, CommitmentConfirmed, time.Millisecond, time.Second)
	status, err := c.Confirm(context.Background(), "sig")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if status.Slot != 10 || status.ConfirmationStatus != CommitmentConfirmed {
		t.Errorf("unexpected status %+v", status)
	}
	if rpc.calls != 3 {
		t.Errorf("expected 3 polls, got %d", rpc.calls)
	}
}

func TestPollingConfirmer_OnChainFailure(t *testing.T) {
	rpc := &scriptedStatuses{steps: []*SignatureStatus{
		{Slot: 11, Err: json.RawMessage(`{"InstructionError":[0,{"Custom":1}]}`), ConfirmationStatus: CommitmentProcessed},
	}}

	c := NewPollingConfirmer(rpc, CommitmentConfirmed, time.Millisecond, time.Second)
	_, err := c.Confirm(context.Background(), "sig")
	if !errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}
}

func TestPollingConfirmer_Timeout(t *testing.T) {
	rpc := &scriptedStatuses{}

	c := NewPollingConfirmer(rpc, CommitmentConfirmed, 5*time.Millisecond, 30*time.Millisecond)
	_, err := c.Confirm(context.Background(), "sig")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPollingConfirmer_QueryError(t *testing.T) {
	rpc := &scriptedStatuses{err: errors.New("node down")}

	c := NewPollingConfirmer(rpc, CommitmentConfirmed, time.Millisecond, time.Second)
	if _, err := c.Confirm(context.Background(), "sig"); err == nil {
		t.Fatal("expected error")
	}
	if rpc.calls != 1 {
		t.Errorf("expected a single query, got %d", rpc.calls)
	}
}

// fakeWS delivers a prepared notification, or nothing.
type fakeWS struct {
	notif     *SignatureNotification
	subErr    error
	lost      chan struct{}
	subscribe int
}

func newFakeWS() *fakeWS {
	return &fakeWS{lost: make(chan struct{})}
}

func (f *fakeWS) SubscribeSignature(_ context.Context, signature string) (<-chan SignatureNotification, error) {
	f.subscribe++
	if f.subErr != nil {
		return nil, f.subErr
	}
	ch := make(chan SignatureNotification, 1)
	if f.notif != nil {
		n := *f.notif
		n.Signature = signature
		ch <- n
		close(ch)
	}
	return ch, nil
}

func (f *fakeWS) Lost() <-chan struct{} { return f.lost }
func (f *fakeWS) Close() error          { return nil }

func TestWSConfirmer_Notification(t *testing.T) {
	ws := newFakeWS()
	ws.notif = &SignatureNotification{Slot: 77, Err: []byte("null")}

	c := NewWSConfirmer(ws, nil, CommitmentConfirmed, time.Second)
	status, err := c.Confirm(context.Background(), "sig")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if status.Slot != 77 {
		t.Errorf("expected slot 77, got %d", status.Slot)
	}
}

func TestWSConfirmer_NotificationFailure(t *testing.T) {
	ws := newFakeWS()
	ws.notif = &SignatureNotification{Slot: 78, Err: []byte(`{"InstructionError":[0,"InvalidAccountData"]}`)}

	c := NewWSConfirmer(ws, nil, CommitmentConfirmed, time.Second)
	_, err := c.Confirm(context.Background(), "sig")
	if !errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}
}

func TestWSConfirmer_AlreadyConfirmed(t *testing.T) {
	ws := newFakeWS()
	rpc := &scriptedStatuses{steps: []*SignatureStatus{{Slot: 9, ConfirmationStatus: CommitmentFinalized}}}

	c := NewWSConfirmer(ws, rpc, CommitmentConfirmed, time.Second)
	status, err := c.Confirm(context.Background(), "sig")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if status.Slot != 9 {
		t.Errorf("expected slot 9 from status query, got %d", status.Slot)
	}
}

func TestWSConfirmer_ConnectionLost(t *testing.T) {
	ws := newFakeWS()
	close(ws.lost)

	c := NewWSConfirmer(ws, nil, CommitmentConfirmed, time.Second)
	_, err := c.Confirm(context.Background(), "sig")
	if !errors.Is(err, ErrConnectionLost) {
		t.Fatalf("expected ErrConnectionLost, got %v", err)
	}
}

func TestWSConfirmer_Timeout(t *testing.T) {
	ws := newFakeWS()

	c := NewWSConfirmer(ws, nil, CommitmentConfirmed, 20*time.Millisecond)
	_, err := c.Confirm(context.Background(), "sig")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWSConfirmer_SubscribeError(t *testing.T) {
	ws := newFakeWS()
	ws.subErr = errors.New("write: broken pipe")

	c := NewWSConfirmer(ws, nil, CommitmentConfirmed, time.Second)
	if _, err := c.Confirm(context.Background(), "sig"); err == nil {
		t.Fatal("expected error")
	}
}
