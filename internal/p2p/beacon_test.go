package p2p

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBeaconStopsOnContextCancel(t *testing.T) {
	b := NewBeacon(nodeAKeyPair(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil on clean cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return promptly after context cancellation")
	}
}
