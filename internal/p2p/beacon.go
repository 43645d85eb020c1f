package p2p

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/solheim-systems/simplecoin/internal/keygen"
)

// Beacon radiates this node's public identity over UDP broadcast every
// BroadcastIntervalSeconds. It runs until ctx is cancelled.
type Beacon struct {
	identity keygen.KeyPair
	logger   *zap.Logger
}

// NewBeacon returns a Beacon that advertises identity's public key.
func NewBeacon(identity keygen.KeyPair, logger *zap.Logger) *Beacon {
	return &Beacon{identity: identity, logger: logger}
}

// Run broadcasts this node's identity on a paced sleep-then-send loop; the
// suspension point is the sleep, per spec section 5. It returns when ctx is
// cancelled.
func (b *Beacon) Run(ctx context.Context) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return fmt.Errorf("p2p: open broadcast socket: %w", err)
	}
	defer conn.Close()

	broadcastAddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("255.255.255.255:%d", ReceivePort))
	if err != nil {
		return fmt.Errorf("p2p: resolve broadcast address: %w", err)
	}

	payload, err := json.Marshal(BeaconMessage{Coin: CoinName, ID: b.identity.Public.Wire()})
	if err != nil {
		return fmt.Errorf("p2p: encode beacon message: %w", err)
	}

	ticker := time.NewTicker(BroadcastIntervalSeconds * time.Second)
	defer ticker.Stop()

	b.logger.Info("beacon started", zap.Int("port", ReceivePort))
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("beacon stopped")
			return nil
		case <-ticker.C:
			if _, err := conn.WriteToUDP(payload, broadcastAddr); err != nil {
				b.logger.Debug("beacon send failed", zap.Error(err))
			}
		}
	}
}
