// Package notify bridges a Postgres NOTIFY channel to a set of live peers.
// The subscription is established once, on the first peer, and kept for the
// process lifetime even if every peer disconnects.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Peer receives raw notification payloads. Send must be safe to call from the
// notifier's listen goroutine.
type Peer interface {
	Send(payload string) error
}

// Notifier fans database notifications out to every registered peer.
type Notifier struct {
	channel string
	pool    *pgxpool.Pool
	logger  *zap.Logger

	// lifecycle bounds the LISTEN subscription; it is the process context,
	// not any single request's.
	lifecycle context.Context

	mu    sync.Mutex
	peers map[Peer]struct{}

	subscribeOnce sync.Once
}

// New constructs a Notifier for one named channel. ctx bounds the
// subscription once established (normally until shutdown).
func New(ctx context.Context, pool *pgxpool.Pool, channel string, logger *zap.Logger) *Notifier {
	if pool == nil {
		panic("notifier requires pool")
	}
	if channel == "" {
		panic("notifier requires channel name")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Notifier{
		channel:   channel,
		pool:      pool,
		logger:    logger,
		lifecycle: ctx,
		peers:     make(map[Peer]struct{}),
	}
}

// Register adds a peer and, on the first registration, starts the listen loop.
func (n *Notifier) Register(p Peer) {
	n.mu.Lock()
	n.peers[p] = struct{}{}
	count := len(n.peers)
	n.mu.Unlock()

	n.logger.Info("notify peer registered", zap.Int("peers", count))

	n.subscribeOnce.Do(func() {
		go n.listen(n.lifecycle)
	})
}

// Unregister removes a peer. The subscription stays up.
func (n *Notifier) Unregister(p Peer) {
	n.mu.Lock()
	delete(n.peers, p)
	count := len(n.peers)
	n.mu.Unlock()

	n.logger.Info("notify peer removed", zap.Int("peers", count))
}

// PeerCount reports the current number of registered peers.
func (n *Notifier) PeerCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.peers)
}

// Broadcast delivers the payload to every peer. A failed send is logged and
// does not affect delivery to the others.
func (n *Notifier) Broadcast(payload string) {
	n.mu.Lock()
	peers := make([]Peer, 0, len(n.peers))
	for p := range n.peers {
		peers = append(peers, p)
	}
	n.mu.Unlock()

	for _, p := range peers {
		if err := p.Send(payload); err != nil {
			n.logger.Warn("notify send failed", zap.Error(err))
		}
	}
}

// listen holds a dedicated connection on LISTEN and re-establishes it after
// transient failures.
func (n *Notifier) listen(ctx context.Context) {
	listenSQL := "LISTEN " + pgx.Identifier{n.channel}.Sanitize()

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := n.pool.Acquire(ctx)
		if err != nil {
			n.logger.Error("notify acquire conn failed", zap.Error(err))
			if !n.sleep(ctx, 5*time.Second) {
				return
			}
			continue
		}

		if _, err := conn.Exec(ctx, listenSQL); err != nil {
			n.logger.Error("notify listen failed", zap.String("channel", n.channel), zap.Error(err))
			conn.Release()
			if !n.sleep(ctx, 5*time.Second) {
				return
			}
			continue
		}

		n.logger.Info("notify subscribed", zap.String("channel", n.channel))

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					conn.Release()
					return
				}
				n.logger.Warn("notify wait failed, resubscribing", zap.Error(err))
				break
			}
			n.Broadcast(notification.Payload)
		}

		conn.Release()
	}
}

func (n *Notifier) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
