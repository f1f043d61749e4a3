package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePeer collects payloads and optionally fails every send.
type fakePeer struct {
	mu       sync.Mutex
	payloads []string
	err      error
}

func (p *fakePeer) Send(payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePeer) received() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.payloads...)
}

// newTestNotifier builds a Notifier whose subscription is already considered
// established, so Register never touches the database.
func newTestNotifier() *Notifier {
	n := &Notifier{
		channel:   "contact_submissions.insert",
		logger:    zap.NewNop(),
		lifecycle: context.Background(),
		peers:     make(map[Peer]struct{}),
	}
	n.subscribeOnce.Do(func() {})
	return n
}

func TestRegisterUnregister(t *testing.T) {
	t.Parallel()

	n := newTestNotifier()
	a, b := &fakePeer{}, &fakePeer{}

	n.Register(a)
	n.Register(b)
	require.Equal(t, 2, n.PeerCount())

	n.Unregister(a)
	require.Equal(t, 1, n.PeerCount())

	// unregistering twice is harmless
	n.Unregister(a)
	require.Equal(t, 1, n.PeerCount())
}

func TestBroadcastReachesEveryPeer(t *testing.T) {
	t.Parallel()

	n := newTestNotifier()
	a, b := &fakePeer{}, &fakePeer{}
	n.Register(a)
	n.Register(b)

	n.Broadcast("41")
	n.Broadcast("42")

	require.Equal(t, []string{"41", "42"}, a.received())
	require.Equal(t, []string{"41", "42"}, b.received())
}

func TestBroadcastSurvivesFailingPeer(t *testing.T) {
	t.Parallel()

	n := newTestNotifier()
	healthy := &fakePeer{}
	broken := &fakePeer{err: errors.New("connection reset")}
	n.Register(broken)
	n.Register(healthy)

	n.Broadcast("99")

	require.Equal(t, []string{"99"}, healthy.received())
}

func TestBroadcastWithoutPeers(t *testing.T) {
	t.Parallel()

	n := newTestNotifier()
	n.Broadcast("no one is listening")
	require.Equal(t, 0, n.PeerCount())
}

func TestConcurrentRegisterBroadcast(t *testing.T) {
	t.Parallel()

	n := newTestNotifier()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p := &fakePeer{}
			n.Register(p)
			n.Unregister(p)
		}()
		go func() {
			defer wg.Done()
			n.Broadcast("payload")
		}()
	}
	wg.Wait()
	require.Equal(t, 0, n.PeerCount())
}
