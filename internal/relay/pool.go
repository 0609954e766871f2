package relay

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"
	"github.com/sirupsen/logrus"

	"notewire/internal/domain"
)

// Pool maintains logical connections to the configured relay endpoints,
// broadcasts signed events to all of them, and multiplexes subscriptions.
// Per-endpoint failures are aggregated and logged; they never fail a
// broadcast (best-effort delivery — retry policy belongs to the caller).
type Pool struct {
	dialer Dialer
	cfg    domain.Settings
	notify domain.Notifier
	log    *logrus.Logger

	mu       sync.Mutex
	status   domain.ConnectionStatus
	conns    map[string]Transport
	subs     map[string]*Subscription
	onactive func()
	cancel   context.CancelFunc
}

// New constructs a disconnected pool.
func New(dialer Dialer, cfg domain.Settings, notify domain.Notifier, log *logrus.Logger) *Pool {
	return &Pool{
		dialer: dialer,
		cfg:    cfg,
		notify: notify,
		log:    log,
		status: domain.ConnDisconnected,
		conns:  make(map[string]Transport),
		subs:   make(map[string]*Subscription),
	}
}

// OnActivity registers a hook invoked on qualifying interactions (publish,
// subscribe, inbound delivery). The identity controller uses it to re-arm
// the auto-lock timer.
func (p *Pool) OnActivity(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onactive = fn
}

// Connect brings the pool up. Idempotent: a connected or connecting pool is
// left untouched. The only hard failure is an empty endpoint set; endpoint
// dials run concurrently and individual failures are logged, surfacing
// later per-operation.
func (p *Pool) Connect(ctx context.Context) error {
	p.mu.Lock()
	if p.status == domain.ConnConnected || p.status == domain.ConnConnecting {
		p.mu.Unlock()
		return nil
	}

	endpoints := normalizeEndpoints(p.cfg.Relays(), p.log)
	if len(endpoints) == 0 {
		p.mu.Unlock()
		return domain.ErrNoEndpoints
	}

	p.setStatusLocked(domain.ConnConnecting)
	readCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	for _, url := range endpoints {
		go p.dialEndpoint(ctx, readCtx, url)
	}

	p.mu.Lock()
	// A concurrent Disconnect may have raced the dials; only promote a
	// pool that is still connecting.
	if p.status == domain.ConnConnecting {
		p.setStatusLocked(domain.ConnConnected)
	}
	p.mu.Unlock()
	return nil
}

func (p *Pool) dialEndpoint(dialCtx, readCtx context.Context, url string) {
	t, err := p.dialer.Dial(dialCtx, url)
	if err != nil {
		p.log.WithError(err).WithField("endpoint", url).Warn("relay dial failed")
		return
	}

	p.mu.Lock()
	if p.status != domain.ConnConnected && p.status != domain.ConnConnecting {
		// Pool was torn down while the dial was in flight.
		p.mu.Unlock()
		_ = t.Close()
		return
	}
	p.conns[url] = t
	// Replay open subscriptions onto the late endpoint.
	for _, sub := range p.subs {
		p.writeEnvelope(readCtx, url, t, &nostr.ReqEnvelope{SubscriptionID: sub.ID, Filters: sub.Filters})
	}
	p.mu.Unlock()

	go p.readLoop(readCtx, url, t)
}

// Disconnect tears down every subscription and endpoint connection. Safe to
// call from any state, including repeatedly and concurrently with in-flight
// operations, which then observe ErrNotConnected.
func (p *Pool) Disconnect() {
	p.mu.Lock()
	if p.status == domain.ConnDisconnected && len(p.conns) == 0 {
		p.mu.Unlock()
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	for _, sub := range p.subs {
		sub.close()
	}
	p.subs = make(map[string]*Subscription)
	conns := p.conns
	p.conns = make(map[string]Transport)
	p.setStatusLocked(domain.ConnDisconnected)
	p.mu.Unlock()

	for url, t := range conns {
		if err := t.Close(); err != nil {
			p.log.WithError(err).WithField("endpoint", url).Debug("transport close")
		}
	}
}

// Publish broadcasts a signed event to every live endpoint concurrently.
// The call succeeds once the broadcast completes; per-endpoint failures are
// aggregated into a single warning.
func (p *Pool) Publish(ctx context.Context, ev *nostr.Event) error {
	p.mu.Lock()
	if p.status != domain.ConnConnected {
		p.mu.Unlock()
		return domain.ErrNotConnected
	}
	conns := p.snapshotLocked()
	fn := p.onactive
	p.mu.Unlock()

	if fn != nil {
		fn()
	}

	env := nostr.EventEnvelope{Event: *ev}
	data, err := json.Marshal(&env)
	if err != nil {
		return err
	}

	p.broadcast(ctx, conns, data, "publish")
	return nil
}

// Subscribe opens a logical subscription across all endpoints and returns
// it. The subscription id is process-unique.
func (p *Pool) Subscribe(ctx context.Context, filters nostr.Filters) (*Subscription, error) {
	p.mu.Lock()
	if p.status != domain.ConnConnected {
		p.mu.Unlock()
		return nil, domain.ErrNotConnected
	}
	sub := newSubscription(uuid.NewString(), filters, p.cfg.SubscriptionTimeout())
	p.subs[sub.ID] = sub
	conns := p.snapshotLocked()
	fn := p.onactive
	p.mu.Unlock()

	if fn != nil {
		fn()
	}

	req := nostr.ReqEnvelope{SubscriptionID: sub.ID, Filters: filters}
	data, err := json.Marshal(&req)
	if err != nil {
		p.removeSubscription(sub.ID)
		return nil, err
	}
	p.broadcast(ctx, conns, data, "subscribe")
	return sub, nil
}

// Unsubscribe closes a logical subscription. An unknown id is a no-op with
// a warning, not an error.
func (p *Pool) Unsubscribe(ctx context.Context, id string) {
	p.mu.Lock()
	sub, ok := p.subs[id]
	if !ok {
		p.mu.Unlock()
		p.log.WithField("subscription", id).Warn("unsubscribe for unknown subscription")
		return
	}
	delete(p.subs, id)
	conns := p.snapshotLocked()
	p.mu.Unlock()

	closeEnv := nostr.CloseEnvelope(id)
	if data, err := json.Marshal(&closeEnv); err == nil {
		p.broadcast(ctx, conns, data, "unsubscribe")
	}
	sub.close()
}

// ConnectionStatus returns the pool's lifecycle state.
func (p *Pool) ConnectionStatus() domain.ConnectionStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Pool) readLoop(ctx context.Context, url string, t Transport) {
	for {
		data, err := t.ReadMessage(ctx)
		if err != nil {
			p.dropEndpoint(url, t)
			return
		}
		if ctx.Err() != nil {
			return
		}
		p.route(url, data)
	}
}

func (p *Pool) route(url string, data []byte) {
	env := nostr.ParseMessage(data)
	if env == nil {
		p.log.WithField("endpoint", url).Debug("unparseable relay message")
		return
	}
	switch env := env.(type) {
	case *nostr.EventEnvelope:
		if env.SubscriptionID == nil {
			return
		}
		p.dispatchEvent(url, *env.SubscriptionID, &env.Event)
	case *nostr.EOSEEnvelope:
		p.dispatchEOSE(url, string(*env))
	case *nostr.NoticeEnvelope:
		p.log.WithField("endpoint", url).WithField("notice", string(*env)).Debug("relay notice")
	}
}

func (p *Pool) dispatchEvent(url, subID string, ev *nostr.Event) {
	p.mu.Lock()
	sub, ok := p.subs[subID]
	fn := p.onactive
	p.mu.Unlock()
	if !ok {
		return
	}

	// Inbound delivery counts as live activity.
	if fn != nil {
		fn()
	}
	if !sub.deliver(ev) {
		p.log.WithField("subscription", subID).Warn("dropping event, consumer not keeping up")
		return
	}
	p.notify.Notify(domain.MessageReceived{SubscriptionID: subID, Endpoint: url, Message: ev})
}

func (p *Pool) dispatchEOSE(url, subID string) {
	p.mu.Lock()
	sub, ok := p.subs[subID]
	p.mu.Unlock()
	if !ok {
		return
	}
	sub.markEOSE(url)
	p.notify.Notify(domain.EndOfStored{SubscriptionID: subID, Endpoint: url})
}

func (p *Pool) dropEndpoint(url string, t Transport) {
	p.mu.Lock()
	if cur, ok := p.conns[url]; ok && cur == t {
		delete(p.conns, url)
	}
	remaining := len(p.conns)
	p.mu.Unlock()
	_ = t.Close()
	p.log.WithField("endpoint", url).WithField("remaining", remaining).Debug("endpoint connection lost")
}

func (p *Pool) writeEnvelope(ctx context.Context, url string, t Transport, env nostr.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := t.WriteMessage(ctx, data); err != nil {
		p.log.WithError(err).WithField("endpoint", url).Debug("envelope write failed")
	}
}

func (p *Pool) removeSubscription(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, id)
}

// broadcast writes data to every transport concurrently and aggregates the
// failures into one warning.
func (p *Pool) broadcast(ctx context.Context, conns map[string]Transport, data []byte, op string) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed []string

	for url, t := range conns {
		wg.Add(1)
		go func(url string, t Transport) {
			defer wg.Done()
			if err := t.WriteMessage(ctx, data); err != nil {
				mu.Lock()
				failed = append(failed, url+": "+err.Error())
				mu.Unlock()
			}
		}(url, t)
	}
	wg.Wait()

	if len(failed) > 0 {
		p.log.WithField("op", op).WithField("failures", strings.Join(failed, "; ")).
			Warn("broadcast incomplete")
	}
}

func (p *Pool) snapshotLocked() map[string]Transport {
	conns := make(map[string]Transport, len(p.conns))
	for url, t := range p.conns {
		conns[url] = t
	}
	return conns
}

func (p *Pool) setStatusLocked(status domain.ConnectionStatus) {
	if p.status == status {
		return
	}
	p.status = status
	p.notify.Notify(domain.ConnectionStatusChanged{Status: status})
}

// normalizeEndpoints deduplicates the configured endpoints and drops any
// without a websocket scheme.
func normalizeEndpoints(urls []string, log *logrus.Logger) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
			log.WithField("endpoint", u).Warn("ignoring endpoint without ws scheme")
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Compile-time assertions against the narrow views other components hold.
var (
	_ domain.Publisher         = (*Pool)(nil)
	_ domain.ConnectionManager = (*Pool)(nil)
)
