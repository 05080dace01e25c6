package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/status-im/status-wallet-session-go/pkg/clipboard"
	"github.com/status-im/status-wallet-session-go/pkg/walletservice"
	"github.com/status-im/status-wallet-session-go/signal"
)

var errEmptyResponse = errors.New("empty response from wallet service")

// Controller owns the wallet session and the UI flow around it. Views read
// snapshots through CurrentSession and FlowState, or subscribe to the
// SessionChanged and FlowStateChanged signals. They never mutate state directly.
//
// Every Generate and ConfirmOpen call takes a token when it is issued. When
// the call settles its result is applied only if no later call was issued in
// the meantime, otherwise it is dropped without touching any state.
//
// Signals are delivered in the order the state changed, one at a time and
// never while the state lock is held.
type Controller struct {
	mu      sync.Mutex
	service walletservice.WalletService
	copier  *clipboard.Copier
	send    func(typ string, event interface{})
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	session      Session
	state        State
	modalVisible bool
	draft        string
	latest       uint64
	stopped      bool

	pending  []event
	draining bool
}

type event struct {
	typ     string
	payload interface{}
}

func NewController(service walletservice.WalletService, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		service: service,
		copier:  clipboard.NewCopier(clipboard.SignalClipboard{}, clipboard.SignalNotifier{}),
		send:    signal.Send,
		logger:  zap.L().Named("wallet-session"),
		ctx:     ctx,
		cancel:  cancel,
		state:   Idle,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Stop cancels the wallet calls in flight and silences the controller. Results
// settling afterwards are dropped and no further signals are sent.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.latest++
	c.mu.Unlock()

	c.cancel()
	c.logger.Debug("controller stopped")
}

// Generate asks the wallet service for a new mnemonic and replaces the
// session with the response. Failures leave the session untouched.
func (c *Controller) Generate(ctx context.Context) {
	token, _ := c.begin(Generating)

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.service.CreateWallet(ctx)
	if err == nil && resp == nil {
		err = errEmptyResponse
	}
	res := settle(resp, err)
	if res.Failed() {
		c.discard(token, "generate", res.Err)
		return
	}

	c.commit(token, "generate", func() {
		c.session = newSession(res.Value.Mnemonic, res.Value.Wallets)
	})
}

func (c *Controller) OpenInputModal() {
	c.mu.Lock()
	c.state = AwaitingMnemonicInput
	c.modalVisible = true
	c.unlockAndSend(event{FlowStateChanged, c.flowStatusLocked()})
}

// UpdateDraftMnemonic stores the text typed so far. Any string is accepted.
func (c *Controller) UpdateDraftMnemonic(text string) {
	c.mu.Lock()
	c.draft = text
	c.unlockAndSend(event{FlowStateChanged, c.flowStatusLocked()})
}

// CancelOpen closes the input modal. The draft is kept.
func (c *Controller) CancelOpen() {
	c.mu.Lock()
	c.state = Idle
	c.modalVisible = false
	c.unlockAndSend(event{FlowStateChanged, c.flowStatusLocked()})
}

// ConfirmOpen submits the draft to the wallet service. On success the draft
// becomes the session mnemonic, the draft is cleared and the modal closes.
// On failure the session, the draft and the modal are left as they were.
func (c *Controller) ConfirmOpen(ctx context.Context) {
	token, draft := c.begin(OpeningWallet)

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.service.OpenWallet(ctx, draft)
	if err == nil && resp == nil {
		err = errEmptyResponse
	}
	res := settle(resp, err)
	if res.Failed() {
		c.discard(token, "open", res.Err)
		return
	}

	c.commit(token, "open", func() {
		c.session = newSession(draft, res.Value.Wallets)
		c.draft = ""
		c.modalVisible = false
	})
}

// CopyToClipboard copies the mnemonic, an address or a private key verbatim.
func (c *Controller) CopyToClipboard(text string) {
	c.copier.Copy(text)
}

func (c *Controller) CurrentSession() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) FlowState() FlowStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flowStatusLocked()
}

func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) begin(state State) (token uint64, draft string) {
	c.mu.Lock()
	c.latest++
	token = c.latest
	draft = c.draft
	c.state = state
	c.unlockAndSend(event{FlowStateChanged, c.flowStatusLocked()})

	c.logger.Debug("wallet call issued", zap.String("state", string(state)), zap.Uint64("token", token))
	return token, draft
}

// callContext is cancelled with ctx or when the controller stops.
func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// discard settles a failed call. The error is logged and nothing else is reported.
func (c *Controller) discard(token uint64, operation string, err error) {
	c.mu.Lock()
	if token != c.latest {
		c.mu.Unlock()
		c.logger.Debug("dropping superseded failure", zap.String("operation", operation), zap.Uint64("token", token))
		return
	}
	c.state = c.restingStateLocked()
	c.logger.Warn("wallet call failed", zap.String("operation", operation), zap.Uint64("token", token), zap.Error(err))
	c.unlockAndSend(event{FlowStateChanged, c.flowStatusLocked()})
}

func (c *Controller) commit(token uint64, operation string, apply func()) {
	c.mu.Lock()
	if token != c.latest {
		c.mu.Unlock()
		c.logger.Debug("dropping superseded result", zap.String("operation", operation), zap.Uint64("token", token))
		return
	}
	apply()
	c.state = c.restingStateLocked()
	c.logger.Info("session replaced", zap.String("operation", operation), zap.Int("wallets", c.session.Wallets.Len()))
	c.unlockAndSend(
		event{SessionChanged, c.session},
		event{FlowStateChanged, c.flowStatusLocked()},
	)
}

// unlockAndSend must be called with c.mu held. Events are queued under the
// lock and delivered by whichever caller is already draining the queue.
func (c *Controller) unlockAndSend(events ...event) {
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, events...)
	if c.draining {
		c.mu.Unlock()
		return
	}

	c.draining = true
	for len(c.pending) > 0 && !c.stopped {
		batch := c.pending
		c.pending = nil
		c.mu.Unlock()

		for _, e := range batch {
			c.send(e.typ, e.payload)
		}

		c.mu.Lock()
	}
	c.pending = nil
	c.draining = false
	c.mu.Unlock()
}
