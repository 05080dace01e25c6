package session

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/status-im/status-wallet-session-go/pkg/clipboard"
	"github.com/status-im/status-wallet-session-go/pkg/walletservice"
)

var errServiceDown = errors.New("service down")

type result struct {
	create *walletservice.CreateWalletResponse
	open   *walletservice.OpenWalletResponse
	err    error
}

type pendingCall struct {
	mnemonic string
	reply    chan result
}

// gatedService blocks every call until the test answers it through the calls
// channel or the call context is cancelled.
type gatedService struct {
	calls chan *pendingCall
}

func newGatedService() *gatedService {
	return &gatedService{calls: make(chan *pendingCall)}
}

func (s *gatedService) wait(ctx context.Context, call *pendingCall) result {
	select {
	case s.calls <- call:
	case <-ctx.Done():
		return result{err: ctx.Err()}
	}
	select {
	case r := <-call.reply:
		return r
	case <-ctx.Done():
		return result{err: ctx.Err()}
	}
}

func (s *gatedService) CreateWallet(ctx context.Context) (*walletservice.CreateWalletResponse, error) {
	r := s.wait(ctx, &pendingCall{reply: make(chan result, 1)})
	return r.create, r.err
}

func (s *gatedService) OpenWallet(ctx context.Context, mnemonic string) (*walletservice.OpenWalletResponse, error) {
	r := s.wait(ctx, &pendingCall{mnemonic: mnemonic, reply: make(chan result, 1)})
	return r.open, r.err
}

// staticService answers immediately with fixed results.
type staticService struct {
	mu         sync.Mutex
	create     *walletservice.CreateWalletResponse
	open       *walletservice.OpenWalletResponse
	err        error
	createHits int
	opened     []string
}

func (s *staticService) CreateWallet(ctx context.Context) (*walletservice.CreateWalletResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createHits++
	if s.err != nil {
		return nil, s.err
	}
	return s.create, nil
}

func (s *staticService) OpenWallet(ctx context.Context, mnemonic string) (*walletservice.OpenWalletResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, mnemonic)
	if s.err != nil {
		return nil, s.err
	}
	return s.open, nil
}

type sentSignal struct {
	typ   string
	event interface{}
}

type signalRecorder struct {
	mu      sync.Mutex
	signals []sentSignal
}

func (r *signalRecorder) send(typ string, event interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, sentSignal{typ: typ, event: event})
}

func (r *signalRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.signals))
	for _, s := range r.signals {
		types = append(types, s.typ)
	}
	return types
}

func (r *signalRecorder) last(typ string) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.signals) - 1; i >= 0; i-- {
		if r.signals[i].typ == typ {
			return r.signals[i].event
		}
	}
	return nil
}

func walletSet(wallets ...walletservice.Wallet) *walletservice.WalletSet {
	set := walletservice.NewWalletSet()
	for _, w := range wallets {
		set.Add(w.Name, w)
	}
	return set
}

var (
	wallet1 = walletservice.Wallet{Name: "Wallet 1", Address: "0xABC", PrivateKey: "0xdef"}
	wallet2 = walletservice.Wallet{Name: "Wallet 2", Address: "0x123", PrivateKey: "0x456"}
)

func newTestController(t *testing.T, service walletservice.WalletService) (*Controller, *signalRecorder) {
	recorder := &signalRecorder{}
	c := NewController(service,
		WithLogger(zap.NewNop()),
		WithSignalSender(recorder.send),
		WithCopier(clipboard.NewCopier(&clipboard.MemoryClipboard{}, clipboard.SignalNotifier{})),
	)
	require.Equal(t, Idle, c.FlowState().State)
	require.False(t, c.CurrentSession().Open())
	return c, recorder
}

func TestGenerateReplacesSession(t *testing.T) {
	resp := &walletservice.CreateWalletResponse{
		Mnemonic: "abandon ability able",
		Wallets:  walletSet(wallet1),
	}
	c, recorder := newTestController(t, &staticService{create: resp})

	c.Generate(context.Background())

	require.Equal(t, Session{Mnemonic: "abandon ability able", Wallets: walletSet(wallet1)}, c.CurrentSession())
	require.Equal(t, FlowStatus{State: Idle}, c.FlowState())
	require.Equal(t, []string{FlowStateChanged, SessionChanged, FlowStateChanged}, recorder.types())
	require.Equal(t, FlowStatus{State: Generating}, recorder.signals[0].event)
	require.Equal(t, c.CurrentSession(), recorder.last(SessionChanged))
}

func TestGenerateDoesNotMergeWithPreviousSession(t *testing.T) {
	service := &staticService{create: &walletservice.CreateWalletResponse{
		Mnemonic: "first phrase",
		Wallets:  walletSet(wallet1, wallet2),
	}}
	c, _ := newTestController(t, service)
	c.Generate(context.Background())

	service.create = &walletservice.CreateWalletResponse{
		Mnemonic: "second phrase",
		Wallets:  walletSet(walletservice.Wallet{Name: "Wallet 9", Address: "0x9", PrivateKey: "0x99"}),
	}
	c.Generate(context.Background())

	s := c.CurrentSession()
	require.Equal(t, "second phrase", s.Mnemonic)
	require.Equal(t, []string{"Wallet 9"}, s.Wallets.Keys())
	_, ok := s.Wallets.Get("Wallet 1")
	require.False(t, ok)
	require.Equal(t, 2, service.createHits)
}

func TestGenerateFailureKeepsSession(t *testing.T) {
	service := &staticService{create: &walletservice.CreateWalletResponse{
		Mnemonic: "kept phrase",
		Wallets:  walletSet(wallet1),
	}}
	c, recorder := newTestController(t, service)
	c.Generate(context.Background())
	before := c.CurrentSession()

	service.err = errServiceDown
	c.Generate(context.Background())

	require.Equal(t, before, c.CurrentSession())
	require.Same(t, before.Wallets, c.CurrentSession().Wallets)
	require.Equal(t, FlowStatus{State: Idle}, c.FlowState())
	require.Equal(t, []string{
		FlowStateChanged, SessionChanged, FlowStateChanged,
		FlowStateChanged, FlowStateChanged,
	}, recorder.types())
	require.Equal(t, 2, service.createHits)
}

func TestGenerateFailureOnEmptySession(t *testing.T) {
	c, _ := newTestController(t, &staticService{err: errServiceDown})

	c.Generate(context.Background())

	require.Equal(t, Session{}, c.CurrentSession())
	require.False(t, c.CurrentSession().Open())
	require.Equal(t, Idle, c.FlowState().State)
}

func TestGenerateTreatsNilResponseAsFailure(t *testing.T) {
	c, _ := newTestController(t, &staticService{})

	c.Generate(context.Background())
	require.False(t, c.CurrentSession().Open())
	require.Equal(t, Idle, c.FlowState().State)

	c.OpenInputModal()
	c.ConfirmOpen(context.Background())
	require.False(t, c.CurrentSession().Open())
}

func TestGenerateReportsInFlightState(t *testing.T) {
	service := newGatedService()
	c, _ := newTestController(t, service)

	done := make(chan struct{})
	go func() {
		c.Generate(context.Background())
		close(done)
	}()

	call := <-service.calls
	require.Equal(t, Generating, c.FlowState().State)

	call.reply <- result{err: errServiceDown}
	<-done
	require.Equal(t, Idle, c.FlowState().State)
}

func TestConfirmOpenCommitsDraft(t *testing.T) {
	service := &staticService{open: &walletservice.OpenWalletResponse{Wallets: walletSet(wallet1)}}
	c, recorder := newTestController(t, service)

	c.OpenInputModal()
	require.Equal(t, FlowStatus{State: AwaitingMnemonicInput, ModalVisible: true}, c.FlowState())

	c.UpdateDraftMnemonic("test phrase")
	require.Equal(t, FlowStatus{State: AwaitingMnemonicInput, Draft: "test phrase", ModalVisible: true}, c.FlowState())

	c.ConfirmOpen(context.Background())

	require.Equal(t, []string{"test phrase"}, service.opened)
	require.Equal(t, Session{Mnemonic: "test phrase", Wallets: walletSet(wallet1)}, c.CurrentSession())
	require.Empty(t, c.Draft())
	require.Equal(t, FlowStatus{State: Idle}, c.FlowState())
	require.Equal(t, c.CurrentSession(), recorder.last(SessionChanged))
	require.Equal(t, FlowStatus{State: Idle}, recorder.last(FlowStateChanged))
}

func TestConfirmOpenUsesSubmittedDraftNotEcho(t *testing.T) {
	service := newGatedService()
	c, _ := newTestController(t, service)

	c.OpenInputModal()
	c.UpdateDraftMnemonic("submitted phrase")

	done := make(chan struct{})
	go func() {
		c.ConfirmOpen(context.Background())
		close(done)
	}()

	call := <-service.calls
	require.Equal(t, "submitted phrase", call.mnemonic)
	require.Equal(t, FlowStatus{State: OpeningWallet, ModalVisible: true}, c.FlowState())

	// Typing while the call is in flight does not change what gets committed.
	c.UpdateDraftMnemonic("edited later")
	call.reply <- result{open: &walletservice.OpenWalletResponse{Wallets: walletSet(wallet2)}}
	<-done

	require.Equal(t, "submitted phrase", c.CurrentSession().Mnemonic)
	require.Empty(t, c.Draft())
}

func TestConfirmOpenAcceptsEmptyDraft(t *testing.T) {
	service := &staticService{err: errServiceDown}
	c, _ := newTestController(t, service)

	c.OpenInputModal()
	c.ConfirmOpen(context.Background())

	require.Equal(t, []string{""}, service.opened)
}

func TestConfirmOpenFailureKeepsSessionDraftAndModal(t *testing.T) {
	service := &staticService{
		create: &walletservice.CreateWalletResponse{Mnemonic: "existing phrase", Wallets: walletSet(wallet1)},
	}
	c, recorder := newTestController(t, service)
	c.Generate(context.Background())
	before := c.CurrentSession()

	service.err = errServiceDown
	c.OpenInputModal()
	c.UpdateDraftMnemonic("not a mnemonic")
	c.ConfirmOpen(context.Background())

	require.Equal(t, before, c.CurrentSession())
	require.Equal(t, "not a mnemonic", c.Draft())
	require.Equal(t, FlowStatus{State: AwaitingMnemonicInput, Draft: "not a mnemonic", ModalVisible: true}, c.FlowState())
	require.Equal(t, c.FlowState(), recorder.last(FlowStateChanged))

	c.CancelOpen()
	require.Equal(t, FlowStatus{State: Idle}, c.FlowState())
	require.Equal(t, before, c.CurrentSession())
}

func TestCancelOpenKeepsDraftAndSession(t *testing.T) {
	service := &staticService{create: &walletservice.CreateWalletResponse{Mnemonic: "phrase", Wallets: walletSet(wallet1)}}
	c, _ := newTestController(t, service)
	c.Generate(context.Background())
	before := c.CurrentSession()

	c.OpenInputModal()
	c.UpdateDraftMnemonic("half typed")
	c.CancelOpen()

	require.Equal(t, FlowStatus{State: Idle}, c.FlowState())
	require.Equal(t, "half typed", c.Draft())
	require.Equal(t, before, c.CurrentSession())

	c.OpenInputModal()
	require.Equal(t, FlowStatus{State: AwaitingMnemonicInput, Draft: "half typed", ModalVisible: true}, c.FlowState())
}

func TestCancelDuringOpenStillCommitsSuccess(t *testing.T) {
	service := newGatedService()
	c, _ := newTestController(t, service)

	c.OpenInputModal()
	c.UpdateDraftMnemonic("phrase")

	done := make(chan struct{})
	go func() {
		c.ConfirmOpen(context.Background())
		close(done)
	}()
	call := <-service.calls

	c.CancelOpen()
	require.Equal(t, FlowStatus{State: Idle}, c.FlowState())

	call.reply <- result{open: &walletservice.OpenWalletResponse{Wallets: walletSet(wallet1)}}
	<-done

	require.Equal(t, "phrase", c.CurrentSession().Mnemonic)
	require.Empty(t, c.Draft())
	require.Equal(t, FlowStatus{State: Idle}, c.FlowState())
}

func TestGenerateWhileModalOpenReturnsToModal(t *testing.T) {
	service := &staticService{create: &walletservice.CreateWalletResponse{Mnemonic: "phrase", Wallets: walletSet(wallet1)}}
	c, _ := newTestController(t, service)

	c.OpenInputModal()
	c.UpdateDraftMnemonic("draft")
	c.Generate(context.Background())

	require.Equal(t, "phrase", c.CurrentSession().Mnemonic)
	require.Equal(t, FlowStatus{State: AwaitingMnemonicInput, Draft: "draft", ModalVisible: true}, c.FlowState())
}

func TestSupersededGenerateIsDropped(t *testing.T) {
	service := newGatedService()
	c, _ := newTestController(t, service)

	firstDone := make(chan struct{})
	go func() {
		c.Generate(context.Background())
		close(firstDone)
	}()
	first := <-service.calls

	secondDone := make(chan struct{})
	go func() {
		c.Generate(context.Background())
		close(secondDone)
	}()
	second := <-service.calls

	second.reply <- result{create: &walletservice.CreateWalletResponse{Mnemonic: "newer", Wallets: walletSet(wallet2)}}
	<-secondDone
	require.Equal(t, "newer", c.CurrentSession().Mnemonic)
	require.Equal(t, Idle, c.FlowState().State)

	first.reply <- result{create: &walletservice.CreateWalletResponse{Mnemonic: "older", Wallets: walletSet(wallet1)}}
	<-firstDone
	require.Equal(t, Session{Mnemonic: "newer", Wallets: walletSet(wallet2)}, c.CurrentSession())
	require.Equal(t, Idle, c.FlowState().State)
}

func TestSupersededCallDoesNotResetInFlightState(t *testing.T) {
	service := newGatedService()
	c, _ := newTestController(t, service)

	firstDone := make(chan struct{})
	go func() {
		c.Generate(context.Background())
		close(firstDone)
	}()
	first := <-service.calls

	c.OpenInputModal()
	c.UpdateDraftMnemonic("phrase")

	secondDone := make(chan struct{})
	go func() {
		c.ConfirmOpen(context.Background())
		close(secondDone)
	}()
	second := <-service.calls

	first.reply <- result{err: errServiceDown}
	<-firstDone
	require.Equal(t, OpeningWallet, c.FlowState().State)

	second.reply <- result{open: &walletservice.OpenWalletResponse{Wallets: walletSet(wallet1)}}
	<-secondDone
	require.Equal(t, Session{Mnemonic: "phrase", Wallets: walletSet(wallet1)}, c.CurrentSession())
	require.Equal(t, FlowStatus{State: Idle}, c.FlowState())
}

func TestCopyToClipboard(t *testing.T) {
	clip := &clipboard.MemoryClipboard{}
	notifier := &countingNotifier{}
	c := NewController(&staticService{},
		WithLogger(zap.NewNop()),
		WithSignalSender(func(string, interface{}) {}),
		WithCopier(clipboard.NewCopier(clip, notifier)),
	)

	c.CopyToClipboard("0xABC")

	require.Equal(t, []string{"0xABC"}, clip.History())
	require.Equal(t, 1, notifier.count)
}

type countingNotifier struct {
	count int
}

func (n *countingNotifier) Acknowledge(title, body string) {
	n.count++
}

func TestSignalsFollowStateChanges(t *testing.T) {
	service := newGatedService()
	recorder := &signalRecorder{}
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	c := NewController(service,
		WithLogger(zap.NewNop()),
		WithSignalSender(func(typ string, event interface{}) {
			once.Do(func() {
				close(entered)
				<-release
			})
			recorder.send(typ, event)
		}),
	)

	done := make(chan struct{})
	go func() {
		c.Generate(context.Background())
		close(done)
	}()

	// The Generating signal is held by the sender while the modal opens.
	<-entered
	c.OpenInputModal()
	close(release)

	call := <-service.calls
	require.Equal(t, []string{FlowStateChanged, FlowStateChanged}, recorder.types())
	require.Equal(t, c.FlowState(), recorder.last(FlowStateChanged))

	call.reply <- result{err: errServiceDown}
	<-done
	require.Equal(t, FlowStatus{State: AwaitingMnemonicInput, ModalVisible: true}, recorder.last(FlowStateChanged))
}

func TestSignalSenderMayReadState(t *testing.T) {
	var c *Controller
	var seen []State
	c = NewController(&staticService{create: &walletservice.CreateWalletResponse{Mnemonic: "m", Wallets: walletSet(wallet1)}},
		WithLogger(zap.NewNop()),
		WithSignalSender(func(typ string, event interface{}) {
			seen = append(seen, c.FlowState().State)
		}),
	)

	c.Generate(context.Background())
	require.Equal(t, []State{Generating, Idle, Idle}, seen)
}

func TestStopCancelsCallInFlight(t *testing.T) {
	service := newGatedService()
	c, recorder := newTestController(t, service)

	done := make(chan struct{})
	go func() {
		c.Generate(context.Background())
		close(done)
	}()
	<-service.calls
	before := recorder.types()

	c.Stop()
	<-done

	require.False(t, c.CurrentSession().Open())
	require.Equal(t, before, recorder.types())

	c.OpenInputModal()
	c.Generate(context.Background())
	require.Equal(t, before, recorder.types())

	c.Stop()
}

func TestStopDropsLateSuccess(t *testing.T) {
	service := newGatedService()
	c, recorder := newTestController(t, service)

	c.OpenInputModal()
	c.UpdateDraftMnemonic("phrase")

	done := make(chan struct{})
	go func() {
		c.ConfirmOpen(context.Background())
		close(done)
	}()
	call := <-service.calls
	before := recorder.types()

	// The reply races the cancellation, either way the result is dropped.
	c.Stop()
	call.reply <- result{open: &walletservice.OpenWalletResponse{Wallets: walletSet(wallet1)}}
	<-done

	require.False(t, c.CurrentSession().Open())
	require.Equal(t, before, recorder.types())
}
