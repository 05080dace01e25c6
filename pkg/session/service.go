package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/status-im/status-wallet-session-go/internal/config"
	"github.com/status-im/status-wallet-session-go/pkg/walletservice"
	"github.com/status-im/status-wallet-session-go/pkg/walletservice/mocked"
)

var (
	errWalletSessionServiceNotStarted = errors.New("wallet session service not started")
)

// WalletSessionService exposes the Controller over JSON-RPC.
type WalletSessionService struct {
	mu         sync.RWMutex
	defaults   config.Config
	controller *Controller
	options    []Option
}

// NewWalletSessionService uses cfg for any StartRequest field left empty.
func NewWalletSessionService(cfg *config.Config, opts ...Option) *WalletSessionService {
	s := &WalletSessionService{options: opts}
	if cfg != nil {
		s.defaults = *cfg
	} else {
		s.defaults = config.Config{ServiceURL: config.DefaultServiceURL, MockedWallets: mocked.DefaultWalletsNum}
	}
	return s
}

// StartRequest overrides the configured defaults. A nil Mocked keeps the
// configured choice.
type StartRequest struct {
	ServiceURL       string `json:"serviceURL" validate:"omitempty,url"`
	RequestTimeoutMs int    `json:"requestTimeoutMs" validate:"gte=0"`
	Mocked           *bool  `json:"mocked,omitempty"`
	MockedWallets    int    `json:"mockedWallets" validate:"gte=0"`
}

func (s *WalletSessionService) Start(args *StartRequest, reply *struct{}) error {
	err := validateRequest(args)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.controller != nil {
		s.controller.Stop()
	}
	s.controller = NewController(s.walletService(args), s.options...)
	return nil
}

func (s *WalletSessionService) Stop(args *struct{}, reply *struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.controller != nil {
		s.controller.Stop()
		s.controller = nil
	}
	return nil
}

func (s *WalletSessionService) GetSession(args *struct{}, reply *Session) error {
	c, err := s.activeController()
	if err != nil {
		return err
	}

	*reply = c.CurrentSession()
	return nil
}

func (s *WalletSessionService) GetFlowState(args *struct{}, reply *FlowStatus) error {
	c, err := s.activeController()
	if err != nil {
		return err
	}

	*reply = c.FlowState()
	return nil
}

// Generate blocks until the wallet service answers and replies with the
// resulting session, which is unchanged if the call failed.
func (s *WalletSessionService) Generate(args *struct{}, reply *Session) error {
	c, err := s.activeController()
	if err != nil {
		return err
	}

	c.Generate(context.Background())
	*reply = c.CurrentSession()
	return nil
}

func (s *WalletSessionService) OpenInputModal(args *struct{}, reply *FlowStatus) error {
	c, err := s.activeController()
	if err != nil {
		return err
	}

	c.OpenInputModal()
	*reply = c.FlowState()
	return nil
}

type UpdateDraftMnemonicRequest struct {
	Text string `json:"text"`
}

func (s *WalletSessionService) UpdateDraftMnemonic(args *UpdateDraftMnemonicRequest, reply *FlowStatus) error {
	c, err := s.activeController()
	if err != nil {
		return err
	}

	c.UpdateDraftMnemonic(args.Text)
	*reply = c.FlowState()
	return nil
}

func (s *WalletSessionService) CancelOpen(args *struct{}, reply *FlowStatus) error {
	c, err := s.activeController()
	if err != nil {
		return err
	}

	c.CancelOpen()
	*reply = c.FlowState()
	return nil
}

func (s *WalletSessionService) ConfirmOpen(args *struct{}, reply *Session) error {
	c, err := s.activeController()
	if err != nil {
		return err
	}

	c.ConfirmOpen(context.Background())
	*reply = c.CurrentSession()
	return nil
}

type CopyToClipboardRequest struct {
	Text string `json:"text"`
}

func (s *WalletSessionService) CopyToClipboard(args *CopyToClipboardRequest, reply *struct{}) error {
	c, err := s.activeController()
	if err != nil {
		return err
	}

	c.CopyToClipboard(args.Text)
	return nil
}

func (s *WalletSessionService) activeController() (*Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.controller == nil {
		return nil, errWalletSessionServiceNotStarted
	}
	return s.controller, nil
}

func (s *WalletSessionService) walletService(args *StartRequest) walletservice.WalletService {
	useMocked := s.defaults.Mocked
	if args.Mocked != nil {
		useMocked = *args.Mocked
	}

	if useMocked {
		walletsNum := args.MockedWallets
		if walletsNum == 0 {
			walletsNum = s.defaults.MockedWallets
		}
		return mocked.NewBackend(walletsNum)
	}

	serviceURL := args.ServiceURL
	if serviceURL == "" {
		serviceURL = s.defaults.ServiceURL
	}

	timeout := s.defaults.RequestTimeout
	if args.RequestTimeoutMs > 0 {
		timeout = time.Duration(args.RequestTimeoutMs) * time.Millisecond
	}

	opts := []walletservice.ClientOption{
		walletservice.WithTimeout(timeout),
		walletservice.WithRateLimit(s.defaults.RateLimit),
	}
	if s.defaults.BreakerEnabled {
		opts = append(opts, walletservice.WithCircuitBreaker(walletservice.NewCircuitBreaker()))
	}

	return walletservice.NewClient(serviceURL, opts...)
}
