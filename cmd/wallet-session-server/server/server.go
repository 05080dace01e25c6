package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/status-im/status-wallet-session-go/internal/config"
	"github.com/status-im/status-wallet-session-go/pkg/clipboard"
	"github.com/status-im/status-wallet-session-go/pkg/session"
	"github.com/status-im/status-wallet-session-go/pkg/walletservice/mocked"
	"github.com/status-im/status-wallet-session-go/signal"
)

const mockPrefix = "/mock"

type Server struct {
	logger          *zap.Logger
	cfg             config.Config
	mockBackend     bool
	server          *http.Server
	listener        net.Listener
	mux             *http.ServeMux
	connectionsLock sync.Mutex
	connections     map[*websocket.Conn]struct{}
	address         string
}

func NewServer(logger *zap.Logger, cfg *config.Config) *Server {
	return &Server{
		logger:      logger.Named("server"),
		cfg:         *cfg,
		connections: make(map[*websocket.Conn]struct{}, 1),
	}
}

// EnableMockBackend serves the mocked wallet service under /mock and makes
// it the default service URL. Must be called before Listen.
func (s *Server) EnableMockBackend() {
	s.mockBackend = true
}

func (s *Server) Address() string {
	return s.address
}

func (s *Server) Port() (int, error) {
	_, portString, err := net.SplitHostPort(s.address)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portString)
}

func (s *Server) Setup() {
	signal.SetWalletSessionSignalHandler(s.signalHandler)
}

const writeTimeout = 5 * time.Second

// signalHandler fans a signal out to every websocket client. Clients that
// cannot take the write are dropped.
func (s *Server) signalHandler(data []byte) {
	s.connectionsLock.Lock()
	defer s.connectionsLock.Unlock()

	delivered := 0
	for connection := range s.connections {
		err := writeSignal(connection, data)
		if err != nil {
			s.logger.Warn("dropping websocket client", zap.Stringer("remote", connection.RemoteAddr()), zap.Error(err))
			delete(s.connections, connection)
			_ = connection.Close()
			continue
		}
		delivered++
	}

	s.logger.Debug("signal broadcast", zap.Int("delivered", delivered))
}

func writeSignal(connection *websocket.Conn, data []byte) error {
	err := connection.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err != nil {
		return errors.Wrap(err, "failed to set write deadline")
	}
	return errors.Wrap(connection.WriteMessage(websocket.TextMessage, data), "failed to write signal")
}

func (s *Server) Listen(address string) error {
	if s.server != nil {
		return errors.New("server already started")
	}

	_, _, err := net.SplitHostPort(address)
	if err != nil {
		return errors.Wrap(err, "invalid address")
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	s.listener = listener
	s.address = listener.Addr().String()
	s.mux = http.NewServeMux()

	cfg := s.cfg
	if s.mockBackend {
		cfg.ServiceURL = "http://" + s.address + mockPrefix
		backend := mocked.NewBackend(cfg.MockedWallets)
		s.mux.Handle(mockPrefix+"/", http.StripPrefix(mockPrefix, mocked.NewRouter(backend)))
		s.logger.Info("mocked wallet service enabled", zap.String("url", cfg.ServiceURL))
	}

	var opts []session.Option
	if cfg.SystemClipboard {
		copier := clipboard.NewCopier(clipboard.SystemClipboard{Logger: s.logger}, clipboard.SignalNotifier{})
		opts = append(opts, session.WithCopier(copier))
	}

	rpcServer, err := session.CreateRPCServer(&cfg, opts...)
	if err != nil {
		_ = listener.Close()
		return errors.Wrap(err, "failed to create RPC server")
	}

	s.mux.HandleFunc("/signals", s.signals)
	s.mux.Handle("/rpc", rpcServer)

	s.server = &http.Server{
		Addr:              s.address,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return nil
}

func (s *Server) Serve() {
	err := s.server.Serve(s.listener)
	if !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("server closed with error", zap.Error(err))
	}
}

// Stop says goodbye to websocket clients before shutting the HTTP server down.
func (s *Server) Stop(ctx context.Context) {
	goingAway := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping")

	s.connectionsLock.Lock()
	for connection := range s.connections {
		err := connection.WriteControl(websocket.CloseMessage, goingAway, time.Now().Add(writeTimeout))
		if err != nil {
			s.logger.Debug("failed to send close message", zap.Error(err))
		}
		if err = connection.Close(); err != nil {
			s.logger.Error("failed to close connection", zap.Error(err))
		}
		delete(s.connections, connection)
	}
	s.connectionsLock.Unlock()

	if s.server == nil {
		return
	}

	err := s.server.Shutdown(ctx)
	if err != nil {
		s.logger.Error("failed to shutdown server", zap.Error(err))
	}

	s.server = nil
	s.address = ""
}

func (s *Server) signals(w http.ResponseWriter, r *http.Request) {
	s.connectionsLock.Lock()
	defer s.connectionsLock.Unlock()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Accepting all requests
		},
	}

	connection, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	s.logger.Debug("new websocket connection")

	s.connections[connection] = struct{}{}
}

func (s *Server) connectionsCount() int {
	s.connectionsLock.Lock()
	defer s.connectionsLock.Unlock()
	return len(s.connections)
}
