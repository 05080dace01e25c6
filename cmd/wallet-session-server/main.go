package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/status-im/status-wallet-session-go/cmd/wallet-session-server/server"
	"github.com/status-im/status-wallet-session-go/internal/config"
	"github.com/status-im/status-wallet-session-go/internal/logging"
)

var (
	address     = flag.String("address", "127.0.0.1:0", "host:port to listen")
	mockBackend = flag.Bool("mock-backend", false, "serve a mocked wallet service under /mock and use it by default")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	rootLogger, err := logging.ReplaceGlobals(cfg.LogEnabled, cfg.LogFile)
	if err != nil {
		fmt.Printf("failed to initialize log: %v\n", err)
	}
	logger := rootLogger.Named("main")

	go handleInterrupts()

	srv := server.NewServer(rootLogger, cfg)
	if *mockBackend {
		srv.EnableMockBackend()
	}
	srv.Setup()

	err = srv.Listen(*address)
	if err != nil {
		logger.Error("failed to start server", zap.Error(err))
		return
	}

	logger.Info("wallet-session-server started", zap.String("address", srv.Address()))
	srv.Serve()
}

// handleInterrupts catches interrupt signal (SIGTERM/SIGINT) and exits.
func handleInterrupts() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	<-ch
	os.Exit(0)
}
