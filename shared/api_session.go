package main

import "C"
import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gorilla/rpc"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/status-im/status-wallet-session-go/internal/config"
	"github.com/status-im/status-wallet-session-go/internal/logging"
	"github.com/status-im/status-wallet-session-go/pkg/session"
)

var (
	globalRPCServer *rpc.Server
)

func marshalError(err error) *C.char {
	response := struct {
		Error string `json:"error"`
	}{
		Error: "",
	}
	if err != nil {
		response.Error = err.Error()
	}
	responseBytes, _ := json.Marshal(response)
	return C.CString(string(responseBytes))
}

func logPanic() {
	err := recover()
	if err != nil {
		zap.L().Error("wallet session binding panicked", zap.Any("panic", err), zap.Stack("stack"))
	}
}

//export WalletSessionInitializeRPC
func WalletSessionInitializeRPC() *C.char {
	defer logPanic()

	cfg, err := config.Load()
	if err != nil {
		return marshalError(err)
	}

	if _, err = logging.ReplaceGlobals(cfg.LogEnabled, cfg.LogFile); err != nil {
		fmt.Printf("failed to initialize log: %v\n", err)
	}

	zap.L().Info("WalletSessionInitializeRPC - start")

	rpcServer, err := session.CreateRPCServer(cfg)
	if err != nil {
		return marshalError(err)
	}
	globalRPCServer = rpcServer

	zap.L().Info("WalletSessionInitializeRPC - ok")
	return marshalError(nil)
}

//export WalletSessionCallRPC
func WalletSessionCallRPC(payload *C.char) *C.char {
	defer logPanic()

	if globalRPCServer == nil {
		return marshalError(errors.New("RPC server not initialized"))
	}

	payloadBytes := []byte(C.GoString(payload))

	method, err := session.RequestMethod(payloadBytes)
	if err != nil {
		return marshalError(err)
	}
	logger := zap.L().With(zap.String("method", method))

	// gorilla/rpc serves HTTP only, the payload is replayed as a local request.
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	started := time.Now()
	globalRPCServer.ServeHTTP(rr, req)

	resp := rr.Result()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("failed to read RPC response", zap.Error(err))
		return marshalError(errors.Wrap(err, "internal error reading response body"))
	}

	logger.Debug("WalletSessionCallRPC", zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(started)))
	return C.CString(string(body))
}
