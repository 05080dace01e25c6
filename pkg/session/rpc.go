package session

import (
	"encoding/json"

	"github.com/gorilla/rpc"
	"github.com/pkg/errors"
	gorillajson "github.com/gorilla/rpc/json"

	"github.com/status-im/status-wallet-session-go/internal/config"
)

const ServiceName = "wallet"

func CreateRPCServer(cfg *config.Config, opts ...Option) (*rpc.Server, error) {
	rpcServer := rpc.NewServer()
	rpcServer.RegisterCodec(gorillajson.NewCodec(), "application/json")
	err := rpcServer.RegisterTCPService(NewWalletSessionService(cfg, opts...), ServiceName)
	return rpcServer, err
}

// RequestMethod returns the method named by a JSON-RPC payload without
// decoding its params, which may carry a mnemonic.
func RequestMethod(payload []byte) (string, error) {
	var request struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(payload, &request); err != nil {
		return "", errors.Wrap(err, "malformed RPC request")
	}
	if request.Method == "" {
		return "", errors.New("RPC request has no method")
	}
	return request.Method, nil
}
