package signal

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Envelope is the JSON document delivered to the signal handler.
type Envelope struct {
	Type  string      `json:"type"`
	Event interface{} `json:"event"`
}

type SignalHandler func([]byte)

var (
	handlerLock sync.RWMutex
	handler     SignalHandler
)

// SetWalletSessionSignalHandler sets the function that receives every signal.
// Only one handler is kept, a later call replaces the previous one.
func SetWalletSessionSignalHandler(h SignalHandler) {
	handlerLock.Lock()
	defer handlerLock.Unlock()
	handler = h
}

func ResetWalletSessionSignalHandler() {
	SetWalletSessionSignalHandler(nil)
}

// Send marshals the event into an Envelope and passes it to the handler.
func Send(typ string, event interface{}) {
	data, err := json.Marshal(&Envelope{Type: typ, Event: event})
	if err != nil {
		zap.L().Error("failed to marshal signal", zap.String("type", typ), zap.Error(err))
		return
	}

	handlerLock.RLock()
	h := handler
	handlerLock.RUnlock()

	if h == nil {
		zap.L().Debug("no signal handler set, dropping signal", zap.String("type", typ))
		return
	}

	h(data)
}
