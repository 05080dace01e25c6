package mocked

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/status-im/status-wallet-session-go/pkg/walletservice"
)

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter serves the backend over the same endpoints as the remote wallet service.
func NewRouter(backend *Backend) *mux.Router {
	h := &handler{backend: backend}

	r := mux.NewRouter()
	r.HandleFunc(walletservice.CreateWalletPath, h.createWallet).Methods(http.MethodGet)
	r.HandleFunc(walletservice.OpenWalletPath, h.openWallet).Methods(http.MethodPost)
	return r
}

type handler struct {
	backend *Backend
}

func (h *handler) createWallet(w http.ResponseWriter, r *http.Request) {
	resp, err := h.backend.CreateWallet(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) openWallet(w http.ResponseWriter, r *http.Request) {
	var req walletservice.OpenWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}

	resp, err := h.backend.OpenWallet(r.Context(), req.Mnemonic)
	if errors.Is(err, ErrInvalidMnemonic) {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.backend.logger.Error("failed to write response", zap.Error(err))
	}
}
