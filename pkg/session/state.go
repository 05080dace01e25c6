package session

import (
	"github.com/status-im/status-wallet-session-go/pkg/walletservice"
)

type State string

const (
	Idle                  State = "idle"
	Generating            State = "generating"
	AwaitingMnemonicInput State = "awaiting-mnemonic-input"
	OpeningWallet         State = "opening-wallet"
)

// FlowStatus is the transient UI flow. Draft is only filled while the
// mnemonic input modal is waiting for the user.
type FlowStatus struct {
	State        State  `json:"state"`
	Draft        string `json:"draft,omitempty"`
	ModalVisible bool   `json:"modalVisible"`
}

// Session is the open mnemonic and its wallets. It is replaced as a whole,
// callers must treat Wallets as read-only.
type Session struct {
	Mnemonic string                   `json:"mnemonic"`
	Wallets  *walletservice.WalletSet `json:"wallets,omitempty"`
}

// Open reports whether a generate or open call has completed.
func (s Session) Open() bool {
	return s.Wallets != nil
}

const (
	SessionChanged   = "wallet-session.session-changed"
	FlowStateChanged = "wallet-session.flow-state-changed"
)
