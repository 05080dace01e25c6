package walletservice

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Wallet is one account derived by the remote service. All fields are opaque
// to the client and are kept exactly as received.
type Wallet struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
	// Balance is absent until fetched separately. Numbers and strings are kept verbatim.
	Balance json.RawMessage `json:"balance,omitempty"`
}

// WalletSet maps a wallet identifier to its Wallet and remembers the order in
// which the service returned the entries.
type WalletSet struct {
	keys    []string
	wallets map[string]Wallet
}

func NewWalletSet() *WalletSet {
	return &WalletSet{wallets: make(map[string]Wallet)}
}

// Add stores the wallet under key. Adding an existing key replaces the wallet
// and keeps its first position.
func (ws *WalletSet) Add(key string, wallet Wallet) {
	if ws.wallets == nil {
		ws.wallets = make(map[string]Wallet)
	}
	if _, ok := ws.wallets[key]; !ok {
		ws.keys = append(ws.keys, key)
	}
	ws.wallets[key] = wallet
}

func (ws *WalletSet) Get(key string) (Wallet, bool) {
	if ws == nil {
		return Wallet{}, false
	}
	w, ok := ws.wallets[key]
	return w, ok
}

func (ws *WalletSet) Len() int {
	if ws == nil {
		return 0
	}
	return len(ws.keys)
}

// Keys returns the identifiers in service order.
func (ws *WalletSet) Keys() []string {
	if ws == nil {
		return nil
	}
	keys := make([]string, len(ws.keys))
	copy(keys, ws.keys)
	return keys
}

// Wallets returns the wallets in service order.
func (ws *WalletSet) Wallets() []Wallet {
	if ws == nil {
		return nil
	}
	wallets := make([]Wallet, 0, len(ws.keys))
	for _, key := range ws.keys {
		wallets = append(wallets, ws.wallets[key])
	}
	return wallets
}

// MarshalJSON writes the set as a JSON object keeping the service order.
func (ws *WalletSet) MarshalJSON() ([]byte, error) {
	if ws == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range ws.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(ws.wallets[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the order of its keys.
func (ws *WalletSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("wallets must be a JSON object")
	}

	set := NewWalletSet()
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.New("wallet key must be a string")
		}

		var wallet Wallet
		if err = dec.Decode(&wallet); err != nil {
			return errors.Wrapf(err, "failed to decode wallet %q", key)
		}
		set.Add(key, wallet)
	}

	if _, err = dec.Token(); err != nil {
		return err
	}

	*ws = *set
	return nil
}

type CreateWalletResponse struct {
	Mnemonic string     `json:"mnemonic"`
	Wallets  *WalletSet `json:"wallets"`
}

type OpenWalletRequest struct {
	Mnemonic string `json:"mnemonic"`
}

type OpenWalletResponse struct {
	Wallets *WalletSet `json:"wallets"`
}
