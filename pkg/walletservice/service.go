package walletservice

import "context"

// WalletService performs every derivation remotely. Any failure, whether
// transport, status or a rejected mnemonic, is reported as an error.
type WalletService interface {
	CreateWallet(ctx context.Context) (*CreateWalletResponse, error)
	OpenWallet(ctx context.Context, mnemonic string) (*OpenWalletResponse, error)
}

const (
	CreateWalletPath = "/create-wallet"
	OpenWalletPath   = "/open-wallet"
)
