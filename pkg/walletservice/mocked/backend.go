package mocked

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/status-im/status-wallet-session-go/pkg/walletservice"
)

const (
	entropyBits       = 128
	DefaultWalletsNum = 3
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Backend stands in for the remote wallet service. It derives the same
// wallets for the same mnemonic, so open after create is reproducible.
type Backend struct {
	walletsNum int
	logger     *zap.Logger
}

var _ walletservice.WalletService = (*Backend)(nil)

func NewBackend(walletsNum int) *Backend {
	if walletsNum <= 0 {
		walletsNum = DefaultWalletsNum
	}
	return &Backend{
		walletsNum: walletsNum,
		logger:     zap.L().Named("mocked-backend"),
	}
}

func (b *Backend) CreateWallet(ctx context.Context) (*walletservice.CreateWalletResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate entropy")
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate mnemonic")
	}

	wallets, err := b.deriveWallets(mnemonic)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("wallet created", zap.Int("wallets", wallets.Len()))
	return &walletservice.CreateWalletResponse{Mnemonic: mnemonic, Wallets: wallets}, nil
}

func (b *Backend) OpenWallet(ctx context.Context, mnemonic string) (*walletservice.OpenWalletResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	wallets, err := b.deriveWallets(mnemonic)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("wallet opened", zap.Int("wallets", wallets.Len()))
	return &walletservice.OpenWalletResponse{Wallets: wallets}, nil
}

func (b *Backend) deriveWallets(mnemonic string) (*walletservice.WalletSet, error) {
	seed := mnemonicToSeed(mnemonic, "")
	wallets := walletservice.NewWalletSet()

	for i := 1; i <= b.walletsNum; i++ {
		wallet, err := deriveWallet(seed, uint32(i))
		if err != nil {
			return nil, err
		}
		wallets.Add(wallet.Name, wallet)
	}

	return wallets, nil
}

// mnemonicToSeed normalizes before seeding, which bip39.NewSeed leaves to the caller.
func mnemonicToSeed(mnemonic string, password string) []byte {
	return bip39.NewSeed(norm.NFKD.String(mnemonic), norm.NFKD.String(password))
}

func deriveWallet(seed []byte, index uint32) (walletservice.Wallet, error) {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)

	privKey, err := crypto.ToECDSA(crypto.Keccak256(seed, idx[:]))
	if err != nil {
		return walletservice.Wallet{}, errors.Wrapf(err, "failed to derive wallet %d", index)
	}

	return walletservice.Wallet{
		Name:       fmt.Sprintf("Wallet %d", index),
		Address:    crypto.PubkeyToAddress(privKey.PublicKey).Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(privKey)),
	}, nil
}
