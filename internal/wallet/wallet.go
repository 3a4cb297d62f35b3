// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
)

type ataKey struct {
	mint         solana.PublicKey
	tokenProgram solana.PublicKey
}

// Wallet представляет кошелёк Solana.
type Wallet struct {
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey

	mu       sync.Mutex
	ataCache map[ataKey]solana.PublicKey // Кеш ассоциированных адресов токен-аккаунтов (ATA)
}

func fromPrivateKey(key solana.PrivateKey) *Wallet {
	return &Wallet{
		PrivateKey: key,
		PublicKey:  key.PublicKey(),
		ataCache:   make(map[ataKey]solana.PublicKey),
	}
}

// NewWallet создаёт новый кошелёк из base58-encoded приватного ключа.
func NewWallet(privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(strings.TrimSpace(privateKeyBase58))
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	return fromPrivateKey(solana.PrivateKey(privateKeyBytes)), nil
}

// LoadKeypairFile читает keypair в формате solana-keygen (JSON-массив байтов).
func LoadKeypairFile(path string) (*Wallet, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair %s: %w", path, err)
	}
	return fromPrivateKey(key), nil
}

// Load принимает путь к keypair-файлу или base58-ключ.
func Load(source string) (*Wallet, error) {
	if _, err := os.Stat(source); err == nil {
		return LoadKeypairFile(source)
	}
	return NewWallet(source)
}

// Address реализует transaction.Signer.
func (w *Wallet) Address() solana.PublicKey {
	return w.PublicKey
}

// SignTransaction подписывает транзакцию с помощью приватного ключа кошелька.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey) {
			return &w.PrivateKey
		}
		return nil
	})
	return err
}

// GetATA возвращает адрес ассоциированного токен-аккаунта (ATA) для mint под
// tokenProgram. Нулевой tokenProgram означает Token-2022, как у чипов.
func (w *Wallet) GetATA(mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	if tokenProgram.IsZero() {
		tokenProgram = solstrike.Token2022ProgramID
	}
	key := ataKey{mint: mint, tokenProgram: tokenProgram}

	w.mu.Lock()
	defer w.mu.Unlock()
	if ata, ok := w.ataCache[key]; ok {
		return ata, nil
	}
	ata, err := solstrike.AssociatedTokenAddress(w.PublicKey, mint, tokenProgram)
	if err != nil {
		return solana.PublicKey{}, err
	}
	w.ataCache[key] = ata
	return ata, nil
}

// PrecomputeATAs позволяет заранее рассчитать ATA для списка токенов.
func (w *Wallet) PrecomputeATAs(tokenProgram solana.PublicKey, mints ...solana.PublicKey) error {
	for _, mint := range mints {
		if _, err := w.GetATA(mint, tokenProgram); err != nil {
			return fmt.Errorf("failed to precompute ATA for mint %s: %w", mint.String(), err)
		}
	}
	return nil
}

// CreateAssociatedTokenAccountIdempotentInstruction создаёт ATA owner для mint,
// если его ещё нет. Повторный вызов для существующего аккаунта ничего не делает.
func CreateAssociatedTokenAccountIdempotentInstruction(payer, owner, mint, tokenProgram solana.PublicKey) (solana.Instruction, error) {
	if tokenProgram.IsZero() {
		tokenProgram = solstrike.Token2022ProgramID
	}
	ata, err := solstrike.AssociatedTokenAddress(owner, mint, tokenProgram)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(
		solstrike.AssociatedTokenProgramID,
		[]*solana.AccountMeta{
			{PublicKey: payer, IsWritable: true, IsSigner: true},
			{PublicKey: ata, IsWritable: true, IsSigner: false},
			{PublicKey: owner, IsWritable: false, IsSigner: false},
			{PublicKey: mint, IsWritable: false, IsSigner: false},
			{PublicKey: solstrike.SystemProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: tokenProgram, IsWritable: false, IsSigner: false},
		},
		[]byte{1}, // 1 = CreateIdempotent
	), nil
}

// String возвращает строковое представление кошелька (его публичный ключ).
func (w *Wallet) String() string {
	return w.PublicKey.String()
}
