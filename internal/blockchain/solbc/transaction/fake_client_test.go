package transaction

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain"
)

// fakeClient is an in-memory blockchain.Client. sendErrs are returned by
// successive SendTransactionWithOpts calls before sends start succeeding.
type fakeClient struct {
	blockchain.AccountSource

	mu        sync.Mutex
	sendErrs  []error
	sent      []*solana.Transaction
	simResult *blockchain.SimulationResult
	status    *rpc.SignatureStatusesResult
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		simResult: &blockchain.SimulationResult{UnitsConsumed: 1200},
		status: &rpc.SignatureStatusesResult{
			Slot:               77,
			ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
		},
	}
}

func (f *fakeClient) GetRecentBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{1, 2, 3}, nil
}

func (f *fakeClient) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, _ blockchain.TransactionOptions) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		return solana.Signature{}, err
	}
	f.sent = append(f.sent, tx)
	return tx.Signatures[0], nil
}

func (f *fakeClient) SimulateTransaction(context.Context, *solana.Transaction) (*blockchain.SimulationResult, error) {
	return f.simResult, nil
}

func (f *fakeClient) GetSignatureStatuses(context.Context, ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{f.status}}, nil
}

func (f *fakeClient) GetBalance(context.Context, solana.PublicKey, rpc.CommitmentType) (uint64, error) {
	return 0, nil
}

func (f *fakeClient) GetTokenAccountBalance(context.Context, solana.PublicKey, rpc.CommitmentType) (*rpc.UiTokenAmount, error) {
	return &rpc.UiTokenAmount{Amount: "0"}, nil
}

func (f *fakeClient) GetTransaction(context.Context, solana.Signature, rpc.CommitmentType) (*rpc.GetTransactionResult, error) {
	return nil, rpc.ErrNotFound
}

func (f *fakeClient) WaitForTransactionConfirmation(context.Context, solana.Signature, rpc.CommitmentType) error {
	return nil
}

func (f *fakeClient) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type keySigner struct {
	key solana.PrivateKey
}

func newKeySigner() *keySigner {
	return &keySigner{key: solana.NewWallet().PrivateKey}
}

func (s *keySigner) Address() solana.PublicKey { return s.key.PublicKey() }

func (s *keySigner) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	return err
}
