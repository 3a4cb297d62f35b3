package app

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain"
	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
)

type tokenAccount struct {
	owner  solana.PublicKey
	mint   solana.PublicKey
	amount uint64
}

// fakeChain is an in-memory blockchain.Client that executes the program's
// instructions against its own account map. Chips are minted at
// floor(lamports / price).
type fakeChain struct {
	mu       sync.Mutex
	deriver  *solstrike.Deriver
	slot     uint64
	accounts map[solana.PublicKey]*blockchain.AccountRecord
	tokens   map[solana.PublicKey]*tokenAccount
	metas    map[solana.Signature]*rpc.TransactionMeta
	statuses map[solana.Signature]*rpc.SignatureStatusesResult
	sent     []*solana.Transaction

	// failNext makes the next landed transaction fail without effects.
	failNext interface{}
	// closeRewardsOnClaim closes the ClaimableRewards record on claim
	// instead of zeroing it.
	closeRewardsOnClaim bool
	// admin signed init_global_config; only it may update the SOL price.
	admin solana.PublicKey
}

// rejection is the status error of an instruction that fails with a custom code.
func rejection(index int, code uint32) interface{} {
	return map[string]interface{}{"InstructionError": []interface{}{index, map[string]interface{}{"Custom": code}}}
}

func newFakeChain(deriver *solstrike.Deriver) *fakeChain {
	return &fakeChain{
		deriver:  deriver,
		slot:     100,
		accounts: make(map[solana.PublicKey]*blockchain.AccountRecord),
		tokens:   make(map[solana.PublicKey]*tokenAccount),
		metas:    make(map[solana.Signature]*rpc.TransactionMeta),
		statuses: make(map[solana.Signature]*rpc.SignatureStatusesResult),
	}
}

func (f *fakeChain) put(address solana.PublicKey, lamports uint64, data []byte) {
	f.accounts[address] = &blockchain.AccountRecord{
		Address:  address,
		Owner:    f.deriver.ProgramID(),
		Lamports: lamports,
		Data:     data,
		Slot:     f.slot,
	}
}

func (f *fakeChain) GetAccount(_ context.Context, address solana.PublicKey, _ rpc.CommitmentType) (*blockchain.AccountRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.accounts[address]
	if !ok {
		return nil, blockchain.ErrAccountNotFound
	}
	out := *rec
	out.Data = append([]byte(nil), rec.Data...)
	return &out, nil
}

func (f *fakeChain) GetProgramAccounts(_ context.Context, programID solana.PublicKey, prefix []byte, _ rpc.CommitmentType) ([]*blockchain.AccountRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*blockchain.AccountRecord
	for _, rec := range f.accounts {
		if rec.Owner.Equals(programID) && bytes.HasPrefix(rec.Data, prefix) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeChain) SubscribeAccount(context.Context, solana.PublicKey, rpc.CommitmentType) (blockchain.AccountStream, error) {
	return nil, errors.New("subscriptions not supported")
}

func (f *fakeChain) GetRecentBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{9, 9, 9}, nil
}

func (f *fakeChain) SimulateTransaction(context.Context, *solana.Transaction) (*blockchain.SimulationResult, error) {
	return &blockchain.SimulationResult{UnitsConsumed: 5000}, nil
}

func (f *fakeChain) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, _ blockchain.TransactionOptions) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sig := tx.Signatures[0]
	f.sent = append(f.sent, tx)
	f.slot++
	status := &rpc.SignatureStatusesResult{Slot: f.slot, ConfirmationStatus: rpc.ConfirmationStatusConfirmed}
	f.statuses[sig] = status

	if f.failNext != nil {
		status.Err = f.failNext
		f.metas[sig] = &rpc.TransactionMeta{Err: f.failNext}
		f.failNext = nil
		return sig, nil
	}

	type programCall struct {
		ix       *solstrike.DecodedInstruction
		accounts []solana.PublicKey
	}
	var calls []programCall
	keys := tx.Message.AccountKeys
	for i, ix := range tx.Message.Instructions {
		if !keys[ix.ProgramIDIndex].Equals(f.deriver.ProgramID()) {
			continue
		}
		accounts := make([]solana.PublicKey, len(ix.Accounts))
		for j, idx := range ix.Accounts {
			accounts[j] = keys[idx]
		}
		decoded, err := solstrike.DecodeInstructionData(ix.Data)
		if err != nil {
			return solana.Signature{}, err
		}
		// Transactions are atomic: a rejected instruction leaves no effects.
		if code, ok := f.reject(decoded, accounts); ok {
			status.Err = rejection(i, code)
			f.metas[sig] = &rpc.TransactionMeta{Err: status.Err}
			return sig, nil
		}
		calls = append(calls, programCall{ix: decoded, accounts: accounts})
	}

	meta := &rpc.TransactionMeta{PreTokenBalances: f.tokenBalances()}
	for _, c := range calls {
		f.execute(c.ix, c.accounts)
	}
	meta.PostTokenBalances = f.tokenBalances()
	f.metas[sig] = meta
	return sig, nil
}

// reject applies the program's authority constraint on price updates.
func (f *fakeChain) reject(ix *solstrike.DecodedInstruction, accounts []solana.PublicKey) (uint32, bool) {
	if ix.Kind == solstrike.InstructionKindUpdateSolChipPrice && !accounts[1].Equals(f.admin) {
		return solstrike.ErrorCodeConstraintHasOne, true
	}
	return 0, false
}

func (f *fakeChain) execute(ix *solstrike.DecodedInstruction, accounts []solana.PublicKey) {
	switch ix.Kind {
	case solstrike.InstructionKindInitGlobalConfig:
		f.admin = accounts[0]
		_, bump, _ := f.deriver.GlobalConfig()
		f.put(accounts[1], 1_000_000, (&solstrike.GlobalConfig{SolChipPrice: ix.Amount, Bump: bump}).Marshal())
	case solstrike.InstructionKindInitialize:
		_, bump, _ := f.deriver.Treasury()
		f.put(accounts[0], 1_000_000, mintData(0, 0, accounts[1]))
		f.put(accounts[1], 1_000_000, (&solstrike.Treasury{Bump: bump}).Marshal())
	case solstrike.InstructionKindUpdateSolChipPrice:
		rec := f.accounts[accounts[0]]
		cfg, _ := solstrike.DecodeGlobalConfig(rec.Data)
		cfg.SolChipPrice = ix.Amount
		f.put(accounts[0], rec.Lamports, cfg.Marshal())
	case solstrike.InstructionKindBuyChipWithSol:
		cfg, _ := solstrike.DecodeGlobalConfig(f.accounts[accounts[1]].Data)
		f.accounts[accounts[2]].Lamports += ix.Amount
		f.mint(accounts[4], accounts[0], accounts[3], ix.Amount/cfg.SolChipPrice)
	case solstrike.InstructionKindSetClaimableRewards:
		_, bump, _ := f.deriver.ClaimableRewards(accounts[2])
		f.put(accounts[3], 1_000_000, (&solstrike.ClaimableRewards{Amount: ix.Amount, Bump: bump}).Marshal())
	case solstrike.InstructionKindClaimChips:
		rec := f.accounts[accounts[1]]
		rewards, _ := solstrike.DecodeClaimableRewards(rec.Data)
		f.mint(accounts[4], accounts[0], accounts[3], rewards.Amount)
		if f.closeRewardsOnClaim {
			delete(f.accounts, accounts[1])
			return
		}
		rewards.Amount = 0
		f.put(accounts[1], rec.Lamports, rewards.Marshal())
	}
}

func (f *fakeChain) mint(account, owner, mint solana.PublicKey, amount uint64) {
	acc, ok := f.tokens[account]
	if !ok {
		acc = &tokenAccount{owner: owner, mint: mint}
		f.tokens[account] = acc
	}
	acc.amount += amount
}

func (f *fakeChain) tokenBalances() []rpc.TokenBalance {
	var out []rpc.TokenBalance
	for _, acc := range f.tokens {
		owner := acc.owner
		out = append(out, rpc.TokenBalance{
			Owner:         &owner,
			Mint:          acc.mint,
			UiTokenAmount: &rpc.UiTokenAmount{Amount: strconv.FormatUint(acc.amount, 10)},
		})
	}
	return out
}

func (f *fakeChain) GetSignatureStatuses(_ context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &rpc.GetSignatureStatusesResult{}
	for _, sig := range signatures {
		out.Value = append(out.Value, f.statuses[sig])
	}
	return out, nil
}

func (f *fakeChain) GetBalance(_ context.Context, pubkey solana.PublicKey, _ rpc.CommitmentType) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.accounts[pubkey]; ok {
		return rec.Lamports, nil
	}
	return 0, nil
}

func (f *fakeChain) GetTokenAccountBalance(_ context.Context, account solana.PublicKey, _ rpc.CommitmentType) (*rpc.UiTokenAmount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.tokens[account]
	if !ok {
		return nil, blockchain.ErrAccountNotFound
	}
	return &rpc.UiTokenAmount{Amount: strconv.FormatUint(acc.amount, 10)}, nil
}

func (f *fakeChain) GetTransaction(_ context.Context, signature solana.Signature, _ rpc.CommitmentType) (*rpc.GetTransactionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta, ok := f.metas[signature]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetTransactionResult{Slot: f.statuses[signature].Slot, Meta: meta}, nil
}

func (f *fakeChain) WaitForTransactionConfirmation(context.Context, solana.Signature, rpc.CommitmentType) error {
	return nil
}

func (f *fakeChain) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// mintData lays out an SPL mint: COption<authority>, supply, decimals,
// is_initialized and an empty freeze authority.
func mintData(supply uint64, decimals uint8, authority solana.PublicKey) []byte {
	buf := make([]byte, 82)
	binary.LittleEndian.PutUint32(buf[0:], 1)
	copy(buf[4:36], authority[:])
	binary.LittleEndian.PutUint64(buf[36:], supply)
	buf[44] = decimals
	buf[45] = 1
	return buf
}
