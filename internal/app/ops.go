// internal/app/ops.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	agbin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain"
	"github.com/rovshanmuradov/solstrike-client/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
	"github.com/rovshanmuradov/solstrike-client/internal/economy"
	"github.com/rovshanmuradov/solstrike-client/internal/wallet"
)

// MintInfo is the base layout of the chip mint. Token-2022 extensions that
// follow it are ignored.
type MintInfo struct {
	Address         solana.PublicKey
	Supply          uint64
	Decimals        uint8
	MintAuthority   *solana.PublicKey
	FreezeAuthority *solana.PublicKey
}

// PDAReport lists the program's singletons and what is stored under them.
type PDAReport struct {
	ProgramID     solana.PublicKey
	Addresses     solstrike.Addresses
	Mint          *MintInfo // nil until initialize ran
	GlobalConfigs []solstrike.Keyed[solstrike.GlobalConfig]
	Treasuries    []solstrike.Keyed[solstrike.Treasury]
}

// PDAs derives the singleton addresses and lists every GlobalConfig and
// Treasury record with its balance.
func (a *App) PDAs(ctx context.Context) (*PDAReport, error) {
	addrs, err := a.deriver.Singletons()
	if err != nil {
		return nil, err
	}
	report := &PDAReport{ProgramID: a.ProgramID(), Addresses: *addrs}

	if report.Mint, err = a.ChipMint(ctx); err != nil && !errors.Is(err, blockchain.ErrAccountNotFound) {
		return nil, err
	}
	if report.GlobalConfigs, err = a.program.ListGlobalConfigs(ctx); err != nil {
		return nil, err
	}
	if report.Treasuries, err = a.program.ListTreasuries(ctx); err != nil {
		return nil, err
	}
	return report, nil
}

// ChipMint reads and decodes the chip mint.
func (a *App) ChipMint(ctx context.Context) (*MintInfo, error) {
	address, _, err := a.deriver.ChipMint()
	if err != nil {
		return nil, err
	}
	rec, err := a.chain.GetAccount(ctx, address, a.commitment)
	if err != nil {
		return nil, fmt.Errorf("chip mint %s: %w", address, err)
	}
	var mint token.Mint
	if err := agbin.NewBinDecoder(rec.Data).Decode(&mint); err != nil {
		return nil, fmt.Errorf("decode chip mint %s: %w", address, err)
	}
	return &MintInfo{
		Address:         address,
		Supply:          mint.Supply,
		Decimals:        mint.Decimals,
		MintAuthority:   mint.MintAuthority,
		FreezeAuthority: mint.FreezeAuthority,
	}, nil
}

// InitReport holds the statuses of the two setup transactions. A nil status
// means the step had already been done.
type InitReport struct {
	GlobalConfig *transaction.Status
	Initialize   *transaction.Status
}

// Init creates GlobalConfig at chipPrice lamports per chip, then the chip
// mint and the treasury. Steps that already ran are skipped.
func (a *App) Init(ctx context.Context, chipPrice uint64) (*InitReport, error) {
	if chipPrice == 0 {
		return nil, economy.ErrZeroPrice
	}
	tm, w, err := a.transactions()
	if err != nil {
		return nil, err
	}
	addrs, err := a.deriver.Singletons()
	if err != nil {
		return nil, err
	}
	report := &InitReport{}

	if _, err := a.program.FetchGlobalConfig(ctx); errors.Is(err, solstrike.ErrAccountNotFound) {
		ix, err := solstrike.NewInitGlobalConfigInstruction(solstrike.InitGlobalConfigAccounts{
			Signer:       w.PublicKey,
			GlobalConfig: addrs.GlobalConfig,
			Programs:     a.programs,
		}, chipPrice, a.encodeOpts()...)
		if err != nil {
			return nil, err
		}
		if report.GlobalConfig, err = a.send(ctx, tm, solstrike.InstructionKindInitGlobalConfig, w.PublicKey, chipPrice, ix); err != nil {
			return report, err
		}
	} else if err != nil {
		return nil, err
	} else {
		a.logger.Info("Global config already initialized", zap.String("address", addrs.GlobalConfig.String()))
	}

	if _, err := a.program.FetchTreasury(ctx); errors.Is(err, solstrike.ErrAccountNotFound) {
		ix, err := solstrike.NewInitializeInstruction(solstrike.InitializeAccounts{
			ChipMint: addrs.ChipMint,
			Treasury: addrs.Treasury,
			Signer:   w.PublicKey,
			Programs: a.programs,
		}, a.encodeOpts()...)
		if err != nil {
			return nil, err
		}
		if report.Initialize, err = a.send(ctx, tm, solstrike.InstructionKindInitialize, w.PublicKey, 0, ix); err != nil {
			return report, err
		}
	} else if err != nil {
		return report, err
	} else {
		a.logger.Info("Chip mint and treasury already initialized", zap.String("treasury", addrs.Treasury.String()))
	}
	return report, nil
}

// BuyReport describes a landed purchase and what the chain recorded for it.
type BuyReport struct {
	Status      *transaction.Status
	Supplied    uint64
	Price       uint64
	Expected    uint64
	Observation *economy.BuyObservation
}

// BuyWithSol spends lamports on chips, creating the buyer's Token-2022 chip
// account when missing. After landing it reads the recorded balances and
// checks them against the configured rounding rule; a violation is returned
// together with the report.
func (a *App) BuyWithSol(ctx context.Context, lamports uint64) (*BuyReport, error) {
	tm, w, err := a.transactions()
	if err != nil {
		return nil, err
	}
	cfg, err := a.program.FetchGlobalConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := economy.ValidateGlobalConfig(cfg.Value); err != nil {
		return nil, err
	}
	price := cfg.Value.SolChipPrice
	expected, err := a.pricing.ChipsForLamports(lamports, price)
	if err != nil {
		return nil, err
	}

	addrs, err := a.deriver.Singletons()
	if err != nil {
		return nil, err
	}
	chipAccount, ixs, err := a.chipAccount(w, addrs.ChipMint)
	if err != nil {
		return nil, err
	}
	buy, err := solstrike.NewBuyChipWithSolInstruction(solstrike.BuyChipWithSolAccounts{
		Buyer:            w.PublicKey,
		GlobalConfig:     addrs.GlobalConfig,
		Treasury:         addrs.Treasury,
		ChipMint:         addrs.ChipMint,
		BuyerChipAccount: chipAccount,
		Programs:         a.programs,
	}, lamports, a.encodeOpts()...)
	if err != nil {
		return nil, err
	}

	status, err := a.send(ctx, tm, solstrike.InstructionKindBuyChipWithSol, w.PublicKey, lamports, append(ixs, buy)...)
	if err != nil {
		return nil, err
	}
	report := &BuyReport{Status: status, Supplied: lamports, Price: price, Expected: expected}

	obs, err := a.observeBuy(ctx, status, w.PublicKey, addrs.ChipMint, lamports, price)
	if err != nil {
		return report, err
	}
	report.Observation = obs
	a.recordBuy(ctx, status, obs)
	return report, economy.CheckBuyInvariant(*obs, a.pricing.Rule)
}

func (a *App) observeBuy(ctx context.Context, status *transaction.Status, owner, chipMint solana.PublicKey, supplied, price uint64) (*economy.BuyObservation, error) {
	sig, err := solana.SignatureFromBase58(status.Signature)
	if err != nil {
		return nil, err
	}
	res, err := a.chain.GetTransaction(ctx, sig, a.commitment)
	if err != nil {
		return nil, fmt.Errorf("read landed transaction %s: %w", sig, err)
	}
	return economy.ObserveBuy(res.Meta, owner, chipMint, supplied, price)
}

// chipAccount returns the wallet's chip account together with the
// idempotent instruction creating it.
func (a *App) chipAccount(w *wallet.Wallet, chipMint solana.PublicKey) (solana.PublicKey, []solana.Instruction, error) {
	ata, err := w.GetATA(chipMint, solstrike.Token2022ProgramID)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	create, err := wallet.CreateAssociatedTokenAccountIdempotentInstruction(w.PublicKey, w.PublicKey, chipMint, solstrike.Token2022ProgramID)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return ata, []solana.Instruction{create}, nil
}

// BuyWithToken spends amount base units of an SPL payment token on chips.
// tokenProgram owns both the payment mint and the chip mint in this call.
func (a *App) BuyWithToken(ctx context.Context, paymentMint, tokenProgram solana.PublicKey, amount uint64) (*BuyReport, error) {
	tm, w, err := a.transactions()
	if err != nil {
		return nil, err
	}
	state, err := a.program.FetchChipTokenPriceState(ctx, paymentMint)
	if err != nil {
		return nil, err
	}
	if err := economy.ValidateTokenPriceState(state.Value, paymentMint); err != nil {
		return nil, err
	}
	expected, err := a.pricing.ChipsForTokens(amount, state.Value.TokenPrice)
	if err != nil {
		return nil, err
	}

	programs := a.programs
	if !tokenProgram.IsZero() {
		programs.TokenProgram = tokenProgram
	}
	addrs, err := a.deriver.Singletons()
	if err != nil {
		return nil, err
	}
	treasuryTokens, err := solstrike.AssociatedTokenAddress(addrs.Treasury, paymentMint, programs.TokenProgram)
	if err != nil {
		return nil, err
	}
	buyerTokens, err := w.GetATA(paymentMint, programs.TokenProgram)
	if err != nil {
		return nil, err
	}
	chipAccount, ixs, err := a.chipAccount(w, addrs.ChipMint)
	if err != nil {
		return nil, err
	}

	buy, err := solstrike.NewBuyChipInstruction(solstrike.BuyChipAccounts{
		ChipTokenPriceState:  state.Address,
		Treasury:             addrs.Treasury,
		TreasuryTokenAccount: treasuryTokens,
		Buyer:                w.PublicKey,
		ChipMint:             addrs.ChipMint,
		BuyerChipAccount:     chipAccount,
		BuyerTokenAccount:    buyerTokens,
		PaymentTokenMint:     paymentMint,
		Programs:             programs,
	}, amount, a.encodeOpts()...)
	if err != nil {
		return nil, err
	}
	status, err := a.send(ctx, tm, solstrike.InstructionKindBuyChip, w.PublicKey, amount, append(ixs, buy)...)
	if err != nil {
		return nil, err
	}
	return &BuyReport{Status: status, Supplied: amount, Price: state.Value.TokenPrice, Expected: expected}, nil
}

// AddToken registers paymentMint at tokenPrice base units per chip.
func (a *App) AddToken(ctx context.Context, paymentMint, tokenProgram solana.PublicKey, tokenPrice uint64) (*transaction.Status, error) {
	if tokenPrice == 0 {
		return nil, economy.ErrZeroPrice
	}
	tm, w, err := a.transactions()
	if err != nil {
		return nil, err
	}
	programs := a.programs
	if !tokenProgram.IsZero() {
		programs.TokenProgram = tokenProgram
	}
	priceState, _, err := a.deriver.ChipTokenPriceState(paymentMint)
	if err != nil {
		return nil, err
	}
	treasury, _, err := a.deriver.Treasury()
	if err != nil {
		return nil, err
	}
	treasuryTokens, err := solstrike.AssociatedTokenAddress(treasury, paymentMint, programs.TokenProgram)
	if err != nil {
		return nil, err
	}
	ix, err := solstrike.NewAddTokenInstruction(solstrike.AddTokenAccounts{
		ChipTokenPriceState:  priceState,
		Treasury:             treasury,
		TreasuryTokenAccount: treasuryTokens,
		Signer:               w.PublicKey,
		PaymentTokenMint:     paymentMint,
		Programs:             programs,
	}, tokenPrice, a.encodeOpts()...)
	if err != nil {
		return nil, err
	}
	return a.send(ctx, tm, solstrike.InstructionKindAddToken, w.PublicKey, tokenPrice, ix)
}

// Reserve locks amount chips of the wallet for play.
func (a *App) Reserve(ctx context.Context, amount uint64) (*transaction.Status, error) {
	tm, w, err := a.transactions()
	if err != nil {
		return nil, err
	}
	chipMint, _, err := a.deriver.ChipMint()
	if err != nil {
		return nil, err
	}
	chipAccount, err := w.GetATA(chipMint, solstrike.Token2022ProgramID)
	if err != nil {
		return nil, err
	}
	ix, err := solstrike.NewReserveChipsInstruction(solstrike.ReserveChipsAccounts{
		Signer:          w.PublicKey,
		ChipMint:        chipMint,
		UserChipAccount: chipAccount,
		Programs:        a.programs,
	}, amount, a.encodeOpts()...)
	if err != nil {
		return nil, err
	}
	return a.send(ctx, tm, solstrike.InstructionKindReserveChips, w.PublicKey, amount, ix)
}

// PriceUpdate is the before/after view of a price change.
type PriceUpdate struct {
	Status *transaction.Status
	Before uint64
	After  uint64
}

// UpdateSolPrice sets the SOL chip price and checks that nothing but the
// price changed.
func (a *App) UpdateSolPrice(ctx context.Context, newPrice uint64) (*PriceUpdate, error) {
	if newPrice == 0 {
		return nil, economy.ErrZeroPrice
	}
	tm, w, err := a.transactions()
	if err != nil {
		return nil, err
	}
	before, err := a.program.FetchGlobalConfig(ctx)
	if err != nil {
		return nil, err
	}
	ix, err := solstrike.NewUpdateSolChipPriceInstruction(solstrike.UpdateSolChipPriceAccounts{
		GlobalConfig: before.Address,
		Signer:       w.PublicKey,
	}, newPrice, a.encodeOpts()...)
	if err != nil {
		return nil, err
	}
	status, err := a.send(ctx, tm, solstrike.InstructionKindUpdateSolChipPrice, w.PublicKey, newPrice, ix)
	if err != nil {
		return nil, err
	}

	after, err := a.program.FetchGlobalConfig(ctx)
	if err != nil {
		return nil, err
	}
	update := &PriceUpdate{Status: status, Before: before.Value.SolChipPrice, After: after.Value.SolChipPrice}
	return update, economy.CheckPriceUpdate(before.Value, after.Value, newPrice)
}

// UpdateTokenPrice sets the chip price in paymentMint.
func (a *App) UpdateTokenPrice(ctx context.Context, paymentMint solana.PublicKey, newPrice uint64) (*PriceUpdate, error) {
	if newPrice == 0 {
		return nil, economy.ErrZeroPrice
	}
	tm, w, err := a.transactions()
	if err != nil {
		return nil, err
	}
	before, err := a.program.FetchChipTokenPriceState(ctx, paymentMint)
	if err != nil {
		return nil, err
	}
	ix, err := solstrike.NewUpdateChipTokenPriceInstruction(solstrike.UpdateChipTokenPriceAccounts{
		ChipTokenPriceState: before.Address,
		Signer:              w.PublicKey,
		TokenMint:           paymentMint,
	}, newPrice, a.encodeOpts()...)
	if err != nil {
		return nil, err
	}
	status, err := a.send(ctx, tm, solstrike.InstructionKindUpdateChipTokenPrice, w.PublicKey, newPrice, ix)
	if err != nil {
		return nil, err
	}

	after, err := a.program.FetchChipTokenPriceState(ctx, paymentMint)
	if err != nil {
		return nil, err
	}
	update := &PriceUpdate{Status: status, Before: before.Value.TokenPrice, After: after.Value.TokenPrice}
	return update, economy.CheckTokenPriceUpdate(before.Value, after.Value, newPrice)
}

// SetRewards records amount claimable chips for recipient and feeds the
// landed record to the reward ledger.
func (a *App) SetRewards(ctx context.Context, recipient solana.PublicKey, amount uint64) (*transaction.Status, error) {
	tm, w, err := a.transactions()
	if err != nil {
		return nil, err
	}
	globalConfig, _, err := a.deriver.GlobalConfig()
	if err != nil {
		return nil, err
	}
	rewards, _, err := a.deriver.ClaimableRewards(recipient)
	if err != nil {
		return nil, err
	}
	ix, err := solstrike.NewSetClaimableRewardsInstruction(solstrike.SetClaimableRewardsAccounts{
		Signer:           w.PublicKey,
		GlobalConfig:     globalConfig,
		Recipient:        recipient,
		ClaimableRewards: rewards,
		Programs:         a.programs,
	}, amount, a.encodeOpts()...)
	if err != nil {
		return nil, err
	}
	status, err := a.send(ctx, tm, solstrike.InstructionKindSetClaimableRewards, w.PublicKey, amount, ix)
	if err != nil {
		return nil, err
	}

	landed, err := a.program.FetchClaimableRewards(ctx, recipient)
	if err != nil {
		return status, err
	}
	a.ledger.ObserveSet(recipient, landed.Value, landed.Slot)
	if landed.Value.Amount != amount {
		return status, fmt.Errorf("%w: set %d claimable chips, record holds %d",
			economy.ErrInvariantViolated, amount, landed.Value.Amount)
	}
	return status, nil
}

// ClaimReport describes a landed claim.
type ClaimReport struct {
	Status  *transaction.Status
	Claimed uint64
}

// Claim mints the wallet's recorded rewards. The ClaimableRewards record is
// read first; a claim is only sent once a non-zero set has been observed.
func (a *App) Claim(ctx context.Context) (*ClaimReport, error) {
	tm, w, err := a.transactions()
	if err != nil {
		return nil, err
	}
	authority := w.PublicKey

	rec, err := a.program.FetchClaimableRewards(ctx, authority)
	if errors.Is(err, solstrike.ErrAccountNotFound) {
		return nil, economy.ErrRewardsNotObserved
	}
	if err != nil {
		return nil, err
	}
	a.ledger.ObserveSet(authority, rec.Value, rec.Slot)

	amount, err := a.ledger.PrepareClaim(authority)
	if err != nil {
		return nil, err
	}

	addrs, err := a.deriver.Singletons()
	if err != nil {
		a.ledger.AbortClaim(authority)
		return nil, err
	}
	chipAccount, ixs, err := a.chipAccount(w, addrs.ChipMint)
	if err != nil {
		a.ledger.AbortClaim(authority)
		return nil, err
	}
	before, err := a.tokenBalance(ctx, chipAccount)
	if err != nil {
		a.ledger.AbortClaim(authority)
		return nil, err
	}

	claim, err := solstrike.NewClaimChipsInstruction(solstrike.ClaimChipsAccounts{
		Claimant:            authority,
		ClaimableRewards:    rec.Address,
		Treasury:            addrs.Treasury,
		ChipMint:            addrs.ChipMint,
		ClaimantChipAccount: chipAccount,
		Programs:            a.programs,
	}, a.encodeOpts()...)
	if err != nil {
		a.ledger.AbortClaim(authority)
		return nil, err
	}
	status, err := a.send(ctx, tm, solstrike.InstructionKindClaimChips, authority, amount, append(ixs, claim)...)
	if err != nil {
		a.ledger.AbortClaim(authority)
		return nil, err
	}

	// Дальше транзакция уже в сети. Если сверка не удалась, маркер снимается:
	// следующий Claim перечитает запись до подготовки.
	report := &ClaimReport{Status: status, Claimed: amount}
	remaining, slot := &solstrike.ClaimableRewards{}, status.Slot
	after, err := a.program.FetchClaimableRewards(ctx, authority)
	switch {
	case errors.Is(err, solstrike.ErrAccountNotFound):
		// The program may close the record instead of zeroing it.
	case err != nil:
		a.ledger.AbortClaim(authority)
		return report, err
	default:
		remaining, slot = after.Value, after.Slot
	}
	balance, err := a.tokenBalance(ctx, chipAccount)
	if err != nil {
		a.ledger.AbortClaim(authority)
		return report, err
	}
	var delta uint64
	if balance > before {
		delta = balance - before
	}
	return report, a.ledger.ObserveClaim(authority, remaining, delta, slot)
}

// tokenBalance returns the raw amount held by account; a missing account holds zero.
func (a *App) tokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	amount, err := a.chain.GetTokenAccountBalance(ctx, account, a.commitment)
	if errors.Is(err, blockchain.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(amount.Amount, 10, 64)
}

// State fetches a snapshot of the chip economy.
func (a *App) State(ctx context.Context) (*solstrike.State, error) {
	return a.program.FetchState(ctx)
}
