// Package solstrike implements a client for the sol_strike chip program on the Solana blockchain.
//
// This package provides methods for:
// - Identifying accounts and instructions by their 8-byte discriminators.
// - Decoding and encoding the GlobalConfig, Treasury, ChipTokenPriceState and ClaimableRewards records.
// - Building every program instruction with its account list in program order.
// - Deriving the program-derived addresses of the chip mint, treasury and price records.
// - Fetching, listing and subscribing to program accounts through a Transport.
//
// Key Types and Functions:
//
// - AccountKind, InstructionKind: discriminator tables in byte, u64 and base58 form.
// - DecodeAccount(), DecodeGlobalConfig() and friends: total decoders that report (nil, false) on mismatch.
// - NewBuyChipWithSolInstruction() and the other New*Instruction builders.
// - Deriver: PDA derivation for one deployment; VerifyBump() catches stale seeds or program ids.
// - Client: FetchGlobalConfig(), ListChipTokenPriceStates(), FetchState(), Subscribe*().
//
// Source files:
//   - discriminators.go: Discriminator tables and lookups.
//   - accounts.go: Record layouts, decoders and encoders.
//   - instructions.go: Instruction builders and DecodeInstructionData.
//   - pda.go: Address derivation.
//   - client.go: Account queries.
//   - subscribe.go: Account subscriptions.
//   - errors.go: Sentinel errors and program error codes.
//
// Usage example:
//
//	client := solstrike.NewClient(rpcClient, logger)
//	cfg, err := client.FetchGlobalConfig(ctx)
//	if err != nil {
//		return err
//	}
//	ix, err := solstrike.NewBuyChipWithSolInstruction(solstrike.BuyChipWithSolAccounts{
//		Buyer:            wallet,
//		GlobalConfig:     cfg.Address,
//		Treasury:         treasury,
//		ChipMint:         chipMint,
//		BuyerChipAccount: chipATA,
//	}, lamports)
package solstrike
