package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
	"github.com/rovshanmuradov/solstrike-client/internal/eventlistener"
)

func newPDAsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "pdas",
		Short: "Derive the program addresses and list the singleton records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := rt.app.PDAs(rt.ctx)
			if err != nil {
				return err
			}
			title("Program " + report.ProgramID.String())
			a := report.Addresses
			field("Chip mint", fmt.Sprintf("%s (bump %d)", a.ChipMint, a.ChipMintBump))
			field("Treasury", fmt.Sprintf("%s (bump %d)", a.Treasury, a.TreasuryBump))
			field("Global config", fmt.Sprintf("%s (bump %d)", a.GlobalConfig, a.GlobalConfigBump))

			if report.Mint == nil {
				warn("chip mint not initialized")
			} else {
				field("Chip supply", report.Mint.Supply)
				field("Chip decimals", report.Mint.Decimals)
				if report.Mint.MintAuthority != nil {
					field("Mint authority", report.Mint.MintAuthority)
				}
			}
			for _, gc := range report.GlobalConfigs {
				field("GlobalConfig record", fmt.Sprintf("%s %s", gc.Address, gc.Value))
			}
			for _, tr := range report.Treasuries {
				field("Treasury record", fmt.Sprintf("%s %s", tr.Address, formatSOL(tr.Lamports)))
			}
			return nil
		},
	}
}

func newInitCmd(rt *runtime) *cobra.Command {
	var price uint64
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the global config, chip mint and treasury",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := rt.app.Init(rt.ctx, price)
			if report != nil {
				rt.printStep("init_global_config", report.GlobalConfig)
				rt.printStep("initialize", report.Initialize)
			}
			return err
		},
	}
	cmd.Flags().Uint64Var(&price, "price", 10_000_000, "lamports per chip")
	return cmd
}

func (rt *runtime) printStep(name string, status *transaction.Status) {
	if status == nil {
		field(name, "already done")
		return
	}
	rt.log.WithTransaction(status.Signature).Info("Init step confirmed",
		zap.String("step", name), zap.Uint64("slot", status.Slot))
	field(name, status.Signature)
}

func newBuyCmd(rt *runtime) *cobra.Command {
	var (
		mint         string
		tokenProgram string
	)
	cmd := &cobra.Command{
		Use:   "buy <amount>",
		Short: "Buy chips with SOL, or with an SPL token when --token is set",
		Long: `Without --token the amount is in SOL ("1.5"). With --token it is in
base units of the payment token.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mint != "" {
				paymentMint, err := solana.PublicKeyFromBase58(mint)
				if err != nil {
					return fmt.Errorf("invalid --token: %w", err)
				}
				program, err := optionalKey(tokenProgram)
				if err != nil {
					return fmt.Errorf("invalid --token-program: %w", err)
				}
				amount, err := parseUint(args[0])
				if err != nil {
					return err
				}
				report, err := rt.app.BuyWithToken(rt.ctx, paymentMint, program, amount)
				if err != nil {
					return err
				}
				title("Bought chips with " + paymentMint.String())
				field("Signature", report.Status.Signature)
				field("Paid", fmt.Sprintf("%d base units", report.Supplied))
				field("Price", fmt.Sprintf("%d base units/chip", report.Price))
				field("Expected chips", report.Expected)
				return nil
			}

			lamports, err := parseSOL(args[0])
			if err != nil {
				return err
			}
			report, err := rt.app.BuyWithSol(rt.ctx, lamports)
			if report != nil {
				title("Bought chips with SOL")
				field("Signature", report.Status.Signature)
				field("Paid", formatSOL(report.Supplied))
				field("Price", fmt.Sprintf("%d lamports/chip", report.Price))
				field("Expected chips", report.Expected)
				if report.Observation != nil {
					field("Received chips", report.Observation.ChipDelta)
				}
			}
			if err != nil {
				return err
			}
			success("chip balance matches the price")
			return nil
		},
	}
	cmd.Flags().StringVar(&mint, "token", "", "payment token mint")
	cmd.Flags().StringVar(&tokenProgram, "token-program", "", "token program owning the payment mint")
	return cmd
}

func optionalKey(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, nil
	}
	return solana.PublicKeyFromBase58(s)
}

func newAddTokenCmd(rt *runtime) *cobra.Command {
	var tokenProgram string
	cmd := &cobra.Command{
		Use:   "add-token <mint> <price>",
		Short: "Register a payment token at price base units per chip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid mint: %w", err)
			}
			price, err := parseUint(args[1])
			if err != nil {
				return err
			}
			program, err := optionalKey(tokenProgram)
			if err != nil {
				return fmt.Errorf("invalid --token-program: %w", err)
			}
			status, err := rt.app.AddToken(rt.ctx, mint, program, price)
			if err != nil {
				return err
			}
			success("token added: " + status.Signature)
			return nil
		},
	}
	cmd.Flags().StringVar(&tokenProgram, "token-program", "", "token program owning the mint")
	return cmd
}

func newReserveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "reserve <chips>",
		Short: "Lock chips of the wallet for play",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseUint(args[0])
			if err != nil {
				return err
			}
			status, err := rt.app.Reserve(rt.ctx, amount)
			if err != nil {
				return err
			}
			success("chips reserved: " + status.Signature)
			return nil
		},
	}
}

func newPriceCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Change chip prices",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sol <lamports>",
		Short: "Set the SOL price of one chip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseUint(args[0])
			if err != nil {
				return err
			}
			update, err := rt.app.UpdateSolPrice(rt.ctx, price)
			if update != nil {
				field("Before", fmt.Sprintf("%d lamports/chip", update.Before))
				field("After", fmt.Sprintf("%d lamports/chip", update.After))
			}
			return err
		},
	}, &cobra.Command{
		Use:   "token <mint> <price>",
		Short: "Set the price of one chip in a payment token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid mint: %w", err)
			}
			price, err := parseUint(args[1])
			if err != nil {
				return err
			}
			update, err := rt.app.UpdateTokenPrice(rt.ctx, mint, price)
			if update != nil {
				field("Before", fmt.Sprintf("%d base units/chip", update.Before))
				field("After", fmt.Sprintf("%d base units/chip", update.After))
			}
			return err
		},
	})
	return cmd
}

func newRewardsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Set and claim chip rewards",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <recipient> <chips>",
		Short: "Record claimable chips for a recipient",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid recipient: %w", err)
			}
			amount, err := parseUint(args[1])
			if err != nil {
				return err
			}
			status, err := rt.app.SetRewards(rt.ctx, recipient, amount)
			if err != nil {
				return err
			}
			success(fmt.Sprintf("%d chips claimable by %s: %s", amount, recipient, status.Signature))
			return nil
		},
	}, &cobra.Command{
		Use:   "claim",
		Short: "Claim the wallet's recorded rewards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := rt.app.Claim(rt.ctx)
			if report != nil {
				field("Signature", report.Status.Signature)
				field("Claimed chips", report.Claimed)
			}
			return err
		},
	}, &cobra.Command{
		Use:   "show [authority]",
		Short: "Show the claimable rewards of an authority (default: the wallet)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var authority solana.PublicKey
			if len(args) == 1 {
				var err error
				if authority, err = solana.PublicKeyFromBase58(args[0]); err != nil {
					return fmt.Errorf("invalid authority: %w", err)
				}
			} else {
				w, err := rt.app.Wallet()
				if err != nil {
					return err
				}
				authority = w.PublicKey
			}
			rec, err := rt.app.Program().FetchClaimableRewards(rt.ctx, authority)
			if err != nil {
				return err
			}
			field("Record", rec.Address)
			field("Claimable chips", rec.Value.Amount)
			return nil
		},
	})
	return cmd
}

func newStateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print a snapshot of the chip economy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := rt.app.State(rt.ctx)
			if err != nil {
				return err
			}
			printState(rt, state)
			return nil
		},
	}
}

func printState(rt *runtime, state *solstrike.State) {
	title("Chip economy")
	if state.GlobalConfig == nil {
		warn("global config not initialized")
	} else {
		price := state.GlobalConfig.Value.SolChipPrice
		field("SOL chip price", fmt.Sprintf("%d lamports", price))
		if chips, err := rt.app.Pricing().ChipsForLamports(solana.LAMPORTS_PER_SOL, price); err == nil {
			field("Chips per SOL", chips)
		}
	}
	if state.Treasury == nil {
		warn("treasury not initialized")
	} else {
		field("Treasury", formatSOL(state.Treasury.Lamports))
	}
	for _, tp := range state.TokenPrices {
		field("Token price", fmt.Sprintf("%s %d base units/chip", tp.Value.TokenAddress, tp.Value.TokenPrice))
	}
}

func newInspectCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <signature>",
		Short: "Decode the program instructions and error of a landed transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := solana.SignatureFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid signature: %w", err)
			}
			report, err := rt.app.Inspect(rt.ctx, sig)
			if err != nil {
				return err
			}
			title("Transaction " + report.Signature)
			field("Slot", report.Slot)
			for _, ix := range report.Instructions {
				label := fmt.Sprintf("#%d", ix.Index)
				switch {
				case ix.Decoded != nil:
					field(label, fmt.Sprintf("%s amount=%d", ix.Decoded.Kind, ix.Decoded.Amount))
				case ix.DecodeErr != nil:
					field(label, "undecodable: "+ix.DecodeErr.Error())
				default:
					field(label, ix.Program)
				}
			}
			if !report.Failed() {
				success("landed without error")
				return nil
			}
			warn(fmt.Sprintf("failed: %v", report.Err))
			if report.ProgramError != nil {
				field("Program error", report.ProgramError.Error())
			}
			return nil
		},
	}
}

func newLogsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Stream the program's transaction logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.Listen(rt.ctx, eventlistener.NewLogHandler(rt.log.WithComponent("logs")))
		},
	}
}
