// internal/app/inspect.go
package app

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
)

// InspectedInstruction is one top-level instruction of an inspected
// transaction. Decoded is nil for other programs.
type InspectedInstruction struct {
	Index     int
	Program   solana.PublicKey
	Decoded   *solstrike.DecodedInstruction
	DecodeErr error
}

// InspectReport is what a landed transaction tells about the program.
type InspectReport struct {
	Signature    string
	Slot         uint64
	Err          interface{}
	Logs         []string
	Invoked      []string
	Instructions []InspectedInstruction
	Anchor       *solbc.AnchorError
	ProgramError *solstrike.ProgramError
}

func (r *InspectReport) Failed() bool { return r.Err != nil }

// Inspect fetches a landed transaction and decodes its program instructions
// and errors.
func (a *App) Inspect(ctx context.Context, signature solana.Signature) (*InspectReport, error) {
	res, err := a.chain.GetTransaction(ctx, signature, a.commitment)
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", signature, err)
	}
	if res == nil || res.Transaction == nil {
		return nil, fmt.Errorf("transaction %s not found", signature)
	}
	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction %s: %w", signature, err)
	}
	report := InspectTransaction(tx, res.Meta, a.ProgramID(), solbc.NewErrorAnalyzer(a.logger))
	report.Signature = signature.String()
	report.Slot = res.Slot
	return report, nil
}

// InspectTransaction decodes the instructions of tx addressed to programID
// and the program error recorded in meta, if any.
func InspectTransaction(tx *solana.Transaction, meta *rpc.TransactionMeta, programID solana.PublicKey, analyzer *solbc.ErrorAnalyzer) *InspectReport {
	report := &InspectReport{}
	if len(tx.Signatures) > 0 {
		report.Signature = tx.Signatures[0].String()
	}

	keys := tx.Message.AccountKeys
	for i, ix := range tx.Message.Instructions {
		item := InspectedInstruction{Index: i}
		if int(ix.ProgramIDIndex) < len(keys) {
			item.Program = keys[ix.ProgramIDIndex]
		}
		if item.Program.Equals(programID) {
			item.Decoded, item.DecodeErr = solstrike.DecodeInstructionData(ix.Data)
		}
		report.Instructions = append(report.Instructions, item)
	}

	if meta == nil {
		return report
	}
	report.Err = meta.Err
	report.Logs = meta.LogMessages
	report.Invoked = solbc.InstructionNames(meta.LogMessages)

	if meta.Err == nil {
		return report
	}
	if report.Anchor = analyzer.AnalyzeLogs(meta.LogMessages); report.Anchor != nil {
		if perr, ok := solstrike.LookupProgramError(uint32(report.Anchor.Code)); ok {
			report.ProgramError = perr
		}
	}
	if report.ProgramError == nil {
		if perr, ok := solstrike.ParseProgramError(fmt.Errorf("%v", meta.Err)); ok {
			report.ProgramError = perr
		}
	}
	return report
}
