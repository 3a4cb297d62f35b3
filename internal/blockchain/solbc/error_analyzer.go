package solbc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"
)

// AnchorError represents an error from Anchor framework
type AnchorError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

// Analysis is the structured view of a failed RPC call or transaction.
type Analysis struct {
	Type             string       `json:"type"`
	Code             int          `json:"code,omitempty"`
	Message          string       `json:"message"`
	SimulationFailed bool         `json:"simulation_failed,omitempty"`
	Logs             []string     `json:"logs,omitempty"`
	AnchorError      *AnchorError `json:"anchor_error,omitempty"`
	InstructionError interface{}  `json:"instruction_error,omitempty"`
}

// ErrorAnalyzer provides methods to analyze Solana transaction errors
type ErrorAnalyzer struct {
	logger *zap.Logger
}

// NewErrorAnalyzer creates a new ErrorAnalyzer instance
func NewErrorAnalyzer(logger *zap.Logger) *ErrorAnalyzer {
	return &ErrorAnalyzer{
		logger: logger.Named("error-analyzer"),
	}
}

// AnalyzeRPCError analyzes a jsonrpc.RPCError and extracts detailed information
func (ea *ErrorAnalyzer) AnalyzeRPCError(err error) *Analysis {
	if err == nil {
		return &Analysis{Type: "none", Message: "No error provided"}
	}

	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return &Analysis{Type: "generic_error", Message: err.Error()}
	}

	result := &Analysis{
		Type:    "rpc_error",
		Code:    rpcErr.Code,
		Message: rpcErr.Message,
	}

	if !strings.Contains(rpcErr.Message, "Transaction simulation failed") {
		return result
	}
	result.SimulationFailed = true

	dataMap, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return result
	}
	if logs, ok := dataMap["logs"].([]interface{}); ok {
		for _, entry := range logs {
			if s, ok := entry.(string); ok {
				result.Logs = append(result.Logs, s)
			}
		}
		result.AnchorError = ea.AnalyzeLogs(result.Logs)
	}
	if instrErr, ok := dataMap["err"]; ok {
		result.InstructionError = instrErr
	}
	return result
}

// AnalyzeLogs returns the first Anchor error found in program logs.
func (ea *ErrorAnalyzer) AnalyzeLogs(logs []string) *AnchorError {
	for _, line := range logs {
		if !strings.Contains(line, "AnchorError") {
			continue
		}
		anchorErr := parseAnchorErrorLog(line)
		ea.logger.Warn("Anchor error detected",
			zap.Int("code", anchorErr.Code),
			zap.String("name", anchorErr.Name),
			zap.String("message", anchorErr.Msg))
		return &anchorErr
	}
	return nil
}

// parseAnchorErrorLog parses an Anchor error log string
// Example: "Program log: AnchorError occurred. Error Code: Overflow. Error Number: 6000. Error Message: Overflow."
func parseAnchorErrorLog(logStr string) AnchorError {
	result := AnchorError{}

	if _, after, ok := strings.Cut(logStr, "Error Number:"); ok {
		num, _, _ := strings.Cut(after, ".")
		fmt.Sscanf(strings.TrimSpace(num), "%d", &result.Code)
	}

	if _, after, ok := strings.Cut(logStr, "Error Code:"); ok {
		name, _, _ := strings.Cut(after, ".")
		result.Name = strings.TrimSpace(name)
	}

	if _, after, ok := strings.Cut(logStr, "Error Message:"); ok {
		result.Msg = strings.TrimSuffix(strings.TrimSpace(after), ".")
	}

	return result
}

// InstructionNames extracts the "Program log: Instruction: X" markers Anchor
// emits for every executed instruction.
func InstructionNames(logs []string) []string {
	const marker = "Program log: Instruction: "
	var out []string
	for _, line := range logs {
		if name, ok := strings.CutPrefix(line, marker); ok {
			out = append(out, strings.TrimSpace(name))
		}
	}
	return out
}

// FormatErrorAnalysis formats the error analysis for logging or display
func (ea *ErrorAnalyzer) FormatErrorAnalysis(analysis *Analysis) string {
	jsonBytes, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error formatting analysis: %v", err)
	}
	return string(jsonBytes)
}
