package eventlistener

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/utils/metrics"
)

// ErrListenerClosed is reported once Close has been called.
var ErrListenerClosed = errors.New("event listener closed")

// LogEvent is one transaction that mentioned the program.
type LogEvent struct {
	Signature    string
	Slot         uint64
	Err          interface{} // nil when the transaction succeeded
	Logs         []string
	Instructions []string // Anchor instruction names, in execution order
	ProgramData  [][]byte // decoded "Program data:" payloads
}

// Failed reports whether the transaction landed with an error.
func (e LogEvent) Failed() bool {
	return e.Err != nil
}

// notification covers both the logsSubscribe reply and logsNotification.
type notification struct {
	Method string `json:"method"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Params struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Signature string      `json:"signature"`
				Err       interface{} `json:"err"`
				Logs      []string    `json:"logs"`
			} `json:"value"`
		} `json:"result"`
		Subscription uint64 `json:"subscription"`
	} `json:"params"`
}

type EventListener struct {
	conn       net.Conn
	rw         io.ReadWriter
	logger     *zap.Logger
	metrics    *metrics.Collector
	wsURL      string
	programID  solana.PublicKey
	commitment rpc.CommitmentType
	mu         sync.Mutex
	closeOnce  sync.Once
	done       chan struct{}
	stopped    chan struct{}
	err        error
}

// Option configures an EventListener.
type Option func(*EventListener)

func WithCommitment(c rpc.CommitmentType) Option {
	return func(el *EventListener) {
		if c != "" {
			el.commitment = c
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(el *EventListener) { el.metrics = m }
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
	maxAttempts    = 5
	writeTimeout   = 5 * time.Second

	streamLabel = "logs"
)
