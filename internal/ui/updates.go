package ui

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const defaultStatsInterval = 30 * time.Second

// UpdateSender feeds the watch screen's bus. Subscription pumps must never
// stall on a slow terminal, so ordinary updates are dropped when the bus is
// full and counted per message type.
type UpdateSender struct {
	bus     chan<- tea.Msg
	logger  *zap.Logger
	sent    atomic.Uint64
	dropped atomic.Uint64

	mu     sync.Mutex
	byType map[string]uint64 // drops per message type

	statsInterval time.Duration
	stop          chan struct{}
	closeOnce     sync.Once
}

// NewUpdateSender starts periodic drop reporting until Close.
func NewUpdateSender(bus chan<- tea.Msg, logger *zap.Logger) *UpdateSender {
	us := &UpdateSender{
		bus:           bus,
		logger:        logger,
		byType:        make(map[string]uint64),
		statsInterval: defaultStatsInterval,
		stop:          make(chan struct{}),
	}
	go us.reportDrops()
	return us
}

// SendUpdate queues msg or drops it when the bus is full.
func (us *UpdateSender) SendUpdate(msg tea.Msg) {
	select {
	case us.bus <- msg:
		us.sent.Add(1)
	default:
		us.dropped.Add(1)
		us.mu.Lock()
		us.byType[fmt.Sprintf("%T", msg)]++
		us.mu.Unlock()
	}
}

// SendCritical blocks until msg is queued or stop is closed. Stream endings
// go through here so the screen always learns that a feed died.
func (us *UpdateSender) SendCritical(msg tea.Msg, stop <-chan struct{}) {
	select {
	case us.bus <- msg:
		us.sent.Add(1)
	case <-stop:
	}
}

func (us *UpdateSender) GetStats() (sent, dropped uint64) {
	return us.sent.Load(), us.dropped.Load()
}

// DroppedByType returns a copy of the per-type drop counters.
func (us *UpdateSender) DroppedByType() map[string]uint64 {
	us.mu.Lock()
	defer us.mu.Unlock()
	out := make(map[string]uint64, len(us.byType))
	for k, v := range us.byType {
		out[k] = v
	}
	return out
}

func (us *UpdateSender) reportDrops() {
	ticker := time.NewTicker(us.statsInterval)
	defer ticker.Stop()

	var reported uint64
	for {
		select {
		case <-ticker.C:
			sent, dropped := us.GetStats()
			if dropped == reported {
				continue
			}
			reported = dropped
			us.logger.Warn("Watch screen is dropping updates",
				zap.Uint64("sent", sent),
				zap.Uint64("dropped", dropped),
				zap.Any("by_type", us.DroppedByType()))
		case <-us.stop:
			return
		}
	}
}

// Close stops drop reporting. It is safe to call more than once.
func (us *UpdateSender) Close() {
	us.closeOnce.Do(func() { close(us.stop) })
}
