// internal/economy/rewards.go
package economy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
)

var (
	// ErrRewardsNotObserved means no landed set_claimable_rewards has been
	// seen for the authority yet.
	ErrRewardsNotObserved = errors.New("claimable rewards not observed")
	ErrNothingToClaim     = errors.New("nothing to claim")
	ErrClaimInFlight      = errors.New("claim already in flight")
	ErrNoClaimInFlight    = errors.New("no claim in flight")
)

type rewardEntry struct {
	amount  uint64
	slot    uint64
	claim   uint64 // amount of the in-flight claim
	pending bool
}

// RewardLedger tracks the two phases of the reward flow per authority. The
// set and the claim are separate transactions; a claim is only prepared
// after the set has been observed on chain. Safe for concurrent use.
type RewardLedger struct {
	mu      sync.Mutex
	entries map[solana.PublicKey]*rewardEntry
}

func NewRewardLedger() *RewardLedger {
	return &RewardLedger{entries: make(map[solana.PublicKey]*rewardEntry)}
}

// ObserveSet records the ClaimableRewards record read at slot. Observations
// older than the latest one are ignored.
func (l *RewardLedger) ObserveSet(authority solana.PublicKey, rec *solstrike.ClaimableRewards, slot uint64) {
	if rec == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[authority]
	if !ok {
		e = &rewardEntry{}
		l.entries[authority] = e
	}
	if ok && slot < e.slot {
		return
	}
	e.amount = rec.Amount
	e.slot = slot
}

// Claimable returns the last observed amount.
func (l *RewardLedger) Claimable(authority solana.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[authority]
	if !ok {
		return 0, ErrRewardsNotObserved
	}
	return e.amount, nil
}

// PrepareClaim marks a claim of the observed amount as in flight and returns
// the amount the claimant should receive.
func (l *RewardLedger) PrepareClaim(authority solana.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[authority]
	if !ok {
		return 0, ErrRewardsNotObserved
	}
	if e.pending {
		return 0, ErrClaimInFlight
	}
	if e.amount == 0 {
		return 0, ErrNothingToClaim
	}
	e.pending = true
	e.claim = e.amount
	return e.claim, nil
}

// AbortClaim releases an in-flight claim whose transaction did not land.
func (l *RewardLedger) AbortClaim(authority solana.PublicKey) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[authority]; ok {
		e.pending = false
		e.claim = 0
	}
}

// ObserveClaim checks a landed claim: the record must be zeroed and the
// claimant's chip balance must have grown by the claimed amount.
func (l *RewardLedger) ObserveClaim(authority solana.PublicKey, after *solstrike.ClaimableRewards, chipDelta, slot uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[authority]
	if !ok || !e.pending {
		return ErrNoClaimInFlight
	}
	claimed := e.claim
	e.pending = false
	e.claim = 0

	if after == nil {
		return fmt.Errorf("%w: missing claimable rewards after claim", ErrInvariantViolated)
	}
	e.amount = after.Amount
	if slot > e.slot {
		e.slot = slot
	}
	if after.Amount != 0 {
		return fmt.Errorf("%w: %d chips still claimable after claim", ErrInvariantViolated, after.Amount)
	}
	if chipDelta != claimed {
		return fmt.Errorf("%w: claimed %d, chip balance grew by %d", ErrInvariantViolated, claimed, chipDelta)
	}
	return nil
}
