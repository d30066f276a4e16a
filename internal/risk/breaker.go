package risk

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/yanun0323/decimal"
)

const defaultWindow = 24 * time.Hour

var defaultCooldown = time.Hour

// Config defines the circuit breaker limits.
type Config struct {
	// MaxLossFraction trips the breaker when the rolling loss reaches this
	// fraction of current equity. Zero or negative disables tripping.
	MaxLossFraction float64 `json:"maxLossFraction"`
	// Window is the trailing span of PnL samples considered.
	Window time.Duration `json:"window"`
	// Cooldown is how long trading stays blocked after a trip.
	Cooldown time.Duration `json:"cooldown"`
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = defaultWindow
	}
	if c.Cooldown <= 0 {
		c.Cooldown = defaultCooldown
	}
	return c
}

// Reason explains a denied check.
type Reason uint16

const (
	ReasonNone Reason = iota
	ReasonMaxLoss
	ReasonCooldown
)

func (r Reason) String() string {
	switch r {
	case ReasonMaxLoss:
		return "max_loss"
	case ReasonCooldown:
		return "cooldown"
	default:
		return "none"
	}
}

// Decision is the outcome of a breaker check.
type Decision struct {
	Allowed     bool
	Reason      Reason
	RollingLoss float64
}

type sample struct {
	at     time.Time
	amount float64
}

// Breaker is a pure in-memory rolling-window accumulator of realized PnL.
// It trips when the rolling loss over the window reaches the configured
// fraction of equity and releases after the cooldown.
type Breaker struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	samples   []sample
	trippedAt time.Time
}

// NewBreaker creates a breaker with the given limits.
func NewBreaker(cfg Config) *Breaker {
	return &Breaker{cfg: cfg.withDefaults(), now: time.Now}
}

// RecordPnL adds a realized PnL sample (signed) to the rolling window.
func (b *Breaker) RecordPnL(amount float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.pruneLocked(now)
	b.samples = append(b.samples, sample{at: now, amount: amount})
}

// Check reports whether new trading actions are allowed at the given
// equity. A tripped breaker stays closed for the cooldown; after that the
// loss condition is evaluated again, so a window still deep in loss
// re-trips immediately.
func (b *Breaker) Check(equity float64) Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.pruneLocked(now)
	loss := b.rollingLossLocked()

	if !b.trippedAt.IsZero() {
		if now.Sub(b.trippedAt) < b.cfg.Cooldown {
			return Decision{Allowed: false, Reason: ReasonCooldown, RollingLoss: loss}
		}
		b.trippedAt = time.Time{}
	}

	if b.cfg.MaxLossFraction > 0 && equity > 0 && loss >= b.cfg.MaxLossFraction*equity {
		b.trippedAt = now
		return Decision{Allowed: false, Reason: ReasonMaxLoss, RollingLoss: loss}
	}

	return Decision{Allowed: true, Reason: ReasonNone, RollingLoss: loss}
}

// Tripped reports whether the breaker is currently holding trading closed.
func (b *Breaker) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.trippedAt.IsZero()
}

func (b *Breaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-b.cfg.Window)
	i := 0
	for i < len(b.samples) && !b.samples[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		b.samples = append(b.samples[:0], b.samples[i:]...)
	}
}

// rollingLossLocked returns the loss magnitude of the window sum, zero when
// the window nets flat or positive.
func (b *Breaker) rollingLossLocked() float64 {
	var sum float64
	for _, s := range b.samples {
		sum += s.amount
	}
	if sum >= 0 {
		return 0
	}
	return -sum
}

// toFloat converts a decimal payload field for window arithmetic. A value
// that does not parse counts as zero rather than poisoning the window.
func toFloat(d decimal.Decimal) float64 {
	f, err := strconv.ParseFloat(fmt.Sprint(d), 64)
	if err != nil {
		return 0
	}
	return f
}
