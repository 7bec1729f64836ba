// Package simulator генерирует действия агента для демонстрационного стенда.
package simulator

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/agentiq-console/internal/domain"
)

// Диапазоны случайных значений симулятора
const (
	MinConfidence   = 0.7
	MaxConfidence   = 1.0
	MinResponseTime = 0.5
	MaxResponseTime = 2.5
	ErrorChance     = 0.25 // одна ошибка из четырех
)

// Overrides — явные значения, которые подменяют случайные (ручной ввод)
type Overrides struct {
	Confidence   *float64 `json:"confidence,omitempty"`
	ResponseTime *float64 `json:"response_time,omitempty"`
	Error        *bool    `json:"error,omitempty"`
}

type Generator struct {
	mu     sync.Mutex // rand.Rand не потокобезопасен
	rng    *rand.Rand
	now    func() time.Time
	newID  func() string
	policy domain.RemediationDecider
}

type Option func(*Generator)

// WithRand подменяет источник случайности (для тестов и --seed)
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithIDs(newID func() string) Option {
	return func(g *Generator) { g.newID = newID }
}

func NewGenerator(policy domain.RemediationDecider, opts ...Option) *Generator {
	g := &Generator{
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		policy: policy,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Perform «выполняет» действие: генерирует значения, применяет overrides и валидирует
func (g *Generator) Perform(action domain.ActionName, ov Overrides) (domain.ActionRecord, error) {
	g.mu.Lock()
	in := domain.ActionInput{
		Action:       action,
		Confidence:   round2(uniform(g.rng, MinConfidence, MaxConfidence)),
		ResponseTime: round2(uniform(g.rng, MinResponseTime, MaxResponseTime)),
		Error:        g.rng.Float64() < ErrorChance,
	}
	g.mu.Unlock()

	if ov.Confidence != nil {
		in.Confidence = *ov.Confidence
	}
	if ov.ResponseTime != nil {
		in.ResponseTime = *ov.ResponseTime
	}
	if ov.Error != nil {
		in.Error = *ov.Error
	}

	return domain.NewActionRecord(g.newID(), in, g.now(), g.policy)
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
