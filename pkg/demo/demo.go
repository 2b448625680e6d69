// Package demo provides a synthetic event source for running the gateway
// without a live broker. It generates market ticks for the configured
// commodities and, every tenth tick, an arbitrage opportunity with a
// randomized spread, feeding both straight into the alert router.
package demo

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/akramahmed1/quantenergx-gateway/pkg/broker"
	"github.com/akramahmed1/quantenergx-gateway/pkg/config"
	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
	"github.com/akramahmed1/quantenergx-gateway/pkg/protocol"
)

// Sink receives generated events. *router.Router satisfies this interface.
type Sink interface {
	HandleMarketData(msg broker.Message) error
	HandleArbitrage(msg broker.Message) error
}

// basePrices anchor the random walk per commodity.
var basePrices = map[string]float64{
	"crude_oil":   85.0,
	"natural_gas": 3.5,
	"electricity": 45.0,
	"gasoline":    2.6,
	"coal":        120.0,
}

// marketTick is the synthetic market-data payload.
type marketTick struct {
	Commodity string    `json:"commodity"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Source generates synthetic events on a fixed interval.
type Source struct {
	sink Sink
	cfg  config.DemoConfig
	log  *logger.Logger
	rnd  *rand.Rand

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSource creates a demo source. It does nothing until Start is called.
func NewSource(sink Sink, cfg config.DemoConfig, log *logger.Logger) *Source {
	return &Source{
		sink: sink,
		cfg:  cfg,
		log:  log.Component("demo"),
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start launches the generation loop in the background
func (s *Source) Start(ctx context.Context) {
	interval := time.Duration(s.cfg.IntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	s.log.InfoWith("demo source started",
		"interval", interval.String(),
		"commodities", len(s.cfg.Commodities))

	go s.run(ctx, interval)
}

// Stop halts the generation loop and waits for it to exit
func (s *Source) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Source) run(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.emitMarketTick(tick)
			tick++
			if tick%10 == 0 {
				s.emitArbitrage()
			}
		}
	}
}

// emitMarketTick publishes one tick, cycling through the commodity list
func (s *Source) emitMarketTick(tick int) {
	if len(s.cfg.Commodities) == 0 {
		return
	}
	commodity := s.cfg.Commodities[tick%len(s.cfg.Commodities)]

	base, ok := basePrices[commodity]
	if !ok {
		base = 50.0
	}
	price := base * (1 + (s.rnd.Float64()-0.5)*0.04)
	change := (price - base) / base * 100

	payload, err := json.Marshal(marketTick{
		Commodity: commodity,
		Price:     round2(price),
		Change:    round2(change),
		Volume:    int64(s.rnd.Intn(10000) + 500),
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}

	msg := broker.Message{
		Topic:     broker.TopicMarketData,
		Value:     payload,
		Timestamp: time.Now().UTC(),
	}
	if err := s.sink.HandleMarketData(msg); err != nil {
		s.log.ErrorWithErr("demo market tick failed", err)
	}
}

// emitArbitrage publishes a synthetic cross-market opportunity. The spread
// ranges up to 10% so every severity band shows up over time.
func (s *Source) emitArbitrage() {
	if len(s.cfg.Commodities) == 0 {
		return
	}
	commodity := s.cfg.Commodities[s.rnd.Intn(len(s.cfg.Commodities))]

	base, ok := basePrices[commodity]
	if !ok {
		base = 50.0
	}

	spreadPct := round2(s.rnd.Float64() * 10)
	price1 := base
	price2 := base * (1 + spreadPct/100)
	now := time.Now().UTC()

	alert := protocol.ArbitrageAlert{
		ID:        uuid.New().String(),
		Timestamp: now,
		Commodity: commodity,
		Market1: protocol.ArbitrageMarket{
			Name:     "NYMEX",
			Price:    round2(price1),
			Currency: "USD",
			Region:   "US",
		},
		Market2: protocol.ArbitrageMarket{
			Name:     "ICE",
			Price:    round2(price2),
			Currency: "USD",
			Region:   "EU",
		},
		Spread:           round2(price2 - price1),
		SpreadPercentage: spreadPct,
		ProfitPotential:  round2((price2 - price1) * 1000),
		Severity:         protocol.ClassifySeverity(spreadPct),
		Compliance: protocol.ArbitrageCompliance{
			Region: s.cfg.Region,
			Status: "approved",
		},
		ExpiresAt: now.Add(5 * time.Minute),
		UserID:    s.cfg.UserID,
		Region:    s.cfg.Region,
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return
	}

	msg := broker.Message{
		Topic:     broker.TopicArbitrageOpportunities,
		Value:     payload,
		Timestamp: now,
	}
	if err := s.sink.HandleArbitrage(msg); err != nil {
		s.log.ErrorWithErr("demo arbitrage alert failed", err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
