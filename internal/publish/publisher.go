// Package publish feeds the order queue: either a fixture file of orders or
// a synthetic stream with configurable ratios of bad data, for exercising
// the pipeline end to end.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/tallyworks/orderstats/internal/models"
	"github.com/tallyworks/orderstats/internal/queue"
)

// Options controls a synthetic publish run.
type Options struct {
	Count        int
	Rate         float64 // messages per second, 0 = unpaced
	Users        int     // distinct synthetic user IDs
	PoisonRatio  float64 // fraction of bodies that are not JSON
	InvalidRatio float64 // fraction of orders with a wrong order_value
	Seed         int64
}

// Publisher writes order messages to the queue at a bounded rate.
type Publisher struct {
	queue   queue.Queue
	limiter *rate.Limiter
	rng     *rand.Rand
	opts    Options
}

// New builds a Publisher. A zero Rate publishes as fast as the queue accepts.
func New(q queue.Queue, opts Options) *Publisher {
	if opts.Users <= 0 {
		opts.Users = 10
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Publisher{
		queue:   q,
		limiter: rate.NewLimiter(limit, 1),
		rng:     rand.New(rand.NewSource(seed)),
		opts:    opts,
	}
}

// Run publishes opts.Count messages, pacing with the rate limiter.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.queue.Ensure(ctx); err != nil {
		return fmt.Errorf("ensure queue: %w", err)
	}
	for i := 0; i < p.opts.Count; i++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		body := p.nextBody(i)
		if _, err := p.queue.Publish(ctx, body); err != nil {
			return fmt.Errorf("publish message %d: %w", i, err)
		}
	}
	log.Info().Int("count", p.opts.Count).Msg("publish run complete")
	return nil
}

// nextBody produces the i-th payload: poison, invalid, or a consistent order.
func (p *Publisher) nextBody(i int) []byte {
	roll := p.rng.Float64()
	if roll < p.opts.PoisonRatio {
		return []byte(fmt.Sprintf("this is not json #%d", i))
	}

	ord := p.randomOrder()
	if roll < p.opts.PoisonRatio+p.opts.InvalidRatio {
		ord.OrderValue += 1 + p.rng.Float64()*50 // break the item-sum invariant
	}
	body, _ := json.Marshal(ord)
	return body
}

func (p *Publisher) randomOrder() models.Order {
	userID := fmt.Sprintf("U%03d", p.rng.Intn(p.opts.Users)+1)
	itemCount := p.rng.Intn(4) + 1
	items := make([]models.OrderItem, 0, itemCount)
	var total float64
	for j := 0; j < itemCount; j++ {
		quantity := p.rng.Intn(5) + 1
		price := float64(p.rng.Intn(9999)+1) / 100
		items = append(items, models.OrderItem{
			ProductID:    fmt.Sprintf("P%03d", p.rng.Intn(100)+1),
			Quantity:     quantity,
			PricePerUnit: price,
		})
		total += float64(quantity) * price
	}
	return models.Order{
		OrderID:        "ORD-" + uuid.New().String()[:8],
		UserID:         userID,
		OrderValue:     round2(total),
		Items:          items,
		OrderTimestamp: time.Now().UTC().Format(time.RFC3339),
		PaymentMethod:  "credit_card",
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FromFile publishes every order in a JSON fixture (an array of order
// objects), one message per order.
func FromFile(ctx context.Context, q queue.Queue, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read fixture: %w", err)
	}
	var orders []json.RawMessage
	if err := json.Unmarshal(data, &orders); err != nil {
		return 0, fmt.Errorf("parse fixture: %w", err)
	}
	if err := q.Ensure(ctx); err != nil {
		return 0, fmt.Errorf("ensure queue: %w", err)
	}
	for i, ord := range orders {
		if _, err := q.Publish(ctx, ord); err != nil {
			return i, fmt.Errorf("publish order %d: %w", i, err)
		}
	}
	return len(orders), nil
}
