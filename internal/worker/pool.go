package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail = "jobs:email"

	JobPedidoConfirmacion = "pedido_confirmacion"

	defaultMaxAttempts = 3
)

// ErrQueueUnavailable is returned by the dispatcher when Redis is not configured.
var ErrQueueUnavailable = errors.New("job queue unavailable")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// PedidoConfirmacionPayload asks for the confirmation email of one order.
type PedidoConfirmacionPayload struct {
	Slug     string `json:"slug"`
	PedidoID string `json:"pedido_id"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb redis.UniversalClient
}

func NewDispatcher(rdb redis.UniversalClient) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueuePedidoConfirmacion pushes an order confirmation email job.
func (d *Dispatcher) EnqueuePedidoConfirmacion(ctx context.Context, p PedidoConfirmacionPayload) error {
	return d.enqueue(ctx, QueueEmail, JobPedidoConfirmacion, p)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	if d == nil || d.rdb == nil {
		return ErrQueueUnavailable
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// ── Pool ─────────────────────────────────────────────────────────────────────

// Pool consumes the job queues with a fixed number of goroutines. Failed jobs
// are pushed back with an incremented attempt count; after maxAttempts they go
// to the dead letter queue.
type Pool struct {
	rdb         redis.UniversalClient
	handlers    map[string]Handler
	maxAttempts int

	requeue    func(ctx context.Context, queue string, job Job) error
	deadLetter func(ctx context.Context, queue string, job Job, reason string)
}

func NewPool(rdb redis.UniversalClient, handlers map[string]Handler) *Pool {
	p := &Pool{rdb: rdb, handlers: handlers, maxAttempts: defaultMaxAttempts}
	p.requeue = func(ctx context.Context, queue string, job Job) error {
		encoded, err := json.Marshal(job)
		if err != nil {
			return err
		}
		return rdb.LPush(ctx, queue, encoded).Err()
	}
	p.deadLetter = func(ctx context.Context, queue string, job Job, reason string) {
		parkAndLog(ctx, rdb, queue, job, reason)
	}
	return p
}

// Start launches numWorkers goroutines. Each one blocks on BRPOP, zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if p.rdb == nil {
		log.Warn().Msg("worker pool disabled: redis not configured")
		return
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, QueueEmail).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("worker: brpop failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], []byte(result[1]))
		}
	}
}

func (p *Pool) process(ctx context.Context, queue string, raw []byte) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	job.Attempts++

	h, ok := p.handlers[job.Type]
	if !ok {
		p.deadLetter(ctx, queue, job, "no handler for job type")
		return
	}

	done := metrics.TrackJob(job.Type)
	err := h.Process(ctx, job.Payload)
	done(err)
	if err == nil {
		return
	}

	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed")
	if job.Attempts >= p.maxAttempts {
		p.deadLetter(ctx, queue, job, err.Error())
		return
	}
	if err := p.requeue(ctx, queue, job); err != nil {
		log.Error().Err(err).Str("type", job.Type).Msg("job requeue failed")
	}
}
