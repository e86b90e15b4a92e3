package validation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/civic-go/store"
)

type QueueOptions struct {
	Workers int
	Size    int
	Timeout time.Duration
}

// Queue runs validations on a fixed pool of workers. Enqueue never blocks;
// jobs that cannot be accepted are written to the dead-letter log.
type Queue struct {
	validator Validator
	evidence  store.EvidenceRepository
	logger    *slog.Logger
	opts      QueueOptions

	mu     sync.RWMutex
	closed bool
	jobs   chan primitive.ObjectID
	wg     sync.WaitGroup
}

func NewQueue(v Validator, evidence store.EvidenceRepository, logger *slog.Logger, opts QueueOptions) *Queue {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Size < 1 {
		opts.Size = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		validator: v,
		evidence:  evidence,
		logger:    logger.With("component", "validation"),
		opts:      opts,
		jobs:      make(chan primitive.ObjectID, opts.Size),
	}
}

// Start launches the workers. ctx bounds every job they run.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for id := range q.jobs {
				q.process(ctx, id)
			}
		}()
	}
}

func (q *Queue) Enqueue(evidenceID primitive.ObjectID) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.deadLetter(evidenceID, "queue closed", nil)
		return false
	}
	select {
	case q.jobs <- evidenceID:
		return true
	default:
		q.deadLetter(evidenceID, "queue full", nil)
		return false
	}
}

// Close stops accepting jobs and waits for queued ones to finish or for ctx
// to expire.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) process(ctx context.Context, id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(ctx, q.opts.Timeout)
	defer cancel()

	ev, err := q.evidence.Get(ctx, id)
	if err != nil {
		q.deadLetter(id, "load evidence", err)
		return
	}
	verdict, err := q.validator.Validate(ctx, ev)
	if err != nil {
		q.deadLetter(id, "validator error", err)
		return
	}

	v := verdictToVerification(*verdict)
	if err := q.evidence.SetVerification(ctx, id, v, verdict.Status()); err != nil {
		q.deadLetter(id, "store verdict", err)
		return
	}
	q.logger.Info("evidence validated",
		"evidence_id", id.Hex(),
		"campaign_id", ev.CampaignID.Hex(),
		"verified", verdict.IsVerified,
		"confidence", verdict.ConfidenceScore,
	)
}

func (q *Queue) deadLetter(id primitive.ObjectID, reason string, err error) {
	attrs := []any{"evidence_id", id.Hex(), "reason", reason}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	q.logger.Error("validation dead letter", attrs...)
}
