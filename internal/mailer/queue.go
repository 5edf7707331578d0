package mailer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/document-requests-api/internal/metrics"
	"golang.org/x/time/rate"
)

const sendTimeout = 30 * time.Second

// Stats - агрегированные итоги отправки
type Stats struct {
	Sent    int
	Failed  int
	Dropped int
	Pending int
}

// Batch собирает итоги отправки группы писем
type Batch struct {
	wg       sync.WaitGroup
	enqueued atomic.Int64
	sent     atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
}

// NewBatch создаёт пустую группу
func NewBatch() *Batch {
	return &Batch{}
}

// Wait ждёт завершения всех писем группы или отмены ctx.
// Неотправленные к моменту отмены письма попадают в Pending.
func (b *Batch) Wait(ctx context.Context) Stats {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	return b.Stats()
}

// Stats возвращает текущие итоги без ожидания
func (b *Batch) Stats() Stats {
	sent := int(b.sent.Load())
	failed := int(b.failed.Load())
	dropped := int(b.dropped.Load())
	return Stats{
		Sent:    sent,
		Failed:  failed,
		Dropped: dropped,
		Pending: int(b.enqueued.Load()) - sent - failed - dropped,
	}
}

func (b *Batch) finish(outcome string) {
	switch outcome {
	case "sent":
		b.sent.Add(1)
	case "failed":
		b.failed.Add(1)
	case "dropped":
		b.dropped.Add(1)
	}
	b.wg.Done()
}

type job struct {
	msg   Message
	batch *Batch
}

// Queue - ограниченная очередь писем с одним обработчиком.
// Enqueue никогда не блокирует вызывающего.
type Queue struct {
	mailer  Mailer
	jobs    chan job
	limiter *rate.Limiter
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewQueue создаёт очередь. perSecond <= 0 снимает ограничение скорости.
func NewQueue(m Mailer, size int, perSecond float64, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Queue{
		mailer:  m,
		jobs:    make(chan job, size),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start запускает обработчик очереди
func (q *Queue) Start() {
	go q.run()
}

// Enqueue ставит письмо в очередь. При переполненной или закрытой очереди
// письмо отбрасывается и возвращается false.
func (q *Queue) Enqueue(msg Message, batch *Batch) bool {
	if batch != nil {
		batch.enqueued.Add(1)
		batch.wg.Add(1)
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.closed {
		select {
		case q.jobs <- job{msg: msg, batch: batch}:
			return true
		default:
		}
	}

	metrics.EmailsTotal.WithLabelValues("dropped").Inc()
	q.logger.Warn("email dropped",
		slog.Any("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Bool("queue_closed", q.closed),
	)
	if batch != nil {
		batch.finish("dropped")
	}
	return false
}

// Shutdown закрывает очередь и ждёт отправки оставшихся писем
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for j := range q.jobs {
		_ = q.limiter.Wait(context.Background())
		q.deliver(j)
	}
}

func (q *Queue) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	outcome := "sent"
	if err := q.send(ctx, j.msg); err != nil {
		outcome = "failed"
		q.logger.Error("failed to send email",
			slog.Any("to", j.msg.To),
			slog.String("subject", j.msg.Subject),
			slog.Any("error", err),
		)
	}
	metrics.EmailsTotal.WithLabelValues(outcome).Inc()
	if j.batch != nil {
		j.batch.finish(outcome)
	}
}

// send не даёт панике в транспорте остановить обработчик
func (q *Queue) send(ctx context.Context, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return q.mailer.Send(ctx, msg)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return "mailer panic: " + slog.AnyValue(e.value).String()
}
