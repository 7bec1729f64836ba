package archive

/*
Файл trail.go реализует аудиторский след (Audit Trail) консоли — фоновую
выгрузку событий сессий во внешнее хранилище.

Ключевые особенности:
- Non-blocking: Log никогда не блокирует обработку запроса. Если буфер
  переполнен — событие сбрасывается с ошибкой в лог (Load Shedding).
- Batching: события копятся в памяти и пишутся пачкой по таймеру или при
  достижении размера пачки.
- Drain Pattern: Stop закрывает канал и ждет, пока воркер вычитает остатки
  и сделает финальный flush.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Storage определяет, куда физически сохраняются события
type Storage interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []Event) error
}

type Archiver interface {
	Log(event Event)
}

// Options — настройки буфера (секция archive в конфиге)
type Options struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// MaxBatchSize ограничивает пачку: один INSERT в Postgres принимает
// не больше 65535 параметров, а событие занимает 14 колонок.
const MaxBatchSize = 4000

type Trail struct {
	ch      chan Event
	repo    Storage
	opts    Options
	logger  *zap.Logger
	wg      sync.WaitGroup
	closed  atomic.Bool
	mu      sync.RWMutex // Log держит RLock, Stop — Lock перед close(ch)
	onDepth func(n int)  // заполненность буфера для метрик
}

func NewTrail(repo Storage, opts Options, logger *zap.Logger) *Trail {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 10000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchSize > MaxBatchSize {
		logger.Warn("archive batch size clamped",
			zap.Int("requested", opts.BatchSize),
			zap.Int("max", MaxBatchSize))
		opts.BatchSize = MaxBatchSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	return &Trail{
		ch:     make(chan Event, opts.BufferSize),
		repo:   repo,
		opts:   opts,
		logger: logger.With(zap.String("mod", "archive")),
	}
}

// OnDepth регистрирует колбэк для метрики заполненности буфера. Вызывать до Start.
func (t *Trail) OnDepth(fn func(n int)) {
	t.onDepth = fn
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет
func (t *Trail) Stop() {
	t.mu.Lock()
	if t.closed.Swap(true) {
		t.mu.Unlock()
		return
	}
	t.logger.Info("stopping archive: closing channel and flushing buffer...")
	close(t.ch)
	t.mu.Unlock()

	t.wg.Wait()
	t.logger.Info("archive stopped gracefully")
}

func (t *Trail) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed.Load() {
		t.logger.Warn("archive event dropped: trail is stopping", zap.String("id", event.ID))
		return
	}

	select {
	case t.ch <- event:
		if t.onDepth != nil {
			t.onDepth(len(t.ch))
		}
	default:
		// Backpressure: не тормозим запрос, фиксируем потерю в логе
		t.logger.Error("archive_buffer_overflow",
			zap.String("session_id", event.SessionID),
			zap.String("kind", string(event.Kind)),
		)
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]Event, 0, t.opts.BatchSize)
	ticker := time.NewTicker(t.opts.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: основной контекст к этому моменту может быть уже отменен
		if err := t.repo.WriteBatch(context.Background(), batch); err != nil {
			t.logger.Error("archive flush failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
		if t.onDepth != nil {
			t.onDepth(len(t.ch))
		}
	}

	for {
		select {
		case event, ok := <-t.ch:
			if !ok {
				// Канал закрыт в Stop: всё, что было в очереди, уже вычитано
				flush()
				t.logger.Info("archive worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= t.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
