package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"frontdesk/internal/domain"
	"frontdesk/internal/metrics"
	"frontdesk/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	queueKey      = "frontdesk:sheets:queue"
	deadLetterKey = "frontdesk:sheets:deadletter"
)

// SnapshotWriter rewrites the whole mirror at once.
type SnapshotWriter interface {
	ReplaceBookings(ctx context.Context, bookings []models.Booking) error
}

// SheetsWorker applies queued booking changes to the mirror sheet. Tasks go
// through Redis when a client is configured and through an in-memory channel
// otherwise or when Redis is unreachable.
type SheetsWorker struct {
	sheets        domain.SheetsWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	after         func(time.Duration) <-chan time.Time
	logger        *zerolog.Logger

	// booking ids are never reused, so a delete is final
	deletedMu sync.Mutex
	deleted   map[int64]struct{}
}

// NewSheetsWorker builds a worker with sane defaults.
func NewSheetsWorker(sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *SheetsWorker {
	retry = retry.withDefaults()
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &SheetsWorker{
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: queueKey,
		deadLetterKey: deadLetterKey,
		after:         time.After,
		logger:        logger,
		deleted:       make(map[int64]struct{}),
	}
}

// EnqueueTask schedules a sheet change for bookingID.
func (w *SheetsWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if bookingID == 0 && booking != nil {
		bookingID = booking.ID
	}
	if bookingID == 0 {
		return errors.New("booking id is required")
	}

	task := models.SyncTask{
		ID:        uuid.NewString(),
		TaskType:  taskType,
		BookingID: bookingID,
		Booking:   booking,
		CreatedAt: time.Now(),
	}
	if taskType == models.TaskDelete {
		w.markDeleted(bookingID)
	}
	return w.push(ctx, task)
}

func (w *SheetsWorker) markDeleted(bookingID int64) {
	w.deletedMu.Lock()
	w.deleted[bookingID] = struct{}{}
	w.deletedMu.Unlock()
}

// superseded reports an upsert for a booking whose row was since deleted.
func (w *SheetsWorker) superseded(task *models.SyncTask) bool {
	if task.TaskType != models.TaskUpsert {
		return false
	}
	w.deletedMu.Lock()
	defer w.deletedMu.Unlock()
	_, gone := w.deleted[task.BookingID]
	return gone
}

func (w *SheetsWorker) push(ctx context.Context, task models.SyncTask) error {
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Str("task_id", task.ID).Msg("redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
		return nil
	default:
		metrics.IncSyncTask("dropped")
		return fmt.Errorf("sheets queue full, task %s for booking %d dropped", task.ID, task.BookingID)
	}
}

// Resync replaces the mirror with a snapshot when the sheets client supports it.
func (w *SheetsWorker) Resync(ctx context.Context, bookings []models.Booking) error {
	sw, ok := w.sheets.(SnapshotWriter)
	if !ok {
		return errors.New("sheets client does not support full resync")
	}
	if err := sw.ReplaceBookings(ctx, bookings); err != nil {
		return fmt.Errorf("resync sheet: %w", err)
	}
	w.logger.Info().Int("bookings", len(bookings)).Msg("sheet resynced")
	return nil
}

// Reset drops tasks left in the Redis queue by an earlier run and rewrites
// the mirror with bookings. Call it before Start.
func (w *SheetsWorker) Reset(ctx context.Context, bookings []models.Booking) error {
	if w.redis != nil {
		n, err := w.redis.LLen(ctx, w.redisQueueKey).Result()
		if err != nil {
			return fmt.Errorf("inspect sheets queue: %w", err)
		}
		if err := w.redis.Del(ctx, w.redisQueueKey).Err(); err != nil {
			return fmt.Errorf("clear sheets queue: %w", err)
		}
		if n > 0 {
			w.logger.Warn().Int64("tasks", n).Msg("discarded sheet tasks from a previous run")
		}
	}
	for {
		if _, ok := w.tryLocalQueue(); !ok {
			break
		}
	}
	return w.Resync(ctx, bookings)
}

// Start launches main loop; stops when ctx is done.
func (w *SheetsWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("sheets worker started")
	defer w.logger.Info().Msg("sheets worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if w.redis != nil {
			if t, ok := w.tryRedis(ctx); ok {
				w.processTask(ctx, &t)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case t := <-w.queue:
			w.processTask(ctx, &t)
		}
	}
}

func (w *SheetsWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SheetsWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return models.SyncTask{}, false
		}
		w.logger.Error().Err(err).Msg("redis BRPOP error")
		w.sleep(ctx, time.Second)
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SheetsWorker) processTask(ctx context.Context, task *models.SyncTask) {
	if w.superseded(task) {
		metrics.IncSyncTask("superseded")
		w.logger.Debug().
			Str("task_id", task.ID).
			Int64("booking_id", task.BookingID).
			Msg("skipping upsert for deleted booking")
		return
	}
	if err := w.handleSheetTask(ctx, task); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}
	metrics.IncSyncTask("completed")
	w.logger.Debug().
		Str("task_id", task.ID).
		Str("type", task.TaskType).
		Int64("booking_id", task.BookingID).
		Msg("sheet task completed")
}

func (w *SheetsWorker) handleSheetTask(ctx context.Context, task *models.SyncTask) error {
	switch task.TaskType {
	case models.TaskUpsert:
		if task.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.sheets.UpsertBooking(ctx, task.Booking)
	case models.TaskDelete:
		if task.BookingID == 0 {
			return errors.New("booking id missing")
		}
		return w.sheets.DeleteBookingRow(ctx, task.BookingID)
	default:
		return fmt.Errorf("unknown task type: %s", task.TaskType)
	}
}

func (w *SheetsWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	task.RetryCount++
	task.LastError = cause.Error()

	if w.retryPolicy.Exhausted(task.RetryCount) {
		w.logger.Error().
			Err(cause).
			Str("task_id", task.ID).
			Int64("booking_id", task.BookingID).
			Int("attempts", task.RetryCount).
			Msg("sheet task failed, moving to dead letter")
		metrics.IncSyncTask("dead_letter")
		w.pushDeadLetter(ctx, task)
		return
	}

	delay := w.retryPolicy.NextDelay(task.RetryCount)
	w.logger.Warn().
		Err(cause).
		Str("task_id", task.ID).
		Int("attempt", task.RetryCount).
		Dur("retry_in", delay).
		Msg("sheet task failed, retrying")
	metrics.IncSyncTask("retry")

	retry := *task
	go func() {
		select {
		case <-ctx.Done():
		case <-w.after(delay):
			if err := w.push(ctx, retry); err != nil {
				w.logger.Error().Err(err).Str("task_id", retry.ID).Msg("requeue failed")
			}
		}
	}()
}

func (w *SheetsWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *SheetsWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("deadletter push")
	}
}

// DeadLetters returns tasks that exhausted their retries, newest first.
func (w *SheetsWorker) DeadLetters(ctx context.Context) ([]models.SyncTask, error) {
	if w.redis == nil {
		return nil, nil
	}
	raw, err := w.redis.LRange(ctx, w.deadLetterKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	tasks := make([]models.SyncTask, 0, len(raw))
	for _, item := range raw {
		var t models.SyncTask
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (w *SheetsWorker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-w.after(d):
	}
}
