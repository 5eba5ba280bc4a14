package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"frontdesk/internal/config"
	"frontdesk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	mu          sync.Mutex
	upsertCalls int
	deleteCalls int
	deleted     []int64
	replaced    []models.Booking
	rows        map[int64]bool
	failUpserts int
	err         error
}

func (f *fakeSheets) UpsertBooking(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	if f.failUpserts > 0 {
		f.failUpserts--
		return errors.New("sheets unavailable")
	}
	if f.err != nil {
		return f.err
	}
	if f.rows == nil {
		f.rows = make(map[int64]bool)
	}
	f.rows[b.ID] = true
	return nil
}

func (f *fakeSheets) DeleteBookingRow(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	f.deleted = append(f.deleted, id)
	if f.err != nil {
		return f.err
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeSheets) mirrorRows() map[int64]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]bool, len(f.rows))
	for id := range f.rows {
		out[id] = true
	}
	return out
}

type snapshotSheets struct {
	fakeSheets
}

func (s *snapshotSheets) ReplaceBookings(_ context.Context, bookings []models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced = bookings
	if s.err != nil {
		return s.err
	}
	s.rows = make(map[int64]bool, len(bookings))
	for _, b := range bookings {
		s.rows[b.ID] = true
	}
	return nil
}

// instant fires every scheduled retry immediately.
func instant(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func TestProcessTaskSuccess(t *testing.T) {
	sheets := &fakeSheets{}
	w := NewSheetsWorker(sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	booking := &models.Booking{ID: 1, Name: "Asha"}
	require.NoError(t, w.EnqueueTask(ctx, models.TaskUpsert, booking.ID, booking))

	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	assert.NotEmpty(t, task.ID)
	w.processTask(ctx, &task)

	assert.Equal(t, 1, sheets.upsertCalls)
	assert.Equal(t, 0, task.RetryCount)
}

func TestEnqueueTaskValidation(t *testing.T) {
	w := NewSheetsWorker(&fakeSheets{}, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	assert.Error(t, w.EnqueueTask(ctx, "", 1, nil))
	assert.Error(t, w.EnqueueTask(ctx, models.TaskDelete, 0, nil))
	assert.NoError(t, w.EnqueueTask(ctx, models.TaskUpsert, 0, &models.Booking{ID: 4}))

	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	assert.Equal(t, int64(4), task.BookingID)
}

func TestProcessTaskRetry(t *testing.T) {
	sheets := &fakeSheets{err: errors.New("boom")}
	w := NewSheetsWorker(sheets, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, nil)
	w.after = instant
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, models.TaskDelete, 2, nil))
	task, ok := w.tryLocalQueue()
	require.True(t, ok)

	w.processTask(ctx, &task)
	assert.Equal(t, 1, task.RetryCount)
	assert.Equal(t, "boom", task.LastError)

	select {
	case retried := <-w.queue:
		assert.Equal(t, task.ID, retried.ID)
		assert.Equal(t, 1, retried.RetryCount)
	case <-time.After(time.Second):
		t.Fatal("expected task to be requeued")
	}
}

func TestProcessTaskDeadLetter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sheets := &fakeSheets{err: errors.New("quota exceeded")}
	w := NewSheetsWorker(sheets, client, RetryPolicy{MaxRetries: 2}, nil)
	ctx := context.Background()

	task := models.SyncTask{ID: "t-1", TaskType: models.TaskDelete, BookingID: 9, RetryCount: 1}
	w.processTask(ctx, &task)

	dead, err := w.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "t-1", dead[0].ID)
	assert.Equal(t, 2, dead[0].RetryCount)
	assert.Equal(t, "quota exceeded", dead[0].LastError)

	n, err := client.LLen(ctx, queueKey).Result()
	require.NoError(t, err)
	assert.Zero(t, n, "dead task must not be requeued")
}

func TestUnknownTaskType(t *testing.T) {
	w := NewSheetsWorker(&fakeSheets{}, nil, RetryPolicy{}, nil)
	err := w.handleSheetTask(context.Background(), &models.SyncTask{TaskType: "update_status", BookingID: 1})
	assert.ErrorContains(t, err, "unknown task type")
}

func TestUpsertWithoutBooking(t *testing.T) {
	w := NewSheetsWorker(&fakeSheets{}, nil, RetryPolicy{}, nil)
	err := w.handleSheetTask(context.Background(), &models.SyncTask{TaskType: models.TaskUpsert, BookingID: 1})
	assert.Error(t, err)
}

func TestRedisQueueRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	w := NewSheetsWorker(&fakeSheets{}, client, RetryPolicy{}, nil)
	ctx := context.Background()

	booking := &models.Booking{ID: 3, Name: "Ravi", RoomNumber: 12}
	require.NoError(t, w.EnqueueTask(ctx, models.TaskUpsert, booking.ID, booking))

	_, ok := w.tryLocalQueue()
	assert.False(t, ok, "task should go to redis")

	task, ok := w.tryRedis(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(3), task.BookingID)
	require.NotNil(t, task.Booking)
	assert.Equal(t, "Ravi", task.Booking.Name)
}

func TestRedisDownFallsBackToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	w := NewSheetsWorker(&fakeSheets{}, client, RetryPolicy{}, nil)
	require.NoError(t, w.EnqueueTask(context.Background(), models.TaskDelete, 5, nil))

	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	assert.Equal(t, int64(5), task.BookingID)
}

func TestStartProcessesUntilCancelled(t *testing.T) {
	sheets := &fakeSheets{}
	w := NewSheetsWorker(sheets, nil, RetryPolicy{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, w.EnqueueTask(ctx, models.TaskDelete, 7, nil))
	require.Eventually(t, func() bool {
		sheets.mu.Lock()
		defer sheets.mu.Unlock()
		return sheets.deleteCalls == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestResync(t *testing.T) {
	ctx := context.Background()

	plain := NewSheetsWorker(&fakeSheets{}, nil, RetryPolicy{}, nil)
	assert.Error(t, plain.Resync(ctx, nil))

	sheets := &snapshotSheets{}
	w := NewSheetsWorker(sheets, nil, RetryPolicy{}, nil)
	require.NoError(t, w.Resync(ctx, []models.Booking{{ID: 1}, {ID: 2}}))
	assert.Len(t, sheets.replaced, 2)
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, p.NextDelay(0))
	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 5*time.Second, p.NextDelay(4))
	assert.Equal(t, time.Second, RetryPolicy{}.NextDelay(1))
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.WorkerConfig{MaxRetries: 3, InitialDelaySeconds: 1, MaxDelaySeconds: 10, BackoffFactor: 3})

	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, time.Second, p.InitialDelay)
	assert.Equal(t, 3*time.Second, p.NextDelay(2))
	assert.Equal(t, 10*time.Second, p.NextDelay(5))
	assert.False(t, p.Exhausted(2))
	assert.True(t, p.Exhausted(3))

	defaults := PolicyFromConfig(config.WorkerConfig{})
	assert.Equal(t, 5, defaults.MaxRetries)
	assert.Equal(t, 2*time.Second, defaults.InitialDelay)
	assert.Equal(t, time.Minute, defaults.MaxDelay)
}

func TestRetriedUpsertDroppedAfterDelete(t *testing.T) {
	sheets := &fakeSheets{failUpserts: 1}
	w := NewSheetsWorker(sheets, nil, RetryPolicy{MaxRetries: 3}, nil)
	release := make(chan time.Time)
	w.after = func(time.Duration) <-chan time.Time { return release }
	ctx := context.Background()

	booking := &models.Booking{ID: 1, Name: "Kiran", RoomNumber: 4}
	require.NoError(t, w.EnqueueTask(ctx, models.TaskUpsert, booking.ID, booking))
	upsert, ok := w.tryLocalQueue()
	require.True(t, ok)
	w.processTask(ctx, &upsert)
	assert.Equal(t, 1, upsert.RetryCount, "first upsert fails and waits for a retry")

	// the room is released while the retry waits
	require.NoError(t, w.EnqueueTask(ctx, models.TaskDelete, booking.ID, nil))
	del, ok := w.tryLocalQueue()
	require.True(t, ok)
	w.processTask(ctx, &del)

	release <- time.Now()
	var retried models.SyncTask
	select {
	case retried = <-w.queue:
	case <-time.After(time.Second):
		t.Fatal("expected upsert to be requeued")
	}
	w.processTask(ctx, &retried)

	assert.Empty(t, sheets.mirrorRows(), "released booking must not reappear in the mirror")
	assert.Equal(t, 1, sheets.upsertCalls, "stale upsert is not sent to sheets")
	assert.Equal(t, 1, sheets.deleteCalls)
}

func TestUpsertQueuedBeforeDeleteIsSkipped(t *testing.T) {
	sheets := &fakeSheets{}
	w := NewSheetsWorker(sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	booking := &models.Booking{ID: 8}
	require.NoError(t, w.EnqueueTask(ctx, models.TaskUpsert, booking.ID, booking))
	require.NoError(t, w.EnqueueTask(ctx, models.TaskDelete, booking.ID, nil))
	other := &models.Booking{ID: 9}
	require.NoError(t, w.EnqueueTask(ctx, models.TaskUpsert, other.ID, other))

	for i := 0; i < 3; i++ {
		task, ok := w.tryLocalQueue()
		require.True(t, ok)
		w.processTask(ctx, &task)
	}

	assert.Equal(t, map[int64]bool{9: true}, sheets.mirrorRows())
}

func TestResetDiscardsTasksFromPreviousRun(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	previous := NewSheetsWorker(&fakeSheets{}, client, RetryPolicy{}, nil)
	stale := &models.Booking{ID: 1, Name: "Old Guest"}
	require.NoError(t, previous.EnqueueTask(ctx, models.TaskUpsert, stale.ID, stale))

	sheets := &snapshotSheets{}
	w := NewSheetsWorker(sheets, client, RetryPolicy{}, nil)
	require.NoError(t, w.Reset(ctx, nil))

	n, err := client.LLen(ctx, queueKey).Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		w.Start(runCtx)
		close(done)
	}()

	fresh := &models.Booking{ID: 1, Name: "New Guest"}
	require.NoError(t, w.EnqueueTask(ctx, models.TaskUpsert, fresh.ID, fresh))
	require.Eventually(t, func() bool {
		return len(sheets.mirrorRows()) == 1
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	sheets.mu.Lock()
	defer sheets.mu.Unlock()
	assert.Equal(t, 1, sheets.upsertCalls, "only the task queued after reset is applied")
}

func TestResetFailsWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	w := NewSheetsWorker(&snapshotSheets{}, client, RetryPolicy{}, nil)
	assert.Error(t, w.Reset(context.Background(), nil))
}
