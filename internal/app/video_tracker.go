package app

import (
	"context"
	"time"

	"curriculum-service/internal/domain"
	"curriculum-service/internal/metrics"
	"go.uber.org/zap"
)

const progressWriteTimeout = 5 * time.Second

// VideoTracker turns player events into debounced progress writes. Failed
// writes are logged and reported through onError; nothing is retried.
type VideoTracker struct {
	progress  *ProgressService
	debouncer *Debouncer
	logger    *zap.Logger
	metrics   *metrics.Metrics
	onWrite   func(domain.LectureProgress)
	onError   func(domain.ProgressKey, error)
}

// TrackerOption customizes a VideoTracker.
type TrackerOption func(*VideoTracker)

// OnProgressWritten is called after every successful write.
func OnProgressWritten(fn func(domain.LectureProgress)) TrackerOption {
	return func(t *VideoTracker) { t.onWrite = fn }
}

// OnProgressError is called after every failed write.
func OnProgressError(fn func(domain.ProgressKey, error)) TrackerOption {
	return func(t *VideoTracker) { t.onError = fn }
}

func NewVideoTracker(progress *ProgressService, delay time.Duration, logger *zap.Logger, m *metrics.Metrics, opts ...TrackerOption) *VideoTracker {
	t := &VideoTracker{
		progress:  progress,
		debouncer: NewDebouncer(delay),
		logger:    logger,
		metrics:   m,
		onWrite:   func(domain.LectureProgress) {},
		onError:   func(domain.ProgressKey, error) {},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TimeUpdate schedules a progress write for the playback position.
func (t *VideoTracker) TimeUpdate(key domain.ProgressKey, currentTime, duration float64) {
	replaced := t.debouncer.Trigger(key.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), progressWriteTimeout)
		defer cancel()
		t.report(key, func() (domain.LectureProgress, error) {
			return t.progress.RecordVideoProgress(ctx, key, currentTime, duration)
		})
	})
	if replaced {
		t.metrics.Debounced()
	}
}

// Ended drops any pending position write and marks the lecture completed.
func (t *VideoTracker) Ended(ctx context.Context, key domain.ProgressKey) {
	t.debouncer.Cancel(key.String())
	t.report(key, func() (domain.LectureProgress, error) {
		return t.progress.VideoEnded(ctx, key)
	})
}

// Flush writes every pending position now.
func (t *VideoTracker) Flush() {
	t.debouncer.FlushAll()
}

func (t *VideoTracker) report(key domain.ProgressKey, write func() (domain.LectureProgress, error)) {
	record, err := write()
	if err != nil {
		t.logger.Warn("progress write failed",
			zap.String("user_id", key.UserID),
			zap.String("course_id", key.CourseID),
			zap.String("lecture_id", key.LectureID),
			zap.Error(err),
		)
		t.onError(key, err)
		return
	}
	t.onWrite(record)
}
