package reminder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func (p *stubProcessor) ProcessDue(ctx context.Context) (TickResult, error) {
	p.calls.Add(1)
	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.release != nil {
		<-p.release
	}
	return TickResult{Due: 1, Sent: 1}, p.err
}

type stubLocker struct {
	mu         sync.Mutex
	acquired   bool
	acquireErr error
	ttl        time.Duration
	released   []string
}

func (l *stubLocker) AcquireLock(_ context.Context, _ string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ttl = ttl
	if l.acquireErr != nil {
		return "", false, l.acquireErr
	}
	if !l.acquired {
		return "", false, nil
	}
	return "token-1", true, nil
}

func (l *stubLocker) ReleaseLock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = append(l.released, key+"="+token)
	return nil
}

func TestScheduler_TickRunsProcessor(t *testing.T) {
	p := &stubProcessor{}
	s := NewScheduler(p, time.Minute)

	res, ran := s.Tick(context.Background())
	assert.True(t, ran)
	assert.Equal(t, TickResult{Due: 1, Sent: 1}, res)
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestScheduler_OverlappingTickIsSkipped(t *testing.T) {
	p := &stubProcessor{started: make(chan struct{}), release: make(chan struct{})}
	s := NewScheduler(p, time.Minute)

	done := make(chan bool)
	go func() {
		_, ran := s.Tick(context.Background())
		done <- ran
	}()
	<-p.started

	_, ran := s.Tick(context.Background())
	assert.False(t, ran)

	close(p.release)
	assert.True(t, <-done)
	assert.EqualValues(t, 1, p.calls.Load())

	p.started = nil
	_, ran = s.Tick(context.Background())
	assert.True(t, ran, "flag cleared after the first tick")
}

func TestScheduler_LockHeldElsewhereSkips(t *testing.T) {
	p := &stubProcessor{}
	locker := &stubLocker{acquired: false}
	s := NewScheduler(p, 2*time.Minute, WithLocker(locker, "lock:reminders"))

	_, ran := s.Tick(context.Background())
	assert.False(t, ran)
	assert.Zero(t, p.calls.Load())
	assert.Equal(t, 2*time.Minute, locker.ttl)
}

func TestScheduler_LockAcquiredIsReleased(t *testing.T) {
	p := &stubProcessor{}
	locker := &stubLocker{acquired: true}
	s := NewScheduler(p, time.Minute, WithLocker(locker, "lock:reminders"))

	_, ran := s.Tick(context.Background())
	require.True(t, ran)
	assert.EqualValues(t, 1, p.calls.Load())
	assert.Equal(t, []string{"lock:reminders=token-1"}, locker.released)
}

func TestScheduler_LockErrorStillProcesses(t *testing.T) {
	p := &stubProcessor{}
	locker := &stubLocker{acquireErr: errors.New("redis down")}
	s := NewScheduler(p, time.Minute, WithLocker(locker, "lock:reminders"))

	_, ran := s.Tick(context.Background())
	assert.True(t, ran)
	assert.EqualValues(t, 1, p.calls.Load())
	assert.Empty(t, locker.released)
}

func TestScheduler_ProcessorErrorIsReported(t *testing.T) {
	p := &stubProcessor{err: errors.New("db gone")}
	s := NewScheduler(p, time.Minute)

	_, ran := s.Tick(context.Background())
	assert.True(t, ran)
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	p := &stubProcessor{}
	s := NewScheduler(p, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNewScheduler_DefaultInterval(t *testing.T) {
	s := NewScheduler(&stubProcessor{}, 0)
	assert.Equal(t, 5*time.Minute, s.interval)
}
