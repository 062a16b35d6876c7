package schedule

import (
	"context"
	"errors"
	"time"
)

// ErrStopped is returned when work is handed to a loop that is no longer running.
var ErrStopped = errors.New("loop stopped")

// Loop is a single-goroutine event loop. Timers and posted functions all run on the
// goroutine that called Run, so state owned by the loop needs no further locking.
type Loop struct {
	q     queue
	inbox chan func()
	wake  chan struct{}
	done  chan struct{}
}

// NewLoop creates a loop; call Run to start it.
func NewLoop() *Loop {
	return &Loop{
		inbox: make(chan func(), 64),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Task {
	if d < 0 {
		d = 0
	}
	t := l.q.push(time.Now().Add(d), fn)
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return t
}

// Post queues fn to run on the loop. It reports false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.inbox <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(fn func()) error {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-ran:
		return nil
	case <-l.done:
		select {
		case <-ran:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Done is closed once Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run drives the loop until ctx is cancelled. Pending tasks are dropped on exit.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		for {
			t := l.q.popDue(time.Now())
			if t == nil {
				break
			}
			t.fn()
		}

		var timer *time.Timer
		var fire <-chan time.Time
		if at, ok := l.q.next(); ok {
			timer = time.NewTimer(time.Until(at))
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case fn := <-l.inbox:
			fn()
		case <-l.wake:
		case <-fire:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}
