package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDown is what a failed Fake returns; it stands in for losing the
// queue connection.
var ErrDown = errors.New("queue unavailable")

// Fake is an in-memory Queue for tests. Unacknowledged messages are
// redelivered on the next Receive, which models visibility-timeout expiry
// without the wait.
type Fake struct {
	mu      sync.Mutex
	pending []Message
	inUse   map[string]Message
	next    int
	down    bool
	acked   []string
}

// NewFake returns an empty in-memory queue.
func NewFake() *Fake {
	return &Fake{inUse: make(map[string]Message)}
}

// Fail makes subsequent Receive/Ack/Publish calls return ErrDown.
func (f *Fake) Fail(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *Fake) Ensure(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return ErrDown
	}
	return nil
}

func (f *Fake) Publish(_ context.Context, body []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return "", ErrDown
	}
	f.next++
	msg := Message{ID: fmt.Sprintf("msg-%d", f.next), Body: body}
	f.pending = append(f.pending, msg)
	return msg.ID, nil
}

// Receive hands out pending messages, delivered-but-unacked ones first.
func (f *Fake) Receive(_ context.Context, max int64, _ time.Duration) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, ErrDown
	}
	var out []Message
	for _, msg := range f.inUse {
		if int64(len(out)) >= max {
			break
		}
		out = append(out, msg)
	}
	for int64(len(out)) < max && len(f.pending) > 0 {
		msg := f.pending[0]
		f.pending = f.pending[1:]
		f.inUse[msg.ID] = msg
		out = append(out, msg)
	}
	return out, nil
}

func (f *Fake) Ack(_ context.Context, ids ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return ErrDown
	}
	for _, id := range ids {
		delete(f.inUse, id)
		f.acked = append(f.acked, id)
	}
	return nil
}

// Acked returns the IDs acknowledged so far, in order.
func (f *Fake) Acked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

// Depth returns how many messages are pending or delivered-but-unacked.
func (f *Fake) Depth() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending) + len(f.inUse)
}
