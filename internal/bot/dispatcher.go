package bot

import (
	"context"
	"strconv"
	"sync"

	"github.com/spec-kit/support-bot/internal/gateway"
)

// Dispatcher serializes update processing per conversation: all updates
// from one requester chat, and all updates from one staff member within
// the staff channel, are handled strictly in arrival order. Distinct
// conversations run concurrently.
type Dispatcher struct {
	ctx          context.Context
	handler      func(context.Context, gateway.Update)
	staffChannel int64

	mu     sync.Mutex
	queues map[string][]gateway.Update
	wg     sync.WaitGroup
}

// NewDispatcher builds a dispatcher invoking handler for every update.
// ctx bounds the lifetime of all conversation workers.
func NewDispatcher(ctx context.Context, staffChannel int64, handler func(context.Context, gateway.Update)) *Dispatcher {
	return &Dispatcher{
		ctx:          ctx,
		handler:      handler,
		staffChannel: staffChannel,
		queues:       make(map[string][]gateway.Update),
	}
}

// conversationKey picks the serialization domain. The shared staff channel
// serializes per staff identity so one member's reply flow cannot be
// reordered by another's chatter.
func (d *Dispatcher) conversationKey(u gateway.Update) string {
	if d.staffChannel != 0 && u.Channel == d.staffChannel {
		return "staff:" + strconv.FormatInt(u.From.ID, 10)
	}
	return "chat:" + strconv.FormatInt(u.Channel, 10)
}

// Enqueue hands one inbound update to its conversation worker, spawning
// the worker if the conversation is idle. It never blocks on processing.
func (d *Dispatcher) Enqueue(u gateway.Update) {
	key := d.conversationKey(u)

	d.mu.Lock()
	_, running := d.queues[key]
	d.queues[key] = append(d.queues[key], u)
	if !running {
		d.wg.Add(1)
		go d.drain(key)
	}
	d.mu.Unlock()
}

// drain processes a conversation's queue in FIFO order and exits once it
// runs dry. Queue-map presence doubles as the worker-alive flag.
func (d *Dispatcher) drain(key string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		queue := d.queues[key]
		if len(queue) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		u := queue[0]
		d.queues[key] = queue[1:]
		d.mu.Unlock()

		d.handler(d.ctx, u)
	}
}

// Wait blocks until every conversation queue has drained. Used on
// shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
