package bot

import (
	"context"
	"runtime/debug"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	defaultWorkers   = 8
	workerQueueDepth = 32
)

// Dispatcher fans updates out to a fixed set of workers. Every update of a user goes to the
// same worker, so one user's messages are handled in order while a slow user does not hold
// up the others.
type Dispatcher struct {
	handle func(ctx context.Context, u Update)
	queues []chan Update
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the given number of workers
func NewDispatcher(workers int, handle func(ctx context.Context, u Update)) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	queues := make([]chan Update, workers)
	for i := range queues {
		queues[i] = make(chan Update, workerQueueDepth)
	}
	return &Dispatcher{handle: handle, queues: queues}
}

// Run consumes updates until the channel closes or ctx is cancelled, then waits for the
// workers to finish what they already accepted
func (d *Dispatcher) Run(ctx context.Context, updates <-chan Update) {
	for i, queue := range d.queues {
		d.wg.Add(1)
		go d.work(ctx, i, queue)
	}
	defer func() {
		for _, queue := range d.queues {
			close(queue)
		}
		d.wg.Wait()
		log.Info("Update dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			select {
			case d.queueFor(u.UserID) <- u:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (d *Dispatcher) queueFor(userID int64) chan Update {
	return d.queues[uint64(userID)%uint64(len(d.queues))]
}

func (d *Dispatcher) work(ctx context.Context, index int, queue <-chan Update) {
	defer d.wg.Done()
	for u := range queue {
		d.safeHandle(ctx, index, u)
	}
}

func (d *Dispatcher) safeHandle(ctx context.Context, index int, u Update) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"worker": index,
				"userID": u.UserID,
				"panic":  r,
				"stack":  string(debug.Stack()),
			}).Error("Recovered from panic while handling update")
		}
	}()
	d.handle(ctx, u)
}
