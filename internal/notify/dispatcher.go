package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

type Job struct {
	BarbershopID uint
	Recipient    string
	Message      Message
}

type Delivery struct {
	Job Job
	Err error
}

// Dispatcher sends jobs in the background; onDone sees every outcome.
type Dispatcher struct {
	sender  Sender
	onDone  func(Delivery)
	timeout time.Duration
	queue   chan Job
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sender Sender, onDone func(Delivery)) *Dispatcher {
	if onDone == nil {
		onDone = func(Delivery) {}
	}

	d := &Dispatcher{
		sender:  sender,
		onDone:  onDone,
		timeout: 15 * time.Second,
		queue:   make(chan Job, 256),
	}

	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		_, err := d.sender.Send(ctx, job.Message)
		cancel()

		if err != nil {
			log.Printf("notify: %s: %v", job.Recipient, err)
		}
		d.onDone(Delivery{Job: job, Err: err})
	}
}

// Enqueue returns false when the job was dropped: queue full or
// dispatcher closed.
func (d *Dispatcher) Enqueue(job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}

	select {
	case d.queue <- job:
		return true
	default:
		log.Println("notify queue full, dropping", job.Recipient)
		return false
	}
}

func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
