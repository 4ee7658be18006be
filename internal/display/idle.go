package display

// Scheduler runs callbacks once the event loop has nothing else to do.
// The returned function cancels the callback if it has not run yet.
type Scheduler interface {
	Schedule(fn func()) (cancel func())
}

// Idle is a Scheduler driven explicitly by an event loop calling Run.
type Idle struct {
	queue []*idleCall
}

type idleCall struct {
	fn        func()
	cancelled bool
}

// Schedule queues fn for the next Run.
func (q *Idle) Schedule(fn func()) func() {
	c := &idleCall{fn: fn}
	q.queue = append(q.queue, c)
	return func() { c.cancelled = true }
}

// Pending returns the number of queued callbacks that are not cancelled.
func (q *Idle) Pending() int {
	n := 0
	for _, c := range q.queue {
		if !c.cancelled {
			n++
		}
	}
	return n
}

// Run calls the callbacks queued before it started and returns how many
// ran. Callbacks scheduled while running wait for the next Run.
func (q *Idle) Run() int {
	calls := q.queue
	q.queue = nil
	ran := 0
	for _, c := range calls {
		if c.cancelled {
			continue
		}
		c.cancelled = true
		c.fn()
		ran++
	}
	return ran
}
