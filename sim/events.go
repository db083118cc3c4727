package sim

// Event is a scheduled hardware event in simulated time
type Event struct {
	At      float64 // Simulated seconds since power-on
	Handler func(*Event) uint8
	Next    *Event
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Queue is the time-ordered list of pending events
type Queue struct {
	head       *Event
	now        float64
	dispatched uint64
}

// Now returns the simulated time of the last dispatched event
func (q *Queue) Now() float64 {
	return q.now
}

// Dispatched returns the number of events dispatched so far
func (q *Queue) Dispatched() uint64 {
	return q.dispatched
}

// Schedule adds an event to the queue
func (q *Queue) Schedule(e *Event) {
	q.insert(e)
}

// insert keeps the list sorted by At; events with equal times run in the
// order they were scheduled
func (q *Queue) insert(e *Event) {
	if q.head == nil || e.At < q.head.At {
		e.Next = q.head
		q.head = e
		return
	}

	current := q.head
	for current.Next != nil && current.Next.At <= e.At {
		current = current.Next
	}

	e.Next = current.Next
	current.Next = e
}

// DispatchNext advances time to the earliest event and runs it. A handler
// returning SF_RESCHEDULE must have moved At forward.
func (q *Queue) DispatchNext() bool {
	e := q.head
	if e == nil {
		return false
	}
	q.head = e.Next
	e.Next = nil // Clear Next pointer to avoid circular references

	q.now = e.At
	q.dispatched++

	if e.Handler(e) == SF_RESCHEDULE {
		q.insert(e)
	}
	return true
}

// Len returns the number of pending events
func (q *Queue) Len() int {
	n := 0
	for e := q.head; e != nil; e = e.Next {
		n++
	}
	return n
}
