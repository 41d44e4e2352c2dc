package transfer

// Progress is an immutable snapshot of one running transfer. A snapshot
// is published after every batch boundary and once more at completion.
type Progress struct {
	// Total is the source row count, known before loading begins.
	Total int64

	// Transferred never decreases within one run.
	Transferred int64

	// Percent is floor(Transferred*100/Total) clamped to 100, 0 while
	// Total is 0, and exactly 100 on the final snapshot of a successful
	// run. It never decreases within one run, even when the source
	// gains rows after the count.
	Percent int

	// Status is human-readable phase text.
	Status string

	// Done marks the final snapshot of a run.
	Done bool

	// Succeeded is meaningful only when Done is set.
	Succeeded bool

	// Err carries the failure or cancellation message, if any.
	Err string
}

func percent(transferred, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(transferred * 100 / total)
	// The count is a snapshot; a source growing under the transfer can
	// push transferred past it.
	if p > 100 {
		p = 100
	}
	return p
}

// Sink receives progress snapshots. Publish is called from the goroutine
// executing the transfer and must not block it indefinitely.
type Sink interface {
	Publish(Progress)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Progress)

func (f SinkFunc) Publish(p Progress) { f(p) }

// ChanSink publishes snapshots into a buffered channel, dropping a
// snapshot rather than blocking the loading loop when the buffer is
// full. The final snapshot of a run is never dropped silently: Done
// snapshots block until delivered, so consumers must drain the channel.
type ChanSink struct {
	C chan Progress
}

func NewChanSink(buffer int) *ChanSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChanSink{C: make(chan Progress, buffer)}
}

func (s *ChanSink) Publish(p Progress) {
	if p.Done {
		s.C <- p
		return
	}
	select {
	case s.C <- p:
	default:
	}
}

// Close releases the channel once the run's final snapshot is consumed.
func (s *ChanSink) Close() { close(s.C) }

// nopSink swallows snapshots when the caller passes a nil sink.
type nopSink struct{}

func (nopSink) Publish(Progress) {}
