// Package trace records scheduler events (commit, nack fire, park,
// wake) as a stream of msgpack-encoded records for offline inspection.
// Recording is opt-in: a nil *Recorder costs nothing beyond the nil
// check on every call site.
package trace

import (
	"io"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Kind identifies what happened.
type Kind string

const (
	KindCommit    Kind = "commit"
	KindNackFired Kind = "nack_fired"
	KindPark      Kind = "park"
	KindWake      Kind = "wake"
	KindSpawn     Kind = "spawn"
	KindFail      Kind = "fail"
)

// Event is one record in the trace stream.
type Event struct {
	Kind     Kind   `msgpack:"kind"`
	WorkerID int    `msgpack:"worker_id,omitempty"`
	Branch   int    `msgpack:"branch,omitempty"`
	Detail   string `msgpack:"detail,omitempty"`
	AtUnixNs int64  `msgpack:"at_unix_ns"`
}

// Recorder serializes Events to an underlying writer, one msgpack map
// per call to Record. A Recorder is safe for concurrent use by every
// worker goroutine at once.
type Recorder struct {
	mu  sync.Mutex
	enc *msgpack.Encoder
}

// NewRecorder wraps w; closing w, if it needs closing, is the caller's
// responsibility once the scheduler has stopped.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: msgpack.NewEncoder(w)}
}

// Record appends ev to the stream. A nil Recorder makes this a no-op,
// so call sites can hold a possibly-nil *Recorder unconditionally.
func (r *Recorder) Record(ev Event) {
	if r == nil {
		return
	}
	if ev.AtUnixNs == 0 {
		ev.AtUnixNs = time.Now().UnixNano()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(ev)
}

// Reader decodes a stream previously written by a Recorder.
type Reader struct {
	dec *msgpack.Decoder
}

// NewReader wraps r for replay.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: msgpack.NewDecoder(r)}
}

// Next decodes the next Event, returning io.EOF once the stream is
// exhausted.
func (r *Reader) Next() (Event, error) {
	var ev Event
	err := r.dec.Decode(&ev)
	return ev, err
}
