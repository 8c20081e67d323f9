package icelog

import (
	"container/ring"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// ringEntry is one logged line, tagged with the dispatch request id it
// was logged under (0 meaning "no request in flight", e.g. a listener
// accepting a connection).
type ringEntry struct {
	requestID uint32
	line      string
}

// Ring is a fixed-size, most-recent-wins log history tagged by dispatch
// request id. The dispatch engine attaches the lines logged for one
// specific request to that request's UnknownException payload, so an
// operator sees exactly the server-side context for the call that
// failed rather than an undifferentiated tail of the whole process log.
type Ring struct {
	mu sync.Mutex
	r  *ring.Ring
}

func NewRing(size int) *Ring {
	return &Ring{r: ring.New(size)}
}

// Println mimics golang's log.Logger.Output, prepends the time, and
// tags the line with requestID for later correlation via Recent.
func (l *Ring) Println(requestID uint32, v ...interface{}) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var buf []byte

	year, month, day := now.Date()
	buf = strconv.AppendInt(buf, int64(year), 10)
	buf = append(buf, '/')
	buf = strconv.AppendInt(buf, int64(month), 10)
	buf = append(buf, '/')
	buf = strconv.AppendInt(buf, int64(day), 10)
	buf = append(buf, ' ')

	hour, min, sec := now.Clock()
	buf = strconv.AppendInt(buf, int64(hour), 10)
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, int64(min), 10)
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, int64(sec), 10)
	buf = append(buf, ' ')

	buf = append(buf, fmt.Sprintln(v...)...)

	l.r = l.r.Next()
	l.r.Value = ringEntry{requestID: requestID, line: string(buf)}
}

// Dump returns every log line still held, oldest to newest.
func (l *Ring) Dump() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := make([]string, 0, l.r.Len())
	l.r.Next().Do(func(v interface{}) {
		if v == nil {
			return
		}
		res = append(res, v.(ringEntry).line)
	})
	return res
}

// Recent returns the log lines tagged with requestID, oldest to newest.
// A servant handler that panics or raises an undeclared exception
// partway through a multi-step operation typically logged several
// Debug/Info lines along the way; Recent is how the dispatch boundary
// recovers exactly those lines to enrich the reply it sends back.
func (l *Ring) Recent(requestID uint32) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var res []string
	l.r.Next().Do(func(v interface{}) {
		if v == nil {
			return
		}
		e := v.(ringEntry)
		if e.requestID == requestID {
			res = append(res, e.line)
		}
	})
	return res
}
