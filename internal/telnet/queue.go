package telnet

import "sync"

// dataQueue buffers received data so the reader goroutine never blocks on a
// slow consumer while negotiation traffic is still arriving.
type dataQueue struct {
	mu   sync.Mutex
	cond *sync.Cond
	buf  []byte
	err  error
}

func newDataQueue() *dataQueue {
	q := &dataQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *dataQueue) write(p []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return
	}
	q.buf = append(q.buf, p...)
	q.cond.Broadcast()
}

// close records err as the terminal read error. Buffered bytes are still
// returned before err. The first error wins.
func (q *dataQueue) close(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err == nil {
		q.err = err
	}
	q.cond.Broadcast()
}

// read blocks until at least one byte is available or the queue is closed.
func (q *dataQueue) read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.buf) == 0 && q.err == nil {
		q.cond.Wait()
	}
	if len(q.buf) == 0 {
		return 0, q.err
	}
	n := copy(p, q.buf)
	q.buf = q.buf[n:]
	return n, nil
}
