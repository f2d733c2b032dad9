// This file is part of Gopher800.
//
// Gopher800 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher800 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher800.  If not, see <https://www.gnu.org/licenses/>.

package vm

// WaitQueue is a FIFO of suspended threads. Threads waiting on the same
// condition are always released in the order they began waiting.
type WaitQueue struct {
	threads []*Thread
}

// Suspend parks the active thread on the queue. The thread's abort handler
// removes it from the queue, then runs the supplied abort function if there
// is one.
func (q *WaitQueue) Suspend(t *Thread, abort func(*Thread)) {
	q.threads = append(q.threads, t)
	t.Suspend(func(t *Thread) {
		q.remove(t)
		if abort != nil {
			abort(t)
		}
	})
}

// Add appends a thread that is already suspended, rebinding its abort
// handler to this queue. Used by schedulers moving threads between queues.
func (q *WaitQueue) Add(t *Thread) {
	q.threads = append(q.threads, t)
	t.Suspend(func(t *Thread) {
		q.remove(t)
	})
}

// Pop removes and returns the head of the queue, unblocking it. Returns nil
// if the queue is empty. The caller is responsible for resuming the thread.
func (q *WaitQueue) Pop() *Thread {
	if len(q.threads) == 0 {
		return nil
	}
	t := q.threads[0]
	copy(q.threads, q.threads[1:])
	q.threads[len(q.threads)-1] = nil
	q.threads = q.threads[:len(q.threads)-1]
	t.Unblock()
	return t
}

// Peek returns the head of the queue without removing it. Returns nil if the
// queue is empty.
func (q *WaitQueue) Peek() *Thread {
	if len(q.threads) == 0 {
		return nil
	}
	return q.threads[0]
}

// TransferNext moves the head of the queue to the destination queue,
// preserving its suspended state. Returns false if the queue was empty.
func (q *WaitQueue) TransferNext(dst *WaitQueue) bool {
	t := q.Pop()
	if t == nil {
		return false
	}
	dst.Add(t)
	return true
}

// TransferAll moves every thread to the destination queue in FIFO order.
func (q *WaitQueue) TransferAll(dst *WaitQueue) {
	for q.TransferNext(dst) {
	}
}

// Len returns the number of waiting threads.
func (q *WaitQueue) Len() int {
	return len(q.threads)
}

// Reset empties the queue without touching the threads. Used when the
// threads have already been aborted through some other path.
func (q *WaitQueue) Reset() {
	for i := range q.threads {
		q.threads[i] = nil
	}
	q.threads = q.threads[:0]
}

func (q *WaitQueue) remove(t *Thread) {
	for i := range q.threads {
		if q.threads[i] == t {
			copy(q.threads[i:], q.threads[i+1:])
			q.threads[len(q.threads)-1] = nil
			q.threads = q.threads[:len(q.threads)-1]
			return
		}
	}
}
