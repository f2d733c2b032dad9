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

package device

import (
	"container/heap"

	"github.com/gopher800/gopher800/hardware/clock"
	"github.com/gopher800/gopher800/vm"
)

// clock event id used by the device
const eventIDSleep = 1

// the scheduler never installs a sleep event further out than this. a
// nearer wake may be registered in the meantime and re-arming a capped
// event is cheap
const maxSleepEventDelay = 1000000

type sleepEntry struct {
	wake   uint64
	thread *vm.Thread
}

// min-heap on wake cycle. ties broken by thread creation order so that
// waking is deterministic: threads sleeping to the same cycle wake in the
// order they were created
type sleepHeap []sleepEntry

func (h sleepHeap) Len() int { return len(h) }

func (h sleepHeap) Less(i, j int) bool {
	if h[i].wake != h[j].wake {
		return h[i].wake < h[j].wake
	}
	return h[i].thread.Index < h[j].thread.Index
}

func (h sleepHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *sleepHeap) Push(x interface{}) {
	*h = append(*h, x.(sleepEntry))
}

func (h *sleepHeap) Pop() interface{} {
	old := *h
	e := old[len(old)-1]
	old[len(old)-1] = sleepEntry{}
	*h = old[:len(old)-1]
	return e
}

// scheduler runs script threads cooperatively against the device clock.
// threads in the run queue are resumed FIFO; sleeping threads are held in
// the sleep heap until the clock reaches their wake cycle.
type scheduler struct {
	clk *clock.Clock

	sleep sleepHeap
	run   vm.WaitQueue

	// the single installed wake event. re-installed after every sleep heap
	// mutation
	sleepEv *clock.Event

	// coalesces re-entrant RunReadyThreads calls. a method implementation
	// that makes another thread ready must not recurse into the drain loop
	// that is already running it
	draining int
}

func newScheduler(clk *clock.Clock) *scheduler {
	return &scheduler{clk: clk}
}

// SleepThread parks the thread until the clock reaches now+cycles. The
// thread must be the active thread of a Resume() in progress. An aborted
// thread is removed from the sleep heap and never wakes.
func (s *scheduler) SleepThread(t *vm.Thread, cycles uint64) {
	heap.Push(&s.sleep, sleepEntry{wake: s.clk.Tick64() + cycles, thread: t})
	t.Suspend(func(t *vm.Thread) {
		s.removeSleep(t)
		s.updateThreadSleep()
	})
	s.updateThreadSleep()
}

func (s *scheduler) removeSleep(t *vm.Thread) {
	for i := range s.sleep {
		if s.sleep[i].thread == t {
			heap.Remove(&s.sleep, i)
			return
		}
	}
}

// updateThreadSleep reinstalls the single wake event to match the head of
// the sleep heap.
func (s *scheduler) updateThreadSleep() {
	s.clk.UnsetEvent(&s.sleepEv)
	if len(s.sleep) == 0 {
		return
	}

	now := s.clk.Tick64()
	delay := uint64(0)
	if s.sleep[0].wake > now {
		delay = s.sleep[0].wake - now
	}
	if delay > maxSleepEventDelay {
		delay = maxSleepEventDelay
	}
	s.clk.SetEvent(delay, s, eventIDSleep, &s.sleepEv)
}

// OnScheduledEvent implements the clock.Subscriber interface.
func (s *scheduler) OnScheduledEvent(id uint32) {
	s.sleepEv = nil

	// every entry that is due moves to the run queue, in heap order
	now := s.clk.Tick64()
	for len(s.sleep) > 0 && s.sleep[0].wake <= now {
		e := heap.Pop(&s.sleep).(sleepEntry)
		s.run.Add(e.thread)
	}

	s.updateThreadSleep()
	s.RunReadyThreads()
}

// ScheduleThread moves a suspended thread to the back of the run queue and
// drains the queue.
func (s *scheduler) ScheduleThread(t *vm.Thread) {
	s.run.Add(t)
	s.RunReadyThreads()
}

// ScheduleNextThread readies the head of the wait queue, if any.
func (s *scheduler) ScheduleNextThread(q *vm.WaitQueue) {
	if q.TransferNext(&s.run) {
		s.RunReadyThreads()
	}
}

// ScheduleThreads readies every thread on the wait queue, preserving their
// waiting order.
func (s *scheduler) ScheduleThreads(q *vm.WaitQueue) {
	if q.Len() == 0 {
		return
	}
	q.TransferAll(&s.run)
	s.RunReadyThreads()
}

// RunReadyThreads resumes run queue threads FIFO until the queue is empty.
// Re-entrant calls return immediately; the drain loop already running picks
// up whatever they added.
func (s *scheduler) RunReadyThreads() {
	s.draining++
	if s.draining > 1 {
		s.draining--
		return
	}

	for {
		t := s.run.Pop()
		if t == nil {
			break
		}
		t.Resume()
	}

	s.draining--
}

// Reset empties the sleep heap and run queue and cancels the wake event.
// The threads themselves are aborted by the domain.
func (s *scheduler) Reset() {
	s.sleep = s.sleep[:0]
	s.run.Reset()
	s.clk.UnsetEvent(&s.sleepEv)
}
