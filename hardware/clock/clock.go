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

package clock

import (
	"container/heap"
)

// Subscriber implementations receive notification of scheduled events when
// the clock reaches the tick the event was scheduled for.
type Subscriber interface {
	OnScheduledEvent(id uint32)
}

// Event is a handle to a scheduled event. A nil *Event is an event that is
// not scheduled.
type Event struct {
	when uint64
	seq  uint64
	id   uint32
	sub  Subscriber

	// index into the clock's event heap. -1 when not scheduled
	idx int
}

// Clock is a deterministic cycle counter with scheduled events. Events fire
// in tick order during Advance(). Events scheduled for the same tick fire in
// the order they were scheduled.
//
// Clock is not safe for concurrent use. Everything that touches it must run
// on the emulation goroutine.
type Clock struct {
	tick   uint64
	seq    uint64
	events eventHeap
}

// NewClock is the preferred method of initialisation of the Clock type.
func NewClock() *Clock {
	return &Clock{}
}

// Tick64 returns the current tick count.
func (clk *Clock) Tick64() uint64 {
	return clk.tick
}

// SetEvent schedules an event delay ticks into the future, replacing any
// event already scheduled through the same handle. The event fires when the
// clock reaches the scheduled tick during Advance(), never immediately.
//
// Subscribers are responsible for clearing their own handle when the event
// fires. A fired event left in a handle is inert but UnsetEvent() is cheaper
// when the handle is nil.
func (clk *Clock) SetEvent(delay uint64, sub Subscriber, id uint32, handle **Event) {
	clk.UnsetEvent(handle)

	ev := &Event{
		when: clk.tick + delay,
		seq:  clk.seq,
		id:   id,
		sub:  sub,
	}
	clk.seq++

	heap.Push(&clk.events, ev)
	*handle = ev
}

// UnsetEvent cancels the event referenced by the handle. Cancelling an
// unscheduled event is a no-op.
func (clk *Clock) UnsetEvent(handle **Event) {
	ev := *handle
	if ev == nil {
		return
	}
	if ev.idx >= 0 {
		heap.Remove(&clk.events, ev.idx)
	}
	*handle = nil
}

// TicksToEvent returns the number of ticks before the event fires.
func (clk *Clock) TicksToEvent(ev *Event) uint64 {
	if ev == nil || ev.when < clk.tick {
		return 0
	}
	return ev.when - clk.tick
}

// Advance moves the clock forward the specified number of ticks, firing any
// events that fall due. The clock is set to an event's exact tick before the
// subscriber is notified, so subscribers observe the tick they asked for.
func (clk *Clock) Advance(ticks uint64) {
	end := clk.tick + ticks

	for len(clk.events) > 0 && clk.events[0].when <= end {
		ev := heap.Pop(&clk.events).(*Event)
		clk.tick = ev.when
		ev.sub.OnScheduledEvent(ev.id)
	}

	clk.tick = end
}

// eventHeap implements heap.Interface. Ordered by tick then by scheduling
// order, so that same-tick events fire first-scheduled-first.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].when != h[j].when {
		return h[i].when < h[j].when
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].idx = i
	h[j].idx = j
}

func (h *eventHeap) Push(x interface{}) {
	ev := x.(*Event)
	ev.idx = len(*h)
	*h = append(*h, ev)
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	ev := old[n-1]
	ev.idx = -1
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}
