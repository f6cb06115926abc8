package game

import "slices"

// TimerID identifies a scheduled timer. The zero value is never issued.
type TimerID uint64

type timer struct {
	id       TimerID
	remain   float64
	callback func()
}

// Timers is a tick-driven one-shot timer facility. Time only moves when
// Advance is called, so callbacks always run on the tick path.
type Timers struct {
	nextID TimerID
	timers []timer
	tocall []func()
}

// After schedules callback to run once delay seconds of Advance time have
// passed. A non-positive delay fires on the next Advance.
func (ts *Timers) After(delay float64, callback func()) TimerID {
	ts.nextID++
	ts.timers = append(ts.timers, timer{id: ts.nextID, remain: delay, callback: callback})
	return ts.nextID
}

// Cancel removes a pending timer, returning true only if it was pending.
func (ts *Timers) Cancel(id TimerID) bool {
	i := slices.IndexFunc(ts.timers, func(t timer) bool { return t.id == id })
	if i < 0 {
		return false
	}
	ts.timers = slices.Delete(ts.timers, i, i+1)
	return true
}

// Pending returns the number of timers that have not fired yet.
func (ts *Timers) Pending() int {
	return len(ts.timers)
}

// Advance moves time forward by dt and runs expired callbacks in the order
// they were scheduled. Callbacks run after all timers have been updated, so
// they may schedule or cancel timers.
func (ts *Timers) Advance(dt float64) {
	ts.tocall = ts.tocall[:0]
	kept := ts.timers[:0]
	for _, t := range ts.timers {
		t.remain -= dt
		if t.remain <= 0 {
			ts.tocall = append(ts.tocall, t.callback)
			continue
		}
		kept = append(kept, t)
	}
	clear(ts.timers[len(kept):])
	ts.timers = kept

	for _, f := range ts.tocall {
		f()
	}
}
