// Package rates implements tick-windowed budgets.
package rates

// Window counts units spent since Start. A zero Window is ready to use: the
// first spend anchors the window.
type Window struct {
	Start uint64
	Count int
}

// Allow spends n units at tick now against a budget of max per window ticks.
// A denied request spends nothing and reports the ticks until the window
// resets. window == 0 or max <= 0 disables the budget.
func (w *Window) Allow(now, window uint64, max, n int) (ok bool, cooldown uint64) {
	if window == 0 || max <= 0 {
		return true, 0
	}
	if w.Count == 0 || now < w.Start || now-w.Start >= window {
		w.Start = now
		w.Count = 0
	}
	if w.Count+n > max {
		return false, w.Start + window - now
	}
	w.Count += n
	return true, 0
}
