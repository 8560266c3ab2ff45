package metric

import "time"

// Window is a closed time range for a metric query. Construct it with
// NewWindow so both bounds are UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns [now-length, now] normalised to UTC.
func NewWindow(now time.Time, length time.Duration) Window {
	end := now.UTC()
	return Window{
		Start: end.Add(-length),
		End:   end,
	}
}

// Length returns End minus Start.
func (w Window) Length() time.Duration {
	return w.End.Sub(w.Start)
}
