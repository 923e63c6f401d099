package schedule

import "sort"

type Slot struct {
	Start     TimeOfDay
	End       TimeOfDay
	Available bool
}

func (s Slot) Interval() Interval { return Interval{Start: s.Start, End: s.End} }

// GenerateSlots tiles window from its start in steps of durationMin.
// A trailing remainder shorter than durationMin is dropped.
func GenerateSlots(window Interval, durationMin int) []Slot {
	if durationMin <= 0 || durationMin > window.DurationMin() {
		return []Slot{}
	}
	slots := make([]Slot, 0, window.DurationMin()/durationMin)
	for start := window.Start; start+TimeOfDay(durationMin) <= window.End; start += TimeOfDay(durationMin) {
		slots = append(slots, Slot{Start: start, End: start + TimeOfDay(durationMin), Available: true})
	}
	return slots
}

// MarkAvailability flags every slot that overlaps a busy interval as unavailable.
// busy must be sorted by start, as returned by MergeIntervals.
func MarkAvailability(slots []Slot, busy []Interval) []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		s.Available = !OverlapsAny(s.Interval(), busy)
		out[i] = s
	}
	return out
}

func OverlapsAny(iv Interval, busy []Interval) bool {
	// busy is sorted, so stop once an interval starts at or after iv ends.
	for _, b := range busy {
		if b.Start >= iv.End {
			return false
		}
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}

// FindSlot reports whether start is a grid slot and whether it is free.
func FindSlot(slots []Slot, start TimeOfDay) (Slot, bool) {
	for _, s := range slots {
		if s.Start == start {
			return s, true
		}
	}
	return Slot{}, false
}

// MergeIntervals sorts by start and coalesces overlapping or touching intervals.
func MergeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return []Interval{}
	}
	sorted := make([]Interval, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
