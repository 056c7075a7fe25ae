package appointment

import (
	"github.com/cuidapet/clinic-api/internal/model"
)

// SlotStep is the spacing between candidate start times offered by
// Availability.
const SlotStep = 30

type interval struct {
	start, end int
}

func parseInterval(s model.Slot) (interval, bool) {
	start, ok := model.ParseClock(s.Start)
	if !ok {
		return interval{}, false
	}
	end, ok := model.ParseClock(s.End)
	if !ok || end <= start {
		return interval{}, false
	}
	return interval{start, end}, true
}

// FindConflict returns the first booked slot on date whose half-open
// range [start, end) contains the candidate start. Booked slots with
// unparseable times never conflict, and neither does an unparseable
// candidate.
func FindConflict(date, start string, booked []model.Slot) (*model.Slot, bool) {
	minute, ok := model.ParseClock(start)
	if !ok {
		return nil, false
	}
	for i := range booked {
		if booked[i].Date != date {
			continue
		}
		b, ok := parseInterval(booked[i])
		if !ok {
			continue
		}
		if b.start <= minute && minute < b.end {
			return &booked[i], true
		}
	}
	return nil, false
}

// FindOverlap applies the same half-open policy to a whole candidate
// interval. A candidate without a usable end is checked by its start only.
func FindOverlap(candidate model.Slot, booked []model.Slot) (*model.Slot, bool) {
	c, ok := parseInterval(candidate)
	if !ok {
		return FindConflict(candidate.Date, candidate.Start, booked)
	}
	for i := range booked {
		if booked[i].Date != candidate.Date {
			continue
		}
		b, ok := parseInterval(booked[i])
		if !ok {
			continue
		}
		if c.start < b.end && b.start < c.end {
			return &booked[i], true
		}
	}
	return nil, false
}

// FreeSlots lists the intervals of length duration, starting every
// SlotStep minutes between open and close, that overlap no booked slot.
func FreeSlots(date string, duration int, open, close string, booked []model.Slot) []model.Slot {
	from, ok := model.ParseClock(open)
	if !ok {
		return nil
	}
	to, ok := model.ParseClock(close)
	if !ok || duration <= 0 {
		return nil
	}

	free := make([]model.Slot, 0)
	for start := from; start+duration <= to; start += SlotStep {
		candidate := model.Slot{
			Date:  date,
			Start: model.FormatClock(start),
			End:   model.FormatClock(start + duration),
		}
		if _, taken := FindOverlap(candidate, booked); !taken {
			free = append(free, candidate)
		}
	}
	return free
}
