package model

// Priority is one of the eleven ordinal task tiers, highest first.
type Priority string

const (
	PriorityA1 Priority = "A1"
	PriorityA2 Priority = "A2"
	PriorityA3 Priority = "A3"
	PriorityB1 Priority = "B1"
	PriorityB2 Priority = "B2"
	PriorityB3 Priority = "B3"
	PriorityC1 Priority = "C1"
	PriorityC2 Priority = "C2"
	PriorityC3 Priority = "C3"
	PriorityD  Priority = "D"
	PriorityE  Priority = "E"
)

// Priorities lists every tier in ordinal order.
var Priorities = []Priority{
	PriorityA1, PriorityA2, PriorityA3,
	PriorityB1, PriorityB2, PriorityB3,
	PriorityC1, PriorityC2, PriorityC3,
	PriorityD, PriorityE,
}

// Letter returns the tier's leading letter ("A".."E"), or "" for an empty priority.
func (p Priority) Letter() string {
	if p == "" {
		return ""
	}
	return string(p[0])
}

// IsHigh reports whether the tier's leading letter is A or B.
func (p Priority) IsHigh() bool {
	l := p.Letter()
	return l == "A" || l == "B"
}

// Valid reports whether p is one of the known tiers.
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}
