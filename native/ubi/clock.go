package ubi

// Period derives the distribution epoch containing height for the given
// period length. A zero length yields period zero.
func Period(height, length uint64) uint64 {
	if length == 0 {
		return 0
	}
	return height / length
}

// MonthlyPeriodAt returns the monthly distribution period for height.
func MonthlyPeriodAt(height uint64) uint64 { return Period(height, MonthlyPeriod) }

// programEnd computes start + months × MonthlyPeriod, saturating at the
// maximum height instead of wrapping.
func programEnd(start, months uint64) uint64 {
	const maxHeight = ^uint64(0)
	if months != 0 && months > (maxHeight-start)/MonthlyPeriod {
		return maxHeight
	}
	return start + months*MonthlyPeriod
}
