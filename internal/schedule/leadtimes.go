package schedule

import "sort"

// DefaultLeadTimeMinutes is substituted when a condition has no valid lead
// times, so every armed message gets at least one warning 24 hours before
// final delivery.
const DefaultLeadTimeMinutes int32 = 1440

// NormalizeLeadTimes drops non-positive entries, removes duplicates and sorts
// ascending. Values are always minutes before the deadline.
func NormalizeLeadTimes(leadTimes []int32) []int32 {
	seen := make(map[int32]bool, len(leadTimes))
	out := make([]int32, 0, len(leadTimes))
	for _, m := range leadTimes {
		if m <= 0 || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
