package types

import (
	"reflect"
)

// ComputeDiff compares two shallow state snapshots. Keys present in neither
// direction are skipped; identical snapshots yield an empty diff. Values are
// compared with reflect.DeepEqual, so replacing a nested map with an equal
// copy does not register as a change.
func ComputeDiff(before, after State) Diff {
	diff := Diff{}
	for k, old := range before {
		now, exists := after[k]
		if !exists {
			diff[k] = Change{Old: old, New: nil}
			continue
		}
		if !reflect.DeepEqual(old, now) {
			diff[k] = Change{Old: old, New: now}
		}
	}
	for k, now := range after {
		if _, exists := before[k]; !exists {
			diff[k] = Change{Old: nil, New: now}
		}
	}
	return diff
}
