package store

import (
	"sort"

	"github.com/joachimneu/regenbib/internal/entry"
)

// Sort orders entries by the given key codes. The sort is stable, so
// entries equal under the requested keys keep their store order.
func (s *Store) Sort(codes []entry.KeyCode) {
	sort.SliceStable(s.Entries, func(i, j int) bool {
		a := entry.CompositeKey(s.Entries[i], codes)
		b := entry.CompositeKey(s.Entries[j], codes)
		return entry.LessComposite(a, b)
	})
}

// CollapsedGroup is a set of same-key entries dedup merged into one.
type CollapsedGroup struct {
	Key     string
	Dropped int
}

// ManualGroup is a set of same-key entries dedup could not collapse.
type ManualGroup struct {
	Key        string
	Size       int
	Reason     string
	ContentIDs []string
}

// DedupResult reports what a dedup pass did. Groups appear in order of
// each key's first occurrence in the store.
type DedupResult struct {
	// Removed is the number of entries dropped as exact duplicates.
	Removed int
	// Collapsed lists the keys whose duplicates were dropped.
	Collapsed []CollapsedGroup
	// Manual lists citation keys that need attention by hand.
	Manual []ManualGroup
}

// Dedup collapses groups of two or three entries sharing a citation key
// when their content identities all match, keeping the first of each
// group. Larger groups and groups with differing content are left in
// place and reported.
func (s *Store) Dedup() DedupResult {
	byKey := make(map[string][]int)
	var order []string
	for i, e := range s.Entries {
		k := e.Key()
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], i)
	}

	var res DedupResult
	var drop []int
	for _, k := range order {
		idx := byKey[k]
		if len(idx) == 1 {
			continue
		}
		contentIDs := make([]string, len(idx))
		for j, i := range idx {
			contentIDs[j] = s.Entries[i].ContentID()
		}

		if len(idx) > 3 {
			res.Manual = append(res.Manual, ManualGroup{Key: k, Size: len(idx), Reason: "more than three copies", ContentIDs: contentIDs})
			continue
		}

		same := true
		for _, id := range contentIDs[1:] {
			if id != contentIDs[0] {
				same = false
				break
			}
		}
		if !same {
			res.Manual = append(res.Manual, ManualGroup{Key: k, Size: len(idx), Reason: "entries differ", ContentIDs: contentIDs})
			continue
		}
		res.Collapsed = append(res.Collapsed, CollapsedGroup{Key: k, Dropped: len(idx) - 1})
		drop = append(drop, idx[1:]...)
	}

	// Delete from the back so earlier indexes stay valid.
	sort.Sort(sort.Reverse(sort.IntSlice(drop)))
	for _, i := range drop {
		s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
	}
	res.Removed = len(drop)
	return res
}
