package models

// FollowerEntry is one classified follower.
type FollowerEntry struct {
	Identity  string `json:"identity"`
	FirstSeen int64  `json:"firstSeen"`
}

// Classification is the result of comparing an observed follower set
// against a baseline. The three lists are disjoint and keep the insertion
// order of the observed input.
type Classification struct {
	NewFollowers      []FollowerEntry `json:"newFollowers"`
	RecentFollowers   []FollowerEntry `json:"recentFollowers"`
	ExistingFollowers []FollowerEntry `json:"existingFollowers"`
	Baseline          *Baseline       `json:"baseline"`
	IsFirstTime       bool            `json:"isFirstTime"`
}

// Dedup returns observed with duplicates and malformed identities removed,
// preserving first-occurrence order.
func Dedup(observed []string) []string {
	seen := make(map[string]struct{}, len(observed))
	out := make([]string, 0, len(observed))
	for _, id := range observed {
		if !ValidIdentity(id) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Compare classifies each observed identity against the baseline. A
// follower absent from the baseline is new with firstSeen=now. A present
// follower is recent while firstSeen > now-window (the boundary itself
// falls on the existing side), existing otherwise.
func Compare(observed []string, b *Baseline, window int64, now int64) *Classification {
	cls := &Classification{
		NewFollowers:      []FollowerEntry{},
		RecentFollowers:   []FollowerEntry{},
		ExistingFollowers: []FollowerEntry{},
		Baseline:          b,
	}
	cutoff := now - window
	for _, id := range observed {
		firstSeen, ok := b.Followers[id]
		if !ok {
			cls.NewFollowers = append(cls.NewFollowers, FollowerEntry{Identity: id, FirstSeen: now})
			continue
		}
		if firstSeen > cutoff {
			cls.RecentFollowers = append(cls.RecentFollowers, FollowerEntry{Identity: id, FirstSeen: firstSeen})
		} else {
			cls.ExistingFollowers = append(cls.ExistingFollowers, FollowerEntry{Identity: id, FirstSeen: firstSeen})
		}
	}
	return cls
}
