package models

const (
	// corruptionSpread is the maximum spread (seconds) between the oldest
	// and newest firstSeen values for the cluster check to fire.
	corruptionSpread = 3600
	// corruptionMinFollowers is the follower count that must be exceeded.
	corruptionMinFollowers = 5
	// corruptionRecency is how recent (seconds) the newest firstSeen must
	// be. A legitimate reset back-dates all entries far into the past, so
	// an old cluster is not a corruption signal.
	corruptionRecency = 7 * 24 * 3600
)

// IsCorrupted flags a baseline whose followers all carry near-identical
// recent timestamps. A correctly created baseline back-dates its initial
// entries by 30 days, so a tight cluster of recent values across many
// followers means a bug wrote "now" for every entry.
func (b *Baseline) IsCorrupted(now int64) bool {
	if b == nil || len(b.Followers) < 2 {
		return false
	}
	var min, max int64
	first := true
	for _, firstSeen := range b.Followers {
		if first {
			min, max = firstSeen, firstSeen
			first = false
			continue
		}
		if firstSeen < min {
			min = firstSeen
		}
		if firstSeen > max {
			max = firstSeen
		}
	}
	spread := max - min
	return spread < corruptionSpread &&
		len(b.Followers) > corruptionMinFollowers &&
		max > now-corruptionRecency
}
