package quota

import "github.com/yannickloth/claude-router-system-sub000/core"

// DeferToTomorrow is the sentinel AwareScheduler.Select returns when every
// candidate tier for a complexity band is exhausted.
const DeferToTomorrow = ""

// AwareScheduler picks the cheapest tier that both covers a request's
// estimated complexity and still has quota.
type AwareScheduler struct {
	tracker *Tracker
}

func NewAwareScheduler(t *Tracker) *AwareScheduler {
	return &AwareScheduler{tracker: t}
}

// Select maps complexity (1-5) to a preferred tier chain and returns the
// first tier in that chain with remaining quota, or DeferToTomorrow if
// every candidate in the chain is exhausted.
//
//	1-2 -> cheap
//	3   -> mid, fallback cheap
//	4   -> mid
//	5   -> strong, fallback mid, then cheap
func (a *AwareScheduler) Select(complexity int) (core.Tier, error) {
	var chain []core.Tier
	switch {
	case complexity <= 2:
		chain = []core.Tier{core.TierCheap}
	case complexity == 3:
		chain = []core.Tier{core.TierMid, core.TierCheap}
	case complexity == 4:
		chain = []core.Tier{core.TierMid}
	default:
		chain = []core.Tier{core.TierStrong, core.TierMid, core.TierCheap}
	}

	for _, tier := range chain {
		ok, err := a.tracker.CanUse(tier)
		if err != nil {
			return DeferToTomorrow, err
		}
		if ok {
			return tier, nil
		}
	}
	return DeferToTomorrow, nil
}
