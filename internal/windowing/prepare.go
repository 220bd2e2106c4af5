package windowing

import "github.com/petasbytes/localmind/memory"

// Stats summarizes the result of window preparation.
//
// Fields:
// - Total: estimated tokens for included groups only.
// - Budget: the input token budget used.
// - Pinned: estimated tokens of the leading system message, if any.
// - IncludedGroups: number of groups included, the pinned group among them.
// - SkippedGroups: total groups minus IncludedGroups.
// - OverBudgetNewest: true when the pinned group plus the newest group exceed Budget.
type Stats struct {
	Total            int
	Budget           int
	Pinned           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// PrepareSendWindow returns the messages (oldest to newest) that fit within
// budget according to c, without splitting groups.
//
// Rules:
//   - A leading system message is always sent and counts against budget.
//   - Other groups are included newest to oldest while the total fits.
//   - If the newest group does not fit next to the system message, the
//     window is empty and OverBudgetNewest is set.
//   - If budget <= 0, the window is empty (OverBudgetNewest set when any groups exist).
func PrepareSendWindow(msgs []memory.Message, budget int, c TokenCounter) ([]memory.Message, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{Budget: budget}
	}

	groups := GroupBlocks(msgs)

	if budget <= 0 {
		return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
	}

	var pinned *Group
	rest := groups
	if groups[0].Kind == GroupPinned {
		pinned = &groups[0]
		rest = groups[1:]
	}

	stats := Stats{Budget: budget}
	if pinned != nil {
		stats.Pinned = c.CountGroup(*pinned, msgs)
		stats.Total = stats.Pinned
		stats.IncludedGroups = 1
	}
	over := func() ([]memory.Message, Stats) {
		return nil, Stats{Budget: budget, Pinned: stats.Pinned, SkippedGroups: len(groups), OverBudgetNewest: true}
	}
	if stats.Total > budget {
		return over()
	}

	startIdx := len(rest)
	for gi := len(rest) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(rest[gi], msgs)
		if stats.Total+cost > budget {
			if gi == len(rest)-1 {
				return over()
			}
			break
		}
		stats.Total += cost
		stats.IncludedGroups++
		startIdx = gi
	}
	stats.SkippedGroups = len(groups) - stats.IncludedGroups

	window := make([]memory.Message, 0, len(msgs))
	if pinned != nil {
		window = append(window, msgs[pinned.Start:pinned.End]...)
	}
	if startIdx < len(rest) {
		window = append(window, msgs[rest[startIdx].Start:]...)
	}
	return window, stats
}
