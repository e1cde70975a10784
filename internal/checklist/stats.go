package checklist

import "math"

type Stats struct {
	TotalItems                   int  `json:"totalItems"`
	CompletedItems               int  `json:"completedItems"`
	CompletionPercentage         int  `json:"completionPercentage"`
	CriticalItems                int  `json:"criticalItems"`
	CompletedCriticalItems       int  `json:"completedCriticalItems"`
	CriticalCompletionPercentage int  `json:"criticalCompletionPercentage"`
	IsReadyForDeployment         bool `json:"isReadyForDeployment"`
}

// ComputeStats derives completion figures for s over the catalog. Keys in s
// that are not in the catalog are ignored.
func ComputeStats(c *Catalog, s State) Stats {
	var st Stats
	st.TotalItems = c.Len()
	for _, it := range c.items {
		done := s.Items[it.ID]
		if done {
			st.CompletedItems++
		}
		if it.Critical {
			st.CriticalItems++
			if done {
				st.CompletedCriticalItems++
			}
		}
	}
	st.CompletionPercentage = percent(st.CompletedItems, st.TotalItems)
	st.CriticalCompletionPercentage = percent(st.CompletedCriticalItems, st.CriticalItems)
	st.IsReadyForDeployment = st.CompletedCriticalItems == st.CriticalItems
	return st
}

// percent rounds half away from zero; a zero denominator yields 0.
func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(d)))
}
