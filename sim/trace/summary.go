package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions      int
	DeliveredCount      int
	FailedCount         int
	MeanServiceTime     float64        // over delivered tasks
	TierDistribution    map[string]int // tier → number of decisions
	FailureDistribution map[string]int // failure reason → count
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TierDistribution:    make(map[string]int),
		FailureDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Decisions)
	for _, d := range st.Decisions {
		summary.TierDistribution[d.Tier]++
	}

	totalService := 0.0
	for _, o := range st.Outcomes {
		if o.Delivered {
			summary.DeliveredCount++
			totalService += o.ServiceTime
		} else {
			summary.FailedCount++
			summary.FailureDistribution[o.Failure]++
		}
	}
	if summary.DeliveredCount > 0 {
		summary.MeanServiceTime = totalService / float64(summary.DeliveredCount)
	}
	return summary
}
