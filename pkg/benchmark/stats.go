package benchmark

import (
	"math"
	"sort"
)

// Summarize reduces a record collection into per-workload statistics.
// Records are grouped by workload name; the category is carried through from
// the first record of each group. Empty input yields an empty map.
func Summarize(records []*RunRecord) map[string]*StatSummary {
	grouped := make(map[string][]*RunRecord)
	order := make([]string, 0, 8)

	for _, rec := range records {
		if _, seen := grouped[rec.Workload]; !seen {
			order = append(order, rec.Workload)
		}

		grouped[rec.Workload] = append(grouped[rec.Workload], rec)
	}

	summaries := make(map[string]*StatSummary, len(order))

	for _, name := range order {
		group := grouped[name]

		summary := &StatSummary{
			Workload: name,
			Category: group[0].Category,
			Samples:  len(group),
		}

		summary.NumChunks = summarize(group, func(r *RunRecord) float64 { return float64(r.NumChunks) })
		summary.EmbedMS = summarize(group, func(r *RunRecord) float64 { return r.EmbedMS })
		summary.PGWriteMS = summarize(group, func(r *RunRecord) float64 { return r.PGWriteMS })
		summary.DocWriteMS = summarize(group, func(r *RunRecord) float64 { return r.DocWriteMS })
		summary.PGQueryMS = summarize(group, func(r *RunRecord) float64 { return r.PGQueryMS })
		summary.DocQueryMS = summarize(group, func(r *RunRecord) float64 { return r.DocQueryMS })
		summary.PGSizeMB = summarize(group, func(r *RunRecord) float64 { return r.PGSizeMB })
		summary.DocSizeMB = summarize(group, func(r *RunRecord) float64 { return r.DocSizeMB })

		summaries[name] = summary
	}

	return summaries
}

// summarize computes the distribution of one quantity across a record group.
func summarize(group []*RunRecord, value func(*RunRecord) float64) Distribution {
	samples := make([]float64, len(group))
	for i, rec := range group {
		samples[i] = value(rec)
	}

	sort.Float64s(samples)

	var sum float64
	for _, v := range samples {
		sum += v
	}

	n := len(samples)

	d := Distribution{
		Min:    samples[0],
		Max:    samples[n-1],
		Mean:   sum / float64(n),
		Median: percentile(samples, 50),
		P25:    percentile(samples, 25),
		P75:    percentile(samples, 75),
	}
	d.IQR = d.P75 - d.P25

	return d
}

// percentile computes the p-th percentile of a sorted sample using linear
// interpolation between order statistics: index = p/100 * (n-1).
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	idx := p / 100 * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))

	if lo == hi {
		return sorted[lo]
	}

	frac := idx - float64(lo)

	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
