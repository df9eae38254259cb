package report

import (
	"sort"
	"time"

	"github.com/secgate-io/secgate/pkg/types"
)

// IssueCount is one entry of the most-common-issues ranking.
type IssueCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// GatePerformance aggregates outcomes of one gate across the history.
type GatePerformance struct {
	GateID       string        `json:"gate_id"`
	Runs         int           `json:"runs"`
	SuccessRate  float64       `json:"success_rate"`
	MeanDuration time.Duration `json:"mean_duration"`
}

// Statistics is the aggregate view over the full report history.
type Statistics struct {
	TotalReports     int                        `json:"total_reports"`
	PassRate         float64                    `json:"pass_rate"`
	AverageScore     float64                    `json:"average_score"`
	MostCommonIssues []IssueCount               `json:"most_common_issues"`
	GatePerformance  map[string]GatePerformance `json:"gate_performance"`
}

// mostCommonLimit bounds the most-common-issues ranking.
const mostCommonLimit = 5

// ComputeStatistics recomputes statistics from the full stored report
// sequence on every call; nothing is cached.
func ComputeStatistics(repo Repository) (*Statistics, error) {
	reports, err := repo.All()
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		TotalReports:     len(reports),
		MostCommonIssues: []IssueCount{},
		GatePerformance:  map[string]GatePerformance{},
	}
	if len(reports) == 0 {
		return stats, nil
	}

	var passed int
	var scoreSum float64
	issueCounts := make(map[string]int)
	var issueOrder []string

	type gateAccumulator struct {
		runs     int
		passed   int
		duration time.Duration
	}
	gateAcc := make(map[string]*gateAccumulator)
	var gateOrder []string

	for _, rep := range reports {
		if rep.Status == types.GateStatusPassed {
			passed++
		}
		scoreSum += rep.Summary.SecurityScore

		for _, gateResult := range rep.Gates {
			acc, ok := gateAcc[gateResult.GateID]
			if !ok {
				acc = &gateAccumulator{}
				gateAcc[gateResult.GateID] = acc
				gateOrder = append(gateOrder, gateResult.GateID)
			}
			acc.runs++
			acc.duration += gateResult.Duration
			if gateResult.Status == types.GateStatusPassed {
				acc.passed++
			}

			for _, check := range gateResult.Checks {
				for _, f := range check.Findings {
					if _, ok := issueCounts[f.Category]; !ok {
						issueOrder = append(issueOrder, f.Category)
					}
					issueCounts[f.Category]++
				}
			}
		}
	}

	stats.PassRate = float64(passed) / float64(len(reports))
	stats.AverageScore = scoreSum / float64(len(reports))
	stats.MostCommonIssues = rankIssues(issueCounts, issueOrder)

	for _, id := range gateOrder {
		acc := gateAcc[id]
		stats.GatePerformance[id] = GatePerformance{
			GateID:       id,
			Runs:         acc.runs,
			SuccessRate:  float64(acc.passed) / float64(acc.runs),
			MeanDuration: acc.duration / time.Duration(acc.runs),
		}
	}

	return stats, nil
}

// rankIssues sorts issue categories by descending count, breaking ties by
// first-seen order, and truncates to the ranking limit.
func rankIssues(counts map[string]int, order []string) []IssueCount {
	firstSeen := make(map[string]int, len(order))
	for i, category := range order {
		firstSeen[category] = i
	}

	ranked := make([]IssueCount, 0, len(counts))
	for _, category := range order {
		ranked = append(ranked, IssueCount{Category: category, Count: counts[category]})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Category] < firstSeen[ranked[j].Category]
	})

	if len(ranked) > mostCommonLimit {
		ranked = ranked[:mostCommonLimit]
	}
	return ranked
}
