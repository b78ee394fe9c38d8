package analysis

import (
	"fmt"
	"sort"
	"strings"

	"propfinder/models"
	"propfinder/utils"
)

// Report holds the computed summary over a scored batch.
type Report struct {
	TotalListings    int
	ActiveListings   int
	Relistings       int
	Opportunities    int
	AverageScore     float64
	TopOpportunities []models.Listing
	ByNeighborhood   map[string]int
}

// Reporter aggregates scored listings into a batch summary.
type Reporter struct {
	logger *utils.Logger
}

// NewReporter creates a Reporter with the given logger.
func NewReporter(logger *utils.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Generate builds the summary report for a scored batch.
func (r *Reporter) Generate(listings []models.Listing) *Report {
	report := &Report{
		ByNeighborhood: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var scoreSum int
	var opportunities []models.Listing
	for _, l := range listings {
		switch l.Status {
		case models.StatusRelisted:
			report.Relistings++
		case models.StatusActive:
			report.ActiveListings++
		}
		if l.Neighborhood != "" {
			report.ByNeighborhood[l.Neighborhood]++
		}
		if l.IsOpportunity {
			opportunities = append(opportunities, l)
			scoreSum += l.OpportunityScore
		}
	}

	report.Opportunities = len(opportunities)
	if len(opportunities) > 0 {
		report.AverageScore = float64(scoreSum) / float64(len(opportunities))
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].OpportunityScore > opportunities[j].OpportunityScore
	})
	if len(opportunities) > 5 {
		opportunities = opportunities[:5]
	}
	report.TopOpportunities = opportunities

	return report
}

// Print renders the report to stdout.
func (r *Reporter) Print(rep *Report) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🏠 OPPORTUNITY PIPELINE SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Batch\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Listings processed : \033[1m%d\033[0m\n", rep.TotalListings)
	fmt.Printf("  Active             : \033[1m%d\033[0m\n", rep.ActiveListings)
	fmt.Printf("  Relistings         : \033[1m%d\033[0m\n", rep.Relistings)
	fmt.Printf("  Opportunities      : \033[1;32m%d\033[0m\n", rep.Opportunities)
	if rep.Opportunities > 0 {
		fmt.Printf("  Average score      : \033[1;32m%.1f\033[0m\n", rep.AverageScore)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Top Opportunities\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(rep.TopOpportunities) == 0 {
		fmt.Printf("  None detected in this batch\n")
	} else {
		for i, l := range rep.TopOpportunities {
			fmt.Printf("  \033[1m%d.\033[0m Score \033[1;32m%3d\033[0m  $%-10.0f %s\n",
				i+1, l.OpportunityScore, l.PriceUSD, truncate(l.URL, 44))
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Listings by Neighborhood\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(rep.ByNeighborhood) == 0 {
		fmt.Printf("  No neighborhood data\n")
	} else {
		type hoodCount struct {
			hood  string
			count int
		}
		var hoods []hoodCount
		for hood, cnt := range rep.ByNeighborhood {
			hoods = append(hoods, hoodCount{hood, cnt})
		}
		sort.Slice(hoods, func(i, j int) bool {
			if hoods[i].count != hoods[j].count {
				return hoods[i].count > hoods[j].count
			}
			return hoods[i].hood < hoods[j].hood
		})
		for _, hc := range hoods {
			bar := strings.Repeat("█", hc.count)
			fmt.Printf("  %-24s %s (%d)\n", truncate(hc.hood, 22), bar, hc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// Opportunities filters the scored batch down to the alerting egress: active
// listings at or above minScore, sorted descending by score.
func Opportunities(listings []models.Listing, minScore int) []models.Listing {
	var out []models.Listing
	for _, l := range listings {
		if l.Status == models.StatusActive && l.OpportunityScore >= minScore {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpportunityScore > out[j].OpportunityScore
	})
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
