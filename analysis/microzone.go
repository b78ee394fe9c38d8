package analysis

import (
	"math"
	"sort"

	"propfinder/config"
	"propfinder/models"
	"propfinder/utils"
)

// metersPerDegree approximates one degree of latitude.
const metersPerDegree = 111320.0

// Microzone computes, per listing, the price distribution of nearby
// comparable listings and the standardized deviation of the listing's own
// price from it.
type Microzone struct {
	cfg    config.AnalysisConfig
	logger *utils.Logger
}

// NewMicrozone creates a Microzone calculator.
func NewMicrozone(cfg config.AnalysisConfig, logger *utils.Logger) *Microzone {
	return &Microzone{cfg: cfg, logger: logger}
}

type zoneStats struct {
	mean        float64
	std         float64
	median      float64
	min         float64
	max         float64
	count       int
	meanPerArea float64
}

// Annotate computes microzone statistics and z-scores for every listing in
// the batch, returning new Listing values in the same order. The comparison
// set for a listing with coordinates is every batch listing within the
// configured radius (itself included); without coordinates it falls back to
// every listing with the same neighborhood string.
func (m *Microzone) Annotate(listings []models.Listing) []models.Listing {
	idx := newGridIndex(listings, m.cfg.MicrozoneRadiusMeters)

	out := make([]models.Listing, len(listings))
	for i, l := range listings {
		var members []int
		if l.HasCoordinates() {
			members = idx.withinRadius(listings, *l.Lat, *l.Lng, m.cfg.MicrozoneRadiusMeters)
		} else {
			members = sameNeighborhood(listings, l.Neighborhood)
		}

		stats := computeZoneStats(listings, members)

		l.MicrozoneMean = stats.mean
		l.MicrozoneStd = stats.std
		l.MicrozoneMedian = stats.median
		l.MicrozoneCount = stats.count
		l.MicrozoneMeanPerArea = stats.meanPerArea

		if l.PriceUSD > 0 && stats.std > 0 {
			l.Zscore = zscore(l.PriceUSD, stats.mean, stats.std)
			// The per-area deviation reuses the price deviation rescaled by
			// the listing's own total area, so bigger units need a larger
			// absolute gap to stand out.
			scaledStd := stats.std
			if l.AreaTotal > 0 {
				scaledStd = stats.std / l.AreaTotal
			}
			l.ZscorePerArea = zscore(l.PricePerArea, stats.meanPerArea, scaledStd)
		} else {
			l.Zscore = 0
			l.ZscorePerArea = 0
		}

		out[i] = l
	}
	return out
}

// zscore standardizes value against a distribution; a zero deviation means
// no signal, not a fault.
func zscore(value, mean, std float64) float64 {
	if std == 0 {
		return 0.0
	}
	return (value - mean) / std
}

func sameNeighborhood(listings []models.Listing, neighborhood string) []int {
	var members []int
	for i := range listings {
		if listings[i].Neighborhood == neighborhood {
			members = append(members, i)
		}
	}
	return members
}

// computeZoneStats aggregates the valid (>0) prices of the member listings:
// arithmetic mean, population standard deviation, median, min, max, count,
// and mean price-per-area over members with a valid ratio. An empty set
// yields all zeros.
func computeZoneStats(listings []models.Listing, members []int) zoneStats {
	var prices, perArea []float64
	for _, i := range members {
		if listings[i].PriceUSD > 0 {
			prices = append(prices, listings[i].PriceUSD)
		}
		if listings[i].PricePerArea > 0 {
			perArea = append(perArea, listings[i].PricePerArea)
		}
	}
	if len(prices) == 0 {
		return zoneStats{}
	}

	n := len(prices)
	var sum float64
	for _, p := range prices {
		sum += p
	}
	mean := sum / float64(n)

	var variance float64
	for _, p := range prices {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(n)

	std := 0.0
	if variance > 0 {
		std = math.Sqrt(variance)
	}

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	meanPerArea := 0.0
	if len(perArea) > 0 {
		var s float64
		for _, p := range perArea {
			s += p
		}
		meanPerArea = s / float64(len(perArea))
	}

	return zoneStats{
		mean:        mean,
		std:         std,
		median:      median,
		min:         sorted[0],
		max:         sorted[n-1],
		count:       n,
		meanPerArea: meanPerArea,
	}
}

// gridIndex buckets listings with coordinates into cells one radius wide in
// latitude, bounding the otherwise O(n²) radius scan. Longitude cells narrow
// with cos(lat), so the query scans a ±2 cell window, which covers a full
// radius anywhere below ~60° latitude.
type gridIndex struct {
	cellDeg float64
	cells   map[gridCell][]int
}

type gridCell struct{ row, col int }

func newGridIndex(listings []models.Listing, radiusMeters float64) *gridIndex {
	cellDeg := radiusMeters / metersPerDegree
	if cellDeg <= 0 {
		cellDeg = 0.001
	}

	idx := &gridIndex{cellDeg: cellDeg, cells: make(map[gridCell][]int)}
	for i := range listings {
		if !listings[i].HasCoordinates() {
			continue
		}
		c := idx.cellOf(*listings[i].Lat, *listings[i].Lng)
		idx.cells[c] = append(idx.cells[c], i)
	}
	return idx
}

func (g *gridIndex) cellOf(lat, lng float64) gridCell {
	return gridCell{
		row: int(math.Floor(lat / g.cellDeg)),
		col: int(math.Floor(lng / g.cellDeg)),
	}
}

// withinRadius returns the indices of all listings within radiusMeters of
// the given point, inclusive. Candidates come from the surrounding cell
// window; the exact haversine check decides membership.
func (g *gridIndex) withinRadius(listings []models.Listing, lat, lng, radiusMeters float64) []int {
	base := g.cellOf(lat, lng)

	var members []int
	for dr := -2; dr <= 2; dr++ {
		for dc := -2; dc <= 2; dc++ {
			cell := gridCell{row: base.row + dr, col: base.col + dc}
			for _, i := range g.cells[cell] {
				l := &listings[i]
				if Haversine(lat, lng, *l.Lat, *l.Lng) <= radiusMeters {
					members = append(members, i)
				}
			}
		}
	}
	return members
}
