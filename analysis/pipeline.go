package analysis

import (
	"time"

	"github.com/google/uuid"

	"propfinder/config"
	"propfinder/models"
	"propfinder/utils"
)

// Pipeline runs the four analysis stages over a batch: normalization,
// relisting detection, microzone statistics, opportunity scoring. Data flows
// strictly forward; every stage consumes the previous stage's output and
// produces new Listing values in the same order.
type Pipeline struct {
	cfg     config.AnalysisConfig
	logger  *utils.Logger
	workers int

	normalizer *Normalizer
	detector   *Detector
	microzone  *Microzone
	scorer     *Scorer
}

// NewPipeline wires the four stages with a shared configuration. workers
// bounds per-record parallelism inside a stage.
func NewPipeline(cfg config.AnalysisConfig, workers int, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		workers:    workers,
		normalizer: NewNormalizer(logger),
		detector:   NewDetector(cfg, logger),
		microzone:  NewMicrozone(cfg, logger),
		scorer:     NewScorer(cfg, logger),
	}
}

// Run processes a batch of raw records against the historical (delisted)
// pool and returns fully scored listings, positionally matching the input.
// mepRate is the already-resolved ARS→USD conversion rate.
func (p *Pipeline) Run(raw []models.RawListing, historical []models.Listing, mepRate float64) []models.Listing {
	runID := uuid.NewString()[:8]
	start := time.Now()
	p.logger.Info("[pipeline %s] Processing %d listings (%d historical, rate %.2f)",
		runID, len(raw), len(historical), mepRate)

	if len(raw) == 0 {
		return nil
	}

	// Normalization is per-record independent; parallelize but keep the
	// batch order by writing into preassigned slots.
	normalized := make([]models.Listing, len(raw))
	pool := utils.NewWorkerPool(p.workers, 0)
	pool.ForEach(len(raw), func(i int) {
		normalized[i] = p.normalizer.Normalize(raw[i], mepRate)
	})

	withRelistings := p.detector.Annotate(normalized, historical)
	withMicrozones := p.microzone.Annotate(withRelistings)

	scored := make([]models.Listing, len(withMicrozones))
	pool = utils.NewWorkerPool(p.workers, 0)
	pool.ForEach(len(withMicrozones), func(i int) {
		scored[i] = p.scorer.Score(withMicrozones[i])
	})

	relisted, opportunities := 0, 0
	for i := range scored {
		if scored[i].Status == models.StatusRelisted {
			relisted++
		}
		if scored[i].IsOpportunity {
			opportunities++
		}
	}
	p.logger.Info("[pipeline %s] Done in %v — %d relistings, %d opportunities",
		runID, time.Since(start).Round(time.Millisecond), relisted, opportunities)

	return scored
}
