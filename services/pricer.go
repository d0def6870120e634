package services

import (
	"sync"

	"ethical-rent/models"
	"ethical-rent/pricing"
	"ethical-rent/utils"
)

// Pricer runs the pricing engine over a batch of property records.
type Pricer struct {
	engine      *pricing.Engine
	logger      *utils.Logger
	concurrency int
}

// NewPricer creates a Pricer pricing up to concurrency records at once.
func NewPricer(engine *pricing.Engine, logger *utils.Logger, concurrency int) *Pricer {
	return &Pricer{engine: engine, logger: logger, concurrency: concurrency}
}

// PriceAll prices every record and returns the results in input order along
// with the number of records the engine rejected. Records carrying an asking
// rent are validated against the ethical range.
func (p *Pricer) PriceAll(records []*models.PropertyRecord) ([]*models.PricedProperty, int) {
	results := make([]*models.PricedProperty, len(records))
	pool := utils.NewWorkerPool(p.concurrency, 0)

	var mu sync.Mutex
	skipped := 0

	for i, rec := range records {
		i, rec := i, rec
		pool.Submit(func() {
			priced, err := p.Price(rec)
			if err != nil {
				p.logger.Warn("[pricer] Skipping %s: %v", rec.ID, err)
				mu.Lock()
				skipped++
				mu.Unlock()
				return
			}
			results[i] = priced
		})
	}
	pool.Wait()

	out := make([]*models.PricedProperty, 0, len(records)-skipped)
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	p.logger.Info("[pricer] Priced %d of %d properties (%d skipped)", len(out), len(records), skipped)
	return out, skipped
}

// Price prices a single record.
func (p *Pricer) Price(rec *models.PropertyRecord) (*models.PricedProperty, error) {
	if rec.AskingRent == nil {
		recommendation, err := p.engine.CalculateEthicalRent(rec.Characteristics)
		if err != nil {
			return nil, err
		}
		return &models.PricedProperty{Record: rec, Recommendation: recommendation}, nil
	}

	asking := *rec.AskingRent
	recommendation, err := p.engine.ValidateEthicalPricing(asking, rec.Characteristics)
	if err != nil {
		return nil, err
	}
	priced := &models.PricedProperty{
		Record:         rec,
		Recommendation: recommendation,
		Speculative:    !recommendation.IsWithinEthicalRange,
	}
	if priced.Speculative {
		priced.Excess = asking - float64(recommendation.MaxRent)
		p.logger.Debug("[pricer] %s asks $%.2f, $%.2f over the ethical maximum", rec.ID, asking, priced.Excess)
	}
	return priced, nil
}
