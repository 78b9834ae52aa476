package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"portfolio-tracker/internal/models"
)

// PositionRepository is the persistence collaborator. Ticker uniqueness is
// enforced at this layer, not here.
type PositionRepository interface {
	Create(ctx context.Context, p *models.Position) error
	GetByID(ctx context.Context, id int64) (models.Position, error)
	GetAll(ctx context.Context) ([]models.Position, error)
	Update(ctx context.Context, p *models.Position) error
	Delete(ctx context.Context, id int64) error
	SaveAll(ctx context.Context, positions []models.Position) error
}

// PriceSource yields INR-converted prices; false means no price could be
// produced from either the cache or the upstream.
type PriceSource interface {
	GetPrice(ctx context.Context, ticker string) (decimal.Decimal, bool)
}

var _hundred = decimal.NewFromInt(100)

type Service struct {
	repo   PositionRepository
	prices PriceSource
	log    *logrus.Logger
}

func New(repo PositionRepository, prices PriceSource, log *logrus.Logger) *Service {
	return &Service{repo: repo, prices: prices, log: log}
}

// Create stores a new position, seeding its current price from a fresh
// lookup. When no price is available the buy price stands in.
func (s *Service) Create(ctx context.Context, p models.Position) (models.Position, error) {
	if price, ok := s.prices.GetPrice(ctx, p.Ticker); ok {
		p.CurrentPrice = decimal.NewNullDecimal(price)
	} else {
		s.log.Warnf("no price for %s, seeding current price from buy price", p.Ticker)
		p.CurrentPrice = decimal.NewNullDecimal(p.BuyPrice)
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return models.Position{}, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (models.Position, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.Position, error) {
	return s.repo.GetAll(ctx)
}

// Update replaces a position's fields wholesale and re-seeds its current
// price. When the lookup fails the previously persisted price is kept.
func (s *Service) Update(ctx context.Context, id int64, updated models.Position) (models.Position, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.Position{}, err
	}
	updated.ID = id
	if price, ok := s.prices.GetPrice(ctx, updated.Ticker); ok {
		updated.CurrentPrice = decimal.NewNullDecimal(price)
	} else {
		s.log.Warnf("no price for %s, keeping previously persisted price", updated.Ticker)
		updated.CurrentPrice = existing.CurrentPrice
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return models.Position{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// TotalValue sums quantity times price over all positions. A position whose
// live lookup fails contributes its last persisted price instead; one with
// neither contributes nothing. A single ticker's failure never aborts the
// whole computation.
func (s *Service) TotalValue(ctx context.Context) (decimal.Decimal, error) {
	positions, err := s.repo.GetAll(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range positions {
		qty := decimal.NewFromInt(int64(p.Quantity))
		if price, ok := s.prices.GetPrice(ctx, p.Ticker); ok {
			total = total.Add(price.Mul(qty))
			continue
		}
		if p.CurrentPrice.Valid {
			s.log.Warnf("using last persisted price for %s", p.Ticker)
			total = total.Add(p.CurrentPrice.Decimal.Mul(qty))
			continue
		}
		s.log.Warnf("no price at all for %s, skipping", p.Ticker)
	}
	return total, nil
}

// TopPerformer returns the position with the highest percent change over its
// buy price, considering only positions with a live price. Ties resolve to
// the first in iteration order. Nil when no position has a live price.
func (s *Service) TopPerformer(ctx context.Context) (*models.Position, error) {
	positions, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var top *models.Position
	maxChange := decimal.Zero
	for i := range positions {
		p := positions[i]
		price, ok := s.prices.GetPrice(ctx, p.Ticker)
		if !ok {
			continue
		}
		change := price.Sub(p.BuyPrice).Div(p.BuyPrice).Mul(_hundred)
		if top == nil || change.GreaterThan(maxChange) {
			maxChange = change
			top = &p
		}
	}
	if top != nil {
		top.PercentChange = maxChange
	}
	return top, nil
}

// Distribution maps display name to percentage of total portfolio value.
// Only positions with a live price appear; the total in the denominator is
// TotalValue, which may also count persisted-price fallbacks, so the values
// sum to at most 100. Empty when the total is not positive.
func (s *Service) Distribution(ctx context.Context) (map[string]decimal.Decimal, error) {
	positions, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.TotalValue(ctx)
	if err != nil {
		return nil, err
	}
	dist := map[string]decimal.Decimal{}
	if total.LessThanOrEqual(decimal.Zero) {
		s.log.Warnf("total portfolio value %s is not positive, returning empty distribution", total)
		return dist, nil
	}
	for _, p := range positions {
		price, ok := s.prices.GetPrice(ctx, p.Ticker)
		if !ok {
			continue
		}
		value := price.Mul(decimal.NewFromInt(int64(p.Quantity)))
		dist[p.Name] = value.Div(total).Mul(_hundred)
	}
	return dist, nil
}
