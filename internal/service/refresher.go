package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"portfolio-tracker/internal/models"
)

// Refresher re-fetches prices for every tracked position on a fixed period
// and persists them. It is advisory maintenance: no request path blocks on
// it, and it never creates or deletes positions.
type Refresher struct {
	repo     PositionRepository
	prices   PriceSource
	cron     *cron.Cron
	interval time.Duration
	log      *logrus.Logger
}

func NewRefresher(repo PositionRepository, prices PriceSource, interval time.Duration, log *logrus.Logger) *Refresher {
	return &Refresher{
		repo:     repo,
		prices:   prices,
		cron:     cron.New(),
		interval: interval,
		log:      log,
	}
}

func (r *Refresher) Start() error {
	_, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		if err := r.RunOnce(context.Background()); err != nil {
			r.log.Errorf("scheduled price refresh failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	r.log.Infof("price refresher started, interval %s", r.interval)
	return nil
}

func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("price refresher stopped")
}

// RunOnce performs a single refresh pass: every position's price is looked
// up, failures keep the previously persisted value, and the whole batch is
// saved at the end.
func (r *Refresher) RunOnce(ctx context.Context) error {
	positions, err := r.repo.GetAll(ctx)
	if err != nil {
		return err
	}
	for i := range positions {
		price, ok := r.prices.GetPrice(ctx, positions[i].Ticker)
		if !ok {
			r.log.Warnf("refresh: no price for %s, keeping previous", positions[i].Ticker)
			continue
		}
		positions[i].CurrentPrice = decimal.NewNullDecimal(price)
	}
	if err := r.repo.SaveAll(ctx, positions); err != nil {
		return err
	}
	r.log.Infof("refreshed prices for %d positions", len(positions))
	return nil
}

// BulkRefresh is the manual refresh path: positions are fanned out to a
// bounded worker pool and persisted individually as each price arrives.
// Cancelling the context stops feeding the pool; workers finish the job
// they already picked up.
func (r *Refresher) BulkRefresh(ctx context.Context, workers int) error {
	positions, err := r.repo.GetAll(ctx)
	if err != nil {
		return err
	}

	jobs := make(chan models.Position)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				price, ok := r.prices.GetPrice(ctx, p.Ticker)
				if !ok {
					r.log.Warnf("bulk refresh: no price for %s, keeping previous", p.Ticker)
					continue
				}
				p.CurrentPrice = decimal.NewNullDecimal(price)
				if err := r.repo.Update(ctx, &p); err != nil {
					r.log.Errorf("bulk refresh: persist %s failed: %v", p.Ticker, err)
				}
			}
		}()
	}

	var feedErr error
	for _, p := range positions {
		if err := ctx.Err(); err != nil {
			feedErr = err
			break
		}
		select {
		case <-ctx.Done():
			feedErr = ctx.Err()
		case jobs <- p:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()
	return feedErr
}
