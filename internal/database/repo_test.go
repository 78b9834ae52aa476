package database

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"portfolio-tracker/internal/models"
)

func setupDB(t *testing.T) *sqlx.DB {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL is not set; skipping integration tests")
	}
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	files := []string{"../../migrations/0001_init.up.sql"}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read migration %s: %v", f, err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			t.Logf("exec migration %s: %v", f, err)
		}
	}
	return db
}

func testPosition(ticker string) models.Position {
	return models.Position{
		Name:     "Integration Test Corp",
		Ticker:   ticker,
		Quantity: 10,
		BuyPrice: decimal.NewFromFloat(99.5),
	}
}

func TestPositionRoundTrip(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	r := New(db, logrus.New())
	ctx := context.Background()

	ticker := "ITGTEST"
	_, _ = db.Exec(`DELETE FROM stocks WHERE ticker = $1`, ticker)
	defer db.Exec(`DELETE FROM stocks WHERE ticker = $1`, ticker)

	pos := testPosition(ticker)
	if err := r.Create(ctx, &pos); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if pos.ID == 0 {
		t.Fatalf("expected non-zero id")
	}

	got, err := r.GetByID(ctx, pos.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Ticker != ticker {
		t.Fatalf("expected ticker %s, got %s", ticker, got.Ticker)
	}
	if !got.BuyPrice.Equal(pos.BuyPrice) {
		t.Fatalf("expected buy price %s, got %s", pos.BuyPrice, got.BuyPrice)
	}
	if got.CurrentPrice.Valid {
		t.Fatalf("expected null current price, got %s", got.CurrentPrice.Decimal)
	}

	got.Quantity = 25
	got.CurrentPrice = decimal.NewNullDecimal(decimal.NewFromFloat(123.45))
	if err := r.Update(ctx, &got); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err = r.GetByID(ctx, pos.ID)
	if err != nil {
		t.Fatalf("get after update failed: %v", err)
	}
	if got.Quantity != 25 {
		t.Fatalf("expected quantity 25, got %d", got.Quantity)
	}
	if !got.CurrentPrice.Valid || !got.CurrentPrice.Decimal.Equal(decimal.NewFromFloat(123.45)) {
		t.Fatalf("expected current price 123.45, got %+v", got.CurrentPrice)
	}

	if err := r.Delete(ctx, pos.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := r.GetByID(ctx, pos.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := r.Delete(ctx, pos.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestCreateDuplicateTicker(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	r := New(db, logrus.New())
	ctx := context.Background()

	ticker := "ITGDUP"
	_, _ = db.Exec(`DELETE FROM stocks WHERE ticker = $1`, ticker)
	defer db.Exec(`DELETE FROM stocks WHERE ticker = $1`, ticker)

	first := testPosition(ticker)
	if err := r.Create(ctx, &first); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second := testPosition(ticker)
	if err := r.Create(ctx, &second); !errors.Is(err, ErrDuplicateTicker) {
		t.Fatalf("expected ErrDuplicateTicker, got %v", err)
	}
}

func TestSaveAllPersistsPriceFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	r := New(db, logrus.New())
	ctx := context.Background()

	tickers := []string{"ITGBATCHA", "ITGBATCHB"}
	for _, tk := range tickers {
		_, _ = db.Exec(`DELETE FROM stocks WHERE ticker = $1`, tk)
	}
	defer func() {
		for _, tk := range tickers {
			db.Exec(`DELETE FROM stocks WHERE ticker = $1`, tk)
		}
	}()

	batch := []models.Position{}
	for _, tk := range tickers {
		p := testPosition(tk)
		if err := r.Create(ctx, &p); err != nil {
			t.Fatalf("create %s failed: %v", tk, err)
		}
		p.CurrentPrice = decimal.NewNullDecimal(decimal.NewFromInt(500))
		batch = append(batch, p)
	}

	if err := r.SaveAll(ctx, batch); err != nil {
		t.Fatalf("save all failed: %v", err)
	}

	for _, p := range batch {
		got, err := r.GetByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("get %s failed: %v", p.Ticker, err)
		}
		if !got.CurrentPrice.Valid || !got.CurrentPrice.Decimal.Equal(decimal.NewFromInt(500)) {
			t.Fatalf("expected current price 500 for %s, got %+v", p.Ticker, got.CurrentPrice)
		}
	}
}
