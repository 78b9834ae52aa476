package models

import "github.com/shopspring/decimal"

// Position is one owned stock holding. CurrentPrice is the last known
// INR-converted price and is null until a lookup has seeded it.
// PercentChange is only meaningful after a performance computation.
type Position struct {
	ID            int64               `db:"id" json:"id"`
	Name          string              `db:"stock_name" json:"name"`
	Ticker        string              `db:"ticker" json:"ticker"`
	Quantity      int                 `db:"quantity" json:"quantity"`
	BuyPrice      decimal.Decimal     `db:"buy_price" json:"buy_price"`
	CurrentPrice  decimal.NullDecimal `db:"current_price" json:"current_price"`
	PercentChange decimal.Decimal     `db:"percentage_change" json:"percentage_change"`
}
