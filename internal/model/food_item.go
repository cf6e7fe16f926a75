package model

import "github.com/shopspring/decimal"

// FoodItem is a row of the `food_items` catalog.  Names are unique and
// stored lower-case so lookups can match whatever casing the NLU agent
// sends.  Prices are non-negative and maintained out of band.
//
// Fields:
//  ID    – primary key identifier (food_items.item_id).
//  Name  – unique item name.
//  Price – unit price in the configured currency.
type FoodItem struct {
	ID    int64           `json:"item_id"` // food_items.item_id
	Name  string          `json:"name"`    // food_items.name
	Price decimal.Decimal `json:"price"`   // food_items.price
}
