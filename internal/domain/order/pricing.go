package order

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xenking/pizzeria-api/internal/domain/menu"
)

// PricedOrder is the result of pricing a cart against a menu snapshot.
type PricedOrder struct {
	// Amount is the total in the smallest currency unit.
	Amount int64
	// Lines holds one human-readable description per priced unit, in sorted
	// item-id order.
	Lines []string
}

// Price computes the total and line descriptions for a cart against a menu
// snapshot. All arithmetic is integer, in the smallest currency unit.
//
// Cart entries are processed in sorted item-id order so the same cart and menu
// always produce the same amount and the same line sequence. Quantities must
// already be validated as positive at the boundary; an item missing from the
// menu fails with UnknownItemError, and a total below minimum fails with
// BelowMinimumError.
func Price(cart map[string]int, m menu.Menu, minimum int64) (*PricedOrder, error) {
	ids := make([]string, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	priced := &PricedOrder{}
	for _, id := range ids {
		item, ok := m[id]
		if !ok {
			return nil, &UnknownItemError{ItemID: id}
		}

		qty := cart[id]
		priced.Amount += item.Price * int64(qty)
		line := item.Name + " $" + formatMinorUnits(item.Price)
		for range qty {
			priced.Lines = append(priced.Lines, line)
		}
	}

	if priced.Amount < minimum {
		return nil, &BelowMinimumError{Amount: priced.Amount, Minimum: minimum}
	}
	return priced, nil
}

// formatMinorUnits renders an amount in minor units as a dollar string
// without trailing zeros, e.g. 500 -> "5", 550 -> "5.5".
func formatMinorUnits(amount int64) string {
	return decimal.NewFromInt(amount).Shift(-2).String()
}
