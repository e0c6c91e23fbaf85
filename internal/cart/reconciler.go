package cart

import "github.com/shopspring/decimal"

// AddToCart adds requestedQty units of product. Quantities below 1 count as 1.
// It rejects with ReasonOutOfStock when the product is not purchasable and
// with ReasonInsufficientStock when the resulting line would exceed stock.
// The input cart is never modified.
func AddToCart(c Cart, product ProductSnapshot, requestedQty int) (Cart, error) {
	if requestedQty < 1 {
		requestedQty = 1
	}
	if !product.Purchasable() {
		return c, outOfStock(product.ID, requestedQty)
	}

	out := c.clone()
	for i, item := range out.Items {
		if item.Product.ID != product.ID {
			continue
		}
		total := item.Quantity + requestedQty
		if total > product.Stock {
			return c, insufficientStock(product.ID, total, product.Stock)
		}
		out.Items[i].Quantity = total
		out.Items[i].Product.Stock = product.Stock
		out.Items[i].Product.Available = product.Available
		return out, nil
	}

	if requestedQty > product.Stock {
		return c, insufficientStock(product.ID, requestedQty, product.Stock)
	}
	out.Items = append(out.Items, LineItem{
		Product:   product,
		Quantity:  requestedQty,
		UnitPrice: product.Price,
	})
	return out, nil
}

// UpdateQuantity sets the quantity of an existing line, checked against the
// line's product snapshot. newQty < 1 removes the line; an absent product is a no-op.
func UpdateQuantity(c Cart, productID string, newQty int) (Cart, error) {
	idx := -1
	for i, item := range c.Items {
		if item.Product.ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c.clone(), nil
	}
	if newQty < 1 {
		return RemoveFromCart(c, productID), nil
	}
	if stock := c.Items[idx].Product.Stock; newQty > stock {
		return c, insufficientStock(productID, newQty, stock)
	}
	out := c.clone()
	out.Items[idx].Quantity = newQty
	return out, nil
}

// RemoveFromCart drops the line for productID. Removing an absent line is a no-op.
func RemoveFromCart(c Cart, productID string) Cart {
	out := c
	out.Items = make([]LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Product.ID == productID {
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// ComputeTotal sums UnitPrice * Quantity over all lines without rounding.
func ComputeTotal(c Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount sums the quantities of all lines.
func ItemCount(c Cart) int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Reconcile refreshes each line's stock and availability from the live catalog.
// Unit prices stay as captured. Lines that no longer fit the stock guard are
// reported, never clamped; products missing from live are marked unavailable.
func Reconcile(c Cart, live map[string]ProductSnapshot) (Cart, []Warning) {
	out := c.clone()
	var warnings []Warning
	for i, item := range out.Items {
		current, ok := live[item.Product.ID]
		if !ok {
			out.Items[i].Product.Stock = 0
			out.Items[i].Product.Available = false
			warnings = append(warnings, Warning{
				Kind:      WarningProductRemoved,
				ProductID: item.Product.ID,
				Quantity:  item.Quantity,
			})
			continue
		}

		out.Items[i].Product.Stock = current.Stock
		out.Items[i].Product.Available = current.Available

		switch {
		case !current.Purchasable():
			warnings = append(warnings, Warning{
				Kind:      WarningOutOfStock,
				ProductID: item.Product.ID,
				Quantity:  item.Quantity,
			})
		case item.Quantity > current.Stock:
			warnings = append(warnings, Warning{
				Kind:        WarningInsufficientStock,
				ProductID:   item.Product.ID,
				Quantity:    item.Quantity,
				MaxQuantity: current.Stock,
			})
		}
		if !current.Price.Equal(item.UnitPrice) {
			livePrice := current.Price
			warnings = append(warnings, Warning{
				Kind:        WarningPriceChanged,
				ProductID:   item.Product.ID,
				Quantity:    item.Quantity,
				MaxQuantity: current.Stock,
				LivePrice:   &livePrice,
			})
		}
	}
	return out, warnings
}

// HasBlockingWarnings reports whether any warning prevents checkout.
func HasBlockingWarnings(warnings []Warning) bool {
	for _, w := range warnings {
		if w.Kind != WarningPriceChanged {
			return true
		}
	}
	return false
}
