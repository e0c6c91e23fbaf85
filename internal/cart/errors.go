package cart

import (
	"errors"
	"fmt"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// StockReason distinguishes an empty shelf from a quantity above what is left.
type StockReason string

const (
	ReasonOutOfStock        StockReason = "out_of_stock"
	ReasonInsufficientStock StockReason = "insufficient_stock"
)

// StockError is returned when a cart operation would break quantity <= stock.
type StockError struct {
	Reason    StockReason
	ProductID string
	Requested int
	Max       int
}

func (e *StockError) Error() string {
	if e.Reason == ReasonOutOfStock {
		return fmt.Sprintf("product %s is out of stock", e.ProductID)
	}
	return fmt.Sprintf("insufficient stock for product %s: requested %d, max %d", e.ProductID, e.Requested, e.Max)
}

func outOfStock(productID string, requested int) *StockError {
	return &StockError{Reason: ReasonOutOfStock, ProductID: productID, Requested: requested, Max: 0}
}

func insufficientStock(productID string, requested, max int) *StockError {
	return &StockError{Reason: ReasonInsufficientStock, ProductID: productID, Requested: requested, Max: max}
}

// MapStockError converts a *StockError into the API error carrying max_quantity.
// Other errors pass through unchanged.
func MapStockError(err error) error {
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		return err
	}
	code := pkgerrors.CodeInsufficientStock
	if stockErr.Reason == ReasonOutOfStock {
		code = pkgerrors.CodeOutOfStock
	}
	return pkgerrors.Wrap(code, stockErr, stockErr.Error()).WithDetails(map[string]any{
		"product_id":   stockErr.ProductID,
		"requested":    stockErr.Requested,
		"max_quantity": stockErr.Max,
	})
}

// BlockingError returns the stock error for the first warning that prevents checkout, or nil.
func BlockingError(warnings []Warning) error {
	for _, w := range warnings {
		switch w.Kind {
		case WarningOutOfStock, WarningProductRemoved:
			return MapStockError(outOfStock(w.ProductID, w.Quantity))
		case WarningInsufficientStock:
			return MapStockError(insufficientStock(w.ProductID, w.Quantity, w.MaxQuantity))
		}
	}
	return nil
}
