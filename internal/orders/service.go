package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service covers checkout and the order lifecycle.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*OrderDTO, error)
	Get(ctx context.Context, id uuid.UUID, customerID string) (*OrderDTO, error)
	List(ctx context.Context, input ListInput) (*OrderList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo       Repository
	DB         txRunner
	Carts      cartConsumer
	Inventory  Inventory
	Promotions promotionSource
	Outbox     outboxPublisher
	Metrics    *metrics.CartMetrics
	Logger     *logger.Logger
	Clock      func() time.Time
}

type service struct {
	repo       Repository
	tx         txRunner
	carts      cartConsumer
	inventory  Inventory
	promotions promotionSource
	outbox     outboxPublisher
	metrics    *metrics.CartMetrics
	logg       *logger.Logger
	resolver   *promotions.Resolver
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if params.Promotions == nil {
		return nil, fmt.Errorf("promotion source required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.DB,
		carts:      params.Carts,
		inventory:  params.Inventory,
		promotions: params.Promotions,
		outbox:     params.Outbox,
		metrics:    params.Metrics,
		logg:       params.Logger,
		resolver:   promotions.NewResolver(params.Clock),
	}, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*OrderDTO, error) {
	order, err := s.checkout(ctx, input)
	s.metrics.IncCheckout(checkoutResult(err))
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(s.logg.WithCartID(ctx, input.CartID), order.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"total": order.Total.String(),
		"lines": len(order.Items),
	})
	s.logg.Info(logCtx, "checkout completed")
	dto := newOrderDTO(*order)
	return &dto, nil
}

func (s *service) checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	if err := validateCheckout(&input); err != nil {
		return nil, err
	}

	var created *models.Order
	err := s.carts.Consume(ctx, input.CartID, func(ctx context.Context, c cart.Cart, warnings []cart.Warning) error {
		customerID := input.CustomerID
		if c.CustomerID != "" {
			if customerID != "" && customerID != c.CustomerID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another customer")
			}
			customerID = c.CustomerID
		}
		if customerID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
		}
		if c.IsEmpty() {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		if err := cart.BlockingError(warnings); err != nil {
			return err
		}

		vigent, err := s.promotions.Vigent(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotions")
		}
		order := s.buildOrder(c, customerID, input, vigent)

		if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.reserveStock(ctx, tx, c); err != nil {
				return err
			}
			if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{CustomerID: customerID, Role: "customer"},
				Data:          orderCreatedEvent(order),
			})
		}); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// reserveStock decrements every line in product id order so concurrent checkouts lock rows consistently.
func (s *service) reserveStock(ctx context.Context, tx *gorm.DB, c cart.Cart) error {
	lines := append([]cart.LineItem(nil), c.Items...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].Product.ID < lines[j].Product.ID })

	for _, line := range lines {
		productID, err := uuid.Parse(line.Product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id in cart")
		}
		ok, err := s.inventory.Decrement(ctx, tx, productID, line.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if ok {
			continue
		}
		stock, available, err := s.inventory.Stock(ctx, tx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock")
		}
		if !available || stock <= 0 {
			return cart.MapStockError(&cart.StockError{Reason: cart.ReasonOutOfStock, ProductID: line.Product.ID, Requested: line.Quantity})
		}
		return cart.MapStockError(&cart.StockError{Reason: cart.ReasonInsufficientStock, ProductID: line.Product.ID, Requested: line.Quantity, Max: stock})
	}
	return nil
}

func (s *service) buildOrder(c cart.Cart, customerID string, input CheckoutInput, vigent []promotions.Promotion) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		CustomerID:      customerID,
		CartID:          c.ID,
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		ShippingAddress: input.ShippingAddress,
		Status:          enums.OrderStatusPending,
		Subtotal:        decimal.Zero,
		Total:           decimal.Zero,
	}
	for _, line := range c.Items {
		productID, _ := uuid.Parse(line.Product.ID)
		quote := s.resolver.QuoteProduct(line.Product.ID, line.UnitPrice, vigent)
		qty := decimal.NewFromInt(int64(line.Quantity))
		lineTotal := quote.DiscountedPrice.Mul(qty)

		order.Items = append(order.Items, models.OrderLineItem{
			ProductID:       productID,
			Name:            line.Product.Name,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: quote.DiscountPercent,
			FinalUnitPrice:  quote.DiscountedPrice,
			Quantity:        line.Quantity,
			LineTotal:       lineTotal,
		})
		order.Subtotal = order.Subtotal.Add(line.LineTotal())
		order.Total = order.Total.Add(lineTotal)
	}
	order.Discount = order.Subtotal.Sub(order.Total)
	return order
}

func (s *service) Get(ctx context.Context, id uuid.UUID, customerID string) (*OrderDTO, error) {
	order, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if customerID != "" && order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := newOrderDTO(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*OrderList, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, ListQuery{
		CustomerID: input.CustomerID,
		Status:     input.Status,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, newOrderDTO(row))
	}
	return &OrderList{Orders: out, NextCursor: next}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	now := s.resolver.Now()

	var from enums.OrderStatus
	changed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		from = order.Status
		if from == status {
			return nil
		}
		if !from.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
				WithDetails(map[string]any{"from": from, "to": status})
		}

		var canceledAt *time.Time
		if status == enums.OrderStatusCanceled {
			canceledAt = &now
		}
		ok, err := repo.UpdateStatus(ctx, id, from, status, canceledAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		restocked := false
		if status == enums.OrderStatusCanceled {
			for _, item := range order.Items {
				if err := s.inventory.Restock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
				}
			}
			restocked = len(order.Items) > 0
		}

		changed = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Role: "admin"},
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				From:       from,
				To:         status,
				Restocked:  restocked,
				ChangedAt:  now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, id.String()), map[string]any{
			"from": from.String(),
			"to":   status.String(),
		})
		s.logg.Info(logCtx, "order status updated")
	}
	return s.Get(ctx, id, "")
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func validateCheckout(input *CheckoutInput) error {
	input.CartID = strings.TrimSpace(input.CartID)
	input.CustomerID = strings.TrimSpace(input.CustomerID)
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.CustomerEmail = strings.TrimSpace(input.CustomerEmail)
	input.ShippingAddress = strings.TrimSpace(input.ShippingAddress)

	missing := []string{}
	if input.CartID == "" {
		missing = append(missing, "cart_id")
	}
	if input.CustomerName == "" {
		missing = append(missing, "customer_name")
	}
	if input.CustomerEmail == "" {
		missing = append(missing, "customer_email")
	}
	if input.ShippingAddress == "" {
		missing = append(missing, "shipping_address")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing checkout fields").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func orderCreatedEvent(order *models.Order) payloads.OrderCreatedEvent {
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			FinalUnitPrice: item.FinalUnitPrice,
		})
	}
	return payloads.OrderCreatedEvent{
		OrderID:    order.ID,
		CartID:     order.CartID,
		CustomerID: order.CustomerID,
		Subtotal:   order.Subtotal,
		Discount:   order.Discount,
		Total:      order.Total,
		Lines:      lines,
	}
}

func checkoutResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock):
		return metrics.ResultOutOfStock
	case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
		return metrics.ResultInsufficient
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		return metrics.ResultNotFound
	case pkgerrors.IsCode(err, pkgerrors.CodeBusy):
		return metrics.ResultBusy
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation), pkgerrors.IsCode(err, pkgerrors.CodeForbidden):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
