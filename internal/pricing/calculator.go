package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stondral/tsew-sub002/internal/discounts"
	"github.com/stondral/tsew-sub002/pkg/config"
	"github.com/stondral/tsew-sub002/pkg/db"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/money"
)

// ProductSource reads authoritative products with their variants.
type ProductSource interface {
	FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Rules are the flat business rules applied over the aggregate subtotal.
type Rules struct {
	FreeShippingThreshold decimal.Decimal
	FlatShipping          decimal.Decimal
	PlatformFee           decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		FreeShippingThreshold: money.FromInt(499),
		FlatShipping:          money.FromInt(40),
		PlatformFee:           money.FromInt(15),
	}
}

func RulesFromConfig(cfg config.PricingConfig) Rules {
	return Rules{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShipping:          cfg.FlatShipping,
		PlatformFee:           cfg.PlatformFee,
	}
}

// Shipping is free strictly above the threshold.
func (r Rules) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(r.FreeShippingThreshold) {
		return money.Zero
	}
	return r.FlatShipping
}

// CartLine is what the client sends. Any client price is ignored.
type CartLine struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,min=1"`
}

// Line is a cart line priced from the catalog.
type Line struct {
	ProductID    uuid.UUID       `json:"product_id"`
	VariantID    *uuid.UUID      `json:"variant_id,omitempty"`
	SellerOrgID  uuid.UUID       `json:"seller_org_id"`
	Name         string          `json:"name"`
	VariantName  string          `json:"variant_name,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
	Available    int             `json:"available"`
	Insufficient bool            `json:"insufficient"`
}

// DisplayName joins product and variant names.
func (l Line) DisplayName() string {
	if l.VariantName == "" {
		return l.Name
	}
	return l.Name + " (" + l.VariantName + ")"
}

// Result is the priced cart. Stock problems are reported, not returned as errors.
type Result struct {
	Lines          []Line          `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Shipping       decimal.Decimal `json:"shipping"`
	Tax            decimal.Decimal `json:"tax"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	Total          decimal.Decimal `json:"total"`
	IsStockProblem bool            `json:"is_stock_problem"`
	StockErrors    []string        `json:"stock_errors"`
}

// ScopedItems reduces the priced lines to seller ownership for discount scoping.
func (r Result) ScopedItems() []discounts.ScopedItem {
	items := make([]discounts.ScopedItem, 0, len(r.Lines))
	for _, line := range r.Lines {
		items = append(items, discounts.ScopedItem{SellerOrgID: line.SellerOrgID, Subtotal: line.LineSubtotal})
	}
	return items
}

// Calculator prices carts from the catalog.
type Calculator struct {
	products ProductSource
	rules    Rules
}

func NewCalculator(products ProductSource, rules Rules) (*Calculator, error) {
	if products == nil {
		return nil, fmt.Errorf("product source required")
	}
	return &Calculator{products: products, rules: rules}, nil
}

func (c *Calculator) Rules() Rules {
	return c.rules
}

// Calculate prices every line from the catalog. Lines whose product is
// missing or not purchasable, or whose variant is unknown, are recorded in
// StockErrors and left out. Lines short on stock stay in the result and the
// subtotal with Insufficient set. Only storage failures return an error.
func (c *Calculator) Calculate(ctx context.Context, lines []CartLine) (Result, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := c.products.FindProducts(ctx, ids)
	if err != nil {
		return Result{}, db.WrapStorage(err, "load products")
	}

	result := Result{
		Lines:       make([]Line, 0, len(lines)),
		StockErrors: []string{},
	}
	subtotal := money.Zero
	// demand per product/variant so a cart repeating a line cannot oversell
	demand := make(map[stockKey]int, len(lines))

	for _, req := range lines {
		if req.Quantity <= 0 {
			result.fail(fmt.Sprintf("Invalid quantity %d for product %s", req.Quantity, req.ProductID))
			continue
		}
		product, ok := products[req.ProductID]
		if !ok {
			result.fail(fmt.Sprintf("Product %s not found", req.ProductID))
			continue
		}
		if !product.Purchasable() {
			result.fail(fmt.Sprintf("'%s' is not available for purchase", product.Name))
			continue
		}

		line := Line{
			ProductID:   product.ID,
			SellerOrgID: product.SellerOrgID,
			Name:        product.Name,
			UnitPrice:   product.Price,
			Quantity:    req.Quantity,
			Available:   product.Stock,
		}
		if req.VariantID != nil {
			variant, found := product.Variant(*req.VariantID)
			if !found {
				result.fail(fmt.Sprintf("Variant %s not found for '%s'", *req.VariantID, product.Name))
				continue
			}
			id := variant.ID
			line.VariantID = &id
			line.VariantName = variant.Name
			line.UnitPrice = variant.Price
			line.Available = variant.Stock
		}

		key := stockKey{product: line.ProductID}
		if line.VariantID != nil {
			key.variant = *line.VariantID
		}
		demand[key] += line.Quantity
		if demand[key] > line.Available {
			line.Insufficient = true
			result.IsStockProblem = true
			result.StockErrors = append(result.StockErrors,
				fmt.Sprintf("Only %d of '%s' available, requested %d", line.Available, line.DisplayName(), line.Quantity))
		}

		line.UnitPrice = money.Round(line.UnitPrice)
		line.LineSubtotal = money.Line(line.UnitPrice, line.Quantity)
		subtotal = subtotal.Add(line.LineSubtotal)
		result.Lines = append(result.Lines, line)
	}

	result.Subtotal = money.Round(subtotal)
	result.Tax = money.Zero
	if len(result.Lines) == 0 {
		result.Shipping = money.Zero
		result.PlatformFee = money.Zero
		result.Total = money.Zero
		return result, nil
	}
	result.Shipping = c.rules.Shipping(result.Subtotal)
	result.PlatformFee = c.rules.PlatformFee
	result.Total = money.Round(result.Subtotal.Add(result.Shipping).Add(result.Tax).Add(result.PlatformFee))
	return result, nil
}

func (r *Result) fail(msg string) {
	r.IsStockProblem = true
	r.StockErrors = append(r.StockErrors, msg)
}

type stockKey struct {
	product uuid.UUID
	variant uuid.UUID
}
