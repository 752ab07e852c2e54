package resource

import (
	"context"
	"strings"

	"kofa_admin/internal/kofa"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductAPI interface {
	ListProducts(ctx context.Context) ([]kofa.Product, error)
	CreateProduct(ctx context.Context, input kofa.ProductInput) (kofa.Product, error)
	UpdateProduct(ctx context.Context, id string, input kofa.ProductInput) (kofa.Product, error)
	DeleteProduct(ctx context.Context, id string) (bool, error)
	RestockProduct(ctx context.Context, id string, quantity int) (kofa.RestockResult, error)
}

// Products is the product catalogue with write-through-and-reload
// mutations.
type Products struct {
	*Collection[kofa.Product]
	api ProductAPI
}

func NewProducts(api ProductAPI, logger *zap.Logger) *Products {
	return &Products{
		Collection: NewCollection("products", api.ListProducts, logger),
		api:        api,
	}
}

func (p *Products) Create(ctx context.Context, input kofa.ProductInput) (kofa.Product, error) {
	input = normalizeProduct(input)
	if err := Validate(input); err != nil {
		return kofa.Product{}, err
	}
	return Mutate(ctx, p.Collection, func(ctx context.Context) (kofa.Product, error) {
		return p.api.CreateProduct(ctx, input)
	})
}

// Update replaces the product with the full input record.
func (p *Products) Update(ctx context.Context, id string, input kofa.ProductInput) (kofa.Product, error) {
	if strings.TrimSpace(id) == "" {
		return kofa.Product{}, fieldError("id", "is required")
	}
	input = normalizeProduct(input)
	if err := Validate(input); err != nil {
		return kofa.Product{}, err
	}
	return Mutate(ctx, p.Collection, func(ctx context.Context) (kofa.Product, error) {
		return p.api.UpdateProduct(ctx, id, input)
	})
}

func (p *Products) Delete(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, fieldError("id", "is required")
	}
	return Mutate(ctx, p.Collection, func(ctx context.Context) (bool, error) {
		return p.api.DeleteProduct(ctx, id)
	})
}

// Restock adds quantity to the product's stock on the server. The new level
// is whatever the server reports, both in the result and after the reload.
func (p *Products) Restock(ctx context.Context, id string, quantity int) (kofa.RestockResult, error) {
	if strings.TrimSpace(id) == "" {
		return kofa.RestockResult{}, fieldError("id", "is required")
	}
	if quantity <= 0 {
		return kofa.RestockResult{}, fieldError("quantity", "must be a positive whole number")
	}
	return Mutate(ctx, p.Collection, func(ctx context.Context) (kofa.RestockResult, error) {
		return p.api.RestockProduct(ctx, id, quantity)
	})
}

// Find looks a product up in the loaded mirror.
func (p *Products) Find(id string) (kofa.Product, bool) {
	for _, product := range p.Items() {
		if product.ID == id {
			return product, true
		}
	}
	return kofa.Product{}, false
}

// ProductPatch holds the fields a caller wants to change. Nil fields keep
// the current value.
type ProductPatch struct {
	Name        *string
	Price       *decimal.Decimal
	StockLevel  *int
	Description *string
	Category    *string
	ImageURL    *string
	VoiceTags   []string
}

// MergeProduct applies patch to base and returns the full record an update
// must send.
func MergeProduct(base kofa.Product, patch ProductPatch) kofa.ProductInput {
	input := base.Input()
	if patch.Name != nil {
		input.Name = *patch.Name
	}
	if patch.Price != nil {
		input.Price = *patch.Price
	}
	if patch.StockLevel != nil {
		input.StockLevel = *patch.StockLevel
	}
	if patch.Description != nil {
		input.Description = *patch.Description
	}
	if patch.Category != nil {
		input.Category = *patch.Category
	}
	if patch.ImageURL != nil {
		input.ImageURL = *patch.ImageURL
	}
	if patch.VoiceTags != nil {
		input.VoiceTags = append([]string(nil), patch.VoiceTags...)
	}
	return input
}

// normalizeProduct trims text fields and derives voice tags from the name
// when none are given.
func normalizeProduct(input kofa.ProductInput) kofa.ProductInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.ImageURL = strings.TrimSpace(input.ImageURL)
	if len(input.VoiceTags) == 0 {
		input.VoiceTags = strings.Fields(strings.ToLower(input.Name))
	}
	return input
}
