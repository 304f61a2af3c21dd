package service

import (
	"trustylads/internal/domain"
)

// Catalog is the static product taxonomy, loaded once at startup. Category
// and product order is declaration order and stays stable.
type Catalog struct {
	categories []domain.Category
	byCategory map[string]map[string]domain.Product
}

func NewCatalog(categories []domain.Category) *Catalog {
	c := &Catalog{
		categories: categories,
		byCategory: make(map[string]map[string]domain.Product, len(categories)),
	}
	for _, cat := range categories {
		idx := make(map[string]domain.Product, len(cat.Products))
		for _, p := range cat.Products {
			idx[p.ID] = p
		}
		c.byCategory[cat.ID] = idx
	}
	return c
}

// ListCategories returns the categories in declaration order.
func (c *Catalog) ListCategories() []domain.Category {
	out := make([]domain.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Products returns the products of one category in declaration order.
func (c *Catalog) Products(categoryID string) ([]domain.Product, error) {
	for _, cat := range c.categories {
		if cat.ID == categoryID {
			out := make([]domain.Product, len(cat.Products))
			copy(out, cat.Products)
			return out, nil
		}
	}
	return nil, ErrCategoryNotFound
}

// Get returns a single product or ErrCategoryNotFound / ErrProductNotFound.
func (c *Catalog) Get(categoryID, productID string) (domain.Product, error) {
	idx, ok := c.byCategory[categoryID]
	if !ok {
		return domain.Product{}, ErrCategoryNotFound
	}
	p, ok := idx[productID]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return p, nil
}

// DefaultCatalog is the Trusty Lads product range.
func DefaultCatalog() *Catalog {
	return NewCatalog([]domain.Category{
		{
			ID:   "hair_care",
			Name: "Hair Care",
			Products: []domain.Product{
				{ID: "hair_comb", Name: "Hair Comb", Price: 199, Description: "Premium wooden hair comb"},
				{ID: "hair_gel", Name: "Hair Gel", Price: 149, Description: "Strong hold styling gel"},
				{ID: "shampoo", Name: "Shampoo", Price: 299, Description: "Natural ingredients shampoo"},
				{ID: "hair_serum", Name: "Hair Serum", Price: 399, Description: "Nourishing hair serum"},
			},
		},
		{
			ID:   "beard_care",
			Name: "Beard Care",
			Products: []domain.Product{
				{ID: "beard_oil", Name: "Beard Oil", Price: 249, Description: "Premium beard conditioning oil"},
				{ID: "beard_balm", Name: "Beard Balm", Price: 199, Description: "Styling and conditioning balm"},
				{ID: "beard_trimmer", Name: "Beard Trimmer", Price: 899, Description: "Electric precision trimmer"},
				{ID: "beard_wash", Name: "Beard Wash", Price: 179, Description: "Gentle cleansing beard wash"},
			},
		},
		{
			ID:   "electronics",
			Name: "Electronics",
			Products: []domain.Product{
				{ID: "earbuds", Name: "Bluetooth Earbuds", Price: 799, Description: "Wireless stereo earbuds"},
				{ID: "phone_case", Name: "Phone Case", Price: 299, Description: "Protective phone case"},
				{ID: "smart_watch", Name: "Smart Watch", Price: 1299, Description: "Fitness tracking smartwatch"},
				{ID: "power_bank", Name: "Power Bank", Price: 699, Description: "10000mAh portable charger"},
			},
		},
	})
}

// DefaultPromoCodes is the static promo table shown under "Offers".
func DefaultPromoCodes() []domain.PromoCode {
	return []domain.PromoCode{
		{Code: "WELCOME10", Kind: domain.PromoPercent, Value: 10, MinOrder: 499},
		{Code: "BULK1000", Kind: domain.PromoPercent, Value: 15, MinOrder: 1000},
		{Code: "DIWALI150", Kind: domain.PromoFixed, Value: 150, MinOrder: 1500},
	}
}
