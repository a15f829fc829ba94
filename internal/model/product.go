package model

// Product is one purchasable credit pack. The ID is the payment provider's
// product (Polar) or price (Stripe) identifier.
type Product struct {
	ID      string
	Name    string
	Slug    string
	Credits int
}

const (
	ProductSlugStarter = "starter"
	ProductSlugCreator = "creator"
	ProductSlugPro     = "pro"
)

// ProductCatalog maps provider product ids to credit packs. It is built once
// at startup and passed into the billing service, never read from globals.
type ProductCatalog struct {
	byID   map[string]Product
	bySlug map[string]Product
}

func NewProductCatalog(products ...Product) ProductCatalog {
	c := ProductCatalog{
		byID:   make(map[string]Product, len(products)),
		bySlug: make(map[string]Product, len(products)),
	}
	for _, p := range products {
		if p.ID == "" {
			continue // product not configured in this environment
		}
		c.byID[p.ID] = p
		c.bySlug[p.Slug] = p
	}
	return c
}

func (c ProductCatalog) ByID(id string) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c ProductCatalog) BySlug(slug string) (Product, bool) {
	p, ok := c.bySlug[slug]
	return p, ok
}

func (c ProductCatalog) Len() int {
	return len(c.byID)
}
