package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/esdaly/storefront/internal/domain"
	"github.com/esdaly/storefront/internal/imageurl"
	"github.com/shopspring/decimal"
)

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Category struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	NameEn      string          `json:"nameEn,omitempty"`
	Slug        string          `json:"slug,omitempty"`
	Description string          `json:"description,omitempty"`
	Image       json.RawMessage `json:"image,omitempty"`
}

// Product is the catalog product as sent by the API.
type Product struct {
	ID               string              `json:"_id,omitempty"`
	AltID            string              `json:"id,omitempty"`
	Name             string              `json:"name"`
	NameEn           string              `json:"nameEn,omitempty"`
	Slug             string              `json:"slug,omitempty"`
	Description      string              `json:"description,omitempty"`
	ShortDescription string              `json:"shortDescription,omitempty"`
	Price            decimal.Decimal     `json:"price"`
	ComparePrice     decimal.NullDecimal `json:"comparePrice"`
	SKU              string              `json:"sku,omitempty"`
	Category         json.RawMessage     `json:"category,omitempty"`
	Images           json.RawMessage     `json:"images,omitempty"`
	Stock            *domain.StockInfo   `json:"stock,omitempty"`
	Tags             []string            `json:"tags,omitempty"`
	Rating           Rating              `json:"rating"`
	IsFeatured       bool                `json:"isFeatured"`
	IsActive         *bool               `json:"isActive,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// Identifier prefers the Mongo _id over id.
func (p Product) Identifier() string {
	if p.ID != "" {
		return p.ID
	}
	return p.AltID
}

// CategoryID returns the category id whether the category was populated or not.
func (p Product) CategoryID() string {
	raw := strings.TrimSpace(string(p.Category))
	if raw == "" || raw == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(p.Category, &id); err == nil {
		return id
	}
	var c Category
	if err := json.Unmarshal(p.Category, &c); err == nil {
		return c.ID
	}
	return ""
}

func (p Product) Active() bool {
	return p.IsActive == nil || *p.IsActive
}

// CatalogItem maps the wire product to the client's item snapshot. A
// product without stock data is treated as tracked and out of stock.
func (p Product) CatalogItem(r *imageurl.Resolver) domain.CatalogItem {
	stock := domain.StockInfo{TrackInventory: true, LowStockThreshold: domain.DefaultLowStockThreshold}
	if p.Stock != nil {
		stock = *p.Stock
	}

	description := p.Description
	if description == "" {
		description = p.ShortDescription
	}

	return domain.CatalogItem{
		ID:          p.Identifier(),
		Name:        p.Name,
		Description: description,
		Price:       p.Price,
		Image:       r.ResolveFirst(p.Images, 0),
		Stock:       stock,
	}
}

type OrderItem struct {
	Product  string          `json:"product" validate:"required"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity" validate:"gt=0"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
}

type OrderPricing struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

const (
	PaymentCash         = "cash"
	PaymentBankTransfer = "bank_transfer"
)

type Payment struct {
	Method        string `json:"method" validate:"required,oneof=cash bank_transfer"`
	Status        string `json:"status,omitempty"`
	TransactionID string `json:"transactionId,omitempty" validate:"required_if=Method bank_transfer"`
	AccountNumber string `json:"accountNumber,omitempty"`
}

type Order struct {
	ID              string         `json:"_id"`
	OrderNumber     string         `json:"orderNumber"`
	Items           []OrderItem    `json:"items"`
	ShippingAddress domain.Address `json:"shippingAddress"`
	BillingAddress  domain.Address `json:"billingAddress"`
	Pricing         OrderPricing   `json:"pricing"`
	Payment         Payment        `json:"payment"`
	Status          string         `json:"status"`
	TrackingNumber  string         `json:"trackingNumber,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

type Review struct {
	ID        string    `json:"_id"`
	Product   string    `json:"product"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Comment   string    `json:"comment"`
	Helpful   int       `json:"helpful"`
	Verified  bool      `json:"isVerifiedPurchase"`
	CreatedAt time.Time `json:"createdAt"`
	User      struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	} `json:"user"`
}

type Contact struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type Subscriber struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	Source    string    `json:"source,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type DashboardStats struct {
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalOrders      int             `json:"totalOrders"`
	TotalProducts    int             `json:"totalProducts"`
	TotalUsers       int             `json:"totalUsers"`
	PendingOrders    int             `json:"pendingOrders"`
	LowStockProducts int             `json:"lowStockProducts"`
}

type PublicStats struct {
	Customers int     `json:"customers"`
	Products  int     `json:"products"`
	Orders    int     `json:"orders"`
	Rating    float64 `json:"rating"`
}

// Listing carries the paging fields shared by list responses.
type Listing struct {
	Count       int `json:"count"`
	Total       int `json:"total"`
	Pages       int `json:"pages"`
	CurrentPage int `json:"currentPage"`
}
