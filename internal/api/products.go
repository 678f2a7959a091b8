package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/esdaly/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductQuery struct {
	Page     int
	Limit    int
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Sort     string
}

func (q ProductQuery) values() url.Values {
	v := Page{Page: q.Page, Limit: q.Limit}.values()
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.MinPrice != nil {
		v.Set("minPrice", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", q.MaxPrice.String())
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return v
}

type ProductList struct {
	Listing
	Products []Product `json:"products"`
}

type productResponse struct {
	Product Product `json:"product"`
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*ProductList, error) {
	var resp ProductList
	if err := c.do(ctx, http.MethodGet, "/products", q.values(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	if id == "" {
		return nil, &ValidationError{err: fmt.Errorf("product id is required")}
	}
	var resp productResponse
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

func (c *Client) FeaturedProducts(ctx context.Context, p Page) (*ProductList, error) {
	var resp ProductList
	if err := c.do(ctx, http.MethodGet, "/products/featured", p.values(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Upload is one image file sent with a product form.
type Upload struct {
	Filename string
	Content  io.Reader
}

// ProductInput is the admin product form, sent as multipart/form-data.
type ProductInput struct {
	Name             string `validate:"required"`
	NameEn           string
	Description      string `validate:"required"`
	ShortDescription string
	Price            decimal.Decimal
	ComparePrice     *decimal.Decimal
	Category         string `validate:"required"`
	SKU              string
	Stock            domain.StockInfo
	Tags             []string
	IsFeatured       bool
	Images           []Upload
}

func (in ProductInput) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":        in.Name,
		"description": in.Description,
		"price":       in.Price.String(),
		"category":    in.Category,
		"isFeatured":  strconv.FormatBool(in.IsFeatured),
	}
	if in.NameEn != "" {
		fields["nameEn"] = in.NameEn
	}
	if in.ShortDescription != "" {
		fields["shortDescription"] = in.ShortDescription
	}
	if in.ComparePrice != nil {
		fields["comparePrice"] = in.ComparePrice.String()
	}
	if in.SKU != "" {
		fields["sku"] = in.SKU
	}

	stock, err := json.Marshal(in.Stock)
	if err != nil {
		return nil, "", err
	}
	fields["stock"] = string(stock)
	if len(in.Tags) > 0 {
		tags, err := json.Marshal(in.Tags)
		if err != nil {
			return nil, "", err
		}
		fields["tags"] = string(tags)
	}

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	for _, img := range in.Images {
		part, err := w.CreateFormFile("images", img.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, img.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	return c.sendProductForm(ctx, http.MethodPost, "/products", in)
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	return c.sendProductForm(ctx, http.MethodPut, "/products/"+url.PathEscape(id), in)
}

func (c *Client) sendProductForm(ctx context.Context, method, path string, in ProductInput) (*Product, error) {
	if err := c.check(ctx, in); err != nil {
		return nil, err
	}
	body, contentType, err := in.encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode product form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, nil), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var resp productResponse
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

func (c *Client) SetFeatured(ctx context.Context, id string, featured bool) error {
	body := map[string]bool{"isFeatured": featured}
	return c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id)+"/featured", nil, body, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil, nil)
}

type categoryList struct {
	Categories []Category `json:"categories"`
}

type categoryResponse struct {
	Category Category `json:"category"`
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var resp categoryList
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func (c *Client) GetCategory(ctx context.Context, id string) (*Category, error) {
	var resp categoryResponse
	if err := c.do(ctx, http.MethodGet, "/categories/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Category, nil
}
