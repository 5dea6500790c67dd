package shopify

import (
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/shopspring/decimal"

	"storefront-sync-layer/internal/domain"
)

// Converters from upstream payloads to mirrored domain records. They are
// shared by the paginated fetcher and the webhook handlers, so a pushed
// record and a pulled record produce identical documents.

func money(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	return d.InexactFloat64()
}

func ts(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ShopFromUpstream converts upstream shop metadata. The myshopify domain is
// the partition key; the access token is attached by the caller.
func ShopFromUpstream(s *goshopify.Shop) *domain.Shop {
	return &domain.Shop{
		Domain:        s.MyshopifyDomain,
		ShopifyShopID: int64(s.Id),
		Name:          s.Name,
		Email:         s.Email,
		Currency:      s.Currency,
		Country:       s.Country,
		Timezone:      s.Timezone,
		PlanName:      s.PlanName,
	}
}

// ProductFromUpstream converts one upstream product for a shop.
func ProductFromUpstream(shopDomain string, p goshopify.Product) domain.Product {
	variants := make([]domain.ProductVariant, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, domain.ProductVariant{
			ShopifyID:         int64(v.Id),
			Title:             v.Title,
			SKU:               v.Sku,
			Price:             money(v.Price),
			InventoryQuantity: v.InventoryQuantity,
		})
	}
	images := make([]domain.ProductImage, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, domain.ProductImage{
			ShopifyID: int64(img.Id),
			Src:       img.Src,
		})
	}
	return domain.Product{
		ShopDomain:  shopDomain,
		ShopifyID:   int64(p.Id),
		Title:       p.Title,
		Handle:      p.Handle,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Status:      string(p.Status),
		Tags:        p.Tags,
		Variants:    variants,
		Images:      images,
		CreatedAt:   ts(p.CreatedAt),
		UpdatedAt:   ts(p.UpdatedAt),
	}
}

// OrderFromUpstream converts one upstream order for a shop, carrying the
// line items, fulfillment sub-records and the denormalized customer snapshot.
func OrderFromUpstream(shopDomain string, o goshopify.Order) domain.Order {
	items := make([]domain.OrderLineItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, domain.OrderLineItem{
			ShopifyID: int64(li.Id),
			ProductID: int64(li.ProductId),
			VariantID: int64(li.VariantId),
			Title:     li.Title,
			Quantity:  li.Quantity,
			Price:     money(li.Price),
		})
	}
	fulfillments := make([]domain.OrderFulfillment, 0, len(o.Fulfillments))
	for _, f := range o.Fulfillments {
		fulfillments = append(fulfillments, domain.OrderFulfillment{
			ShopifyID:       int64(f.Id),
			Status:          f.Status,
			TrackingCompany: f.TrackingCompany,
			TrackingNumber:  f.TrackingNumber,
			CreatedAt:       ts(f.CreatedAt),
		})
	}
	var snapshot *domain.CustomerSnapshot
	if o.Customer != nil {
		snapshot = &domain.CustomerSnapshot{
			ShopifyID: int64(o.Customer.Id),
			Email:     o.Customer.Email,
			FirstName: o.Customer.FirstName,
			LastName:  o.Customer.LastName,
		}
	}
	return domain.Order{
		ShopDomain:        shopDomain,
		ShopifyID:         int64(o.Id),
		Name:              o.Name,
		OrderNumber:       o.OrderNumber,
		Email:             o.Email,
		Currency:          o.Currency,
		TotalPrice:        money(o.TotalPrice),
		SubtotalPrice:     money(o.SubtotalPrice),
		TotalTax:          money(o.TotalTax),
		FinancialStatus:   string(o.FinancialStatus),
		FulfillmentStatus: string(o.FulfillmentStatus),
		Customer:          snapshot,
		LineItems:         items,
		Fulfillments:      fulfillments,
		CreatedAt:         ts(o.CreatedAt),
		UpdatedAt:         ts(o.UpdatedAt),
	}
}

// CustomerFromUpstream converts one upstream customer for a shop.
func CustomerFromUpstream(shopDomain string, c goshopify.Customer) domain.Customer {
	var addr *domain.CustomerAddress
	if c.DefaultAddress != nil {
		addr = &domain.CustomerAddress{
			Address1: c.DefaultAddress.Address1,
			City:     c.DefaultAddress.City,
			Province: c.DefaultAddress.Province,
			Country:  c.DefaultAddress.Country,
			Zip:      c.DefaultAddress.Zip,
		}
	}
	return domain.Customer{
		ShopDomain:  shopDomain,
		ShopifyID:   int64(c.Id),
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		State:       string(c.State),
		OrdersCount: c.OrdersCount,
		TotalSpent:  money(c.TotalSpent),
		Tags:        c.Tags,
		Address:     addr,
		CreatedAt:   ts(c.CreatedAt),
		UpdatedAt:   ts(c.UpdatedAt),
	}
}
