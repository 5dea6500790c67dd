package domain

import "time"

// Product is a mirrored upstream product. (ShopDomain, ShopifyID) is the
// idempotency key for upserts; every sync fully replaces the payload fields.
type Product struct {
	ShopDomain  string           `json:"shop_domain" bson:"shopDomain"`
	ShopifyID   int64            `json:"shopify_id" bson:"shopifyId"`
	Title       string           `json:"title" bson:"title"`
	Handle      string           `json:"handle" bson:"handle"`
	Vendor      string           `json:"vendor" bson:"vendor"`
	ProductType string           `json:"product_type" bson:"productType"`
	Status      string           `json:"status" bson:"status"`
	Tags        string           `json:"tags" bson:"tags"`
	Variants    []ProductVariant `json:"variants" bson:"variants"`
	Images      []ProductImage   `json:"images" bson:"images"`
	CreatedAt   time.Time        `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time        `json:"updated_at" bson:"updatedAt"`
	LastSynced  time.Time        `json:"last_synced" bson:"lastSynced"`
}

type ProductVariant struct {
	ShopifyID         int64   `json:"shopify_id" bson:"shopifyId"`
	Title             string  `json:"title" bson:"title"`
	SKU               string  `json:"sku" bson:"sku"`
	Price             float64 `json:"price" bson:"price"`
	InventoryQuantity int     `json:"inventory_quantity" bson:"inventoryQuantity"`
}

type ProductImage struct {
	ShopifyID int64  `json:"shopify_id" bson:"shopifyId"`
	Src       string `json:"src" bson:"src"`
}

// Order is a mirrored upstream order, including line items, fulfillment
// sub-records and a denormalized snapshot of the buying customer.
type Order struct {
	ShopDomain        string             `json:"shop_domain" bson:"shopDomain"`
	ShopifyID         int64              `json:"shopify_id" bson:"shopifyId"`
	Name              string             `json:"name" bson:"name"`
	OrderNumber       int                `json:"order_number" bson:"orderNumber"`
	Email             string             `json:"email" bson:"email"`
	Currency          string             `json:"currency" bson:"currency"`
	TotalPrice        float64            `json:"total_price" bson:"totalPrice"`
	SubtotalPrice     float64            `json:"subtotal_price" bson:"subtotalPrice"`
	TotalTax          float64            `json:"total_tax" bson:"totalTax"`
	FinancialStatus   string             `json:"financial_status" bson:"financialStatus"`
	FulfillmentStatus string             `json:"fulfillment_status" bson:"fulfillmentStatus"`
	Customer          *CustomerSnapshot  `json:"customer,omitempty" bson:"customer,omitempty"`
	LineItems         []OrderLineItem    `json:"line_items" bson:"lineItems"`
	Fulfillments      []OrderFulfillment `json:"fulfillments" bson:"fulfillments"`
	CreatedAt         time.Time          `json:"created_at" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updatedAt"`
	LastSynced        time.Time          `json:"last_synced" bson:"lastSynced"`
}

type OrderLineItem struct {
	ShopifyID int64   `json:"shopify_id" bson:"shopifyId"`
	ProductID int64   `json:"product_id" bson:"productId"`
	VariantID int64   `json:"variant_id" bson:"variantId"`
	Title     string  `json:"title" bson:"title"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

type OrderFulfillment struct {
	ShopifyID       int64     `json:"shopify_id" bson:"shopifyId"`
	Status          string    `json:"status" bson:"status"`
	TrackingCompany string    `json:"tracking_company" bson:"trackingCompany"`
	TrackingNumber  string    `json:"tracking_number" bson:"trackingNumber"`
	CreatedAt       time.Time `json:"created_at" bson:"createdAt"`
}

// CustomerSnapshot is the denormalized customer payload carried on an order.
// It is whatever the upstream sent with the order, not a join against the
// customers collection.
type CustomerSnapshot struct {
	ShopifyID int64  `json:"shopify_id" bson:"shopifyId"`
	Email     string `json:"email" bson:"email"`
	FirstName string `json:"first_name" bson:"firstName"`
	LastName  string `json:"last_name" bson:"lastName"`
}

// Customer is a mirrored upstream customer.
type Customer struct {
	ShopDomain  string           `json:"shop_domain" bson:"shopDomain"`
	ShopifyID   int64            `json:"shopify_id" bson:"shopifyId"`
	Email       string           `json:"email" bson:"email"`
	FirstName   string           `json:"first_name" bson:"firstName"`
	LastName    string           `json:"last_name" bson:"lastName"`
	State       string           `json:"state" bson:"state"`
	OrdersCount int              `json:"orders_count" bson:"ordersCount"`
	TotalSpent  float64          `json:"total_spent" bson:"totalSpent"`
	Tags        string           `json:"tags" bson:"tags"`
	Address     *CustomerAddress `json:"address,omitempty" bson:"address,omitempty"`
	CreatedAt   time.Time        `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time        `json:"updated_at" bson:"updatedAt"`
	LastSynced  time.Time        `json:"last_synced" bson:"lastSynced"`
}

type CustomerAddress struct {
	Address1 string `json:"address1" bson:"address1"`
	City     string `json:"city" bson:"city"`
	Province string `json:"province" bson:"province"`
	Country  string `json:"country" bson:"country"`
	Zip      string `json:"zip" bson:"zip"`
}

// WebhookEvent is a verified upstream push notification.
type WebhookEvent struct {
	Topic    string `json:"topic"`
	Shop     string `json:"shop"`
	Payload  []byte `json:"-"`
	Verified bool   `json:"verified"`
}
