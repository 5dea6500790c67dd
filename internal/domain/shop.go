package domain

import "time"

// Shop represents a connected storefront. The domain is the partition key for
// every mirrored record belonging to the shop.
type Shop struct {
	Domain        string    `json:"domain" bson:"domain"`
	ShopifyShopID int64     `json:"shopify_shop_id" bson:"shopifyShopId"`
	Name          string    `json:"name" bson:"name"`
	Email         string    `json:"email" bson:"email"`
	Currency      string    `json:"currency" bson:"currency"`
	Country       string    `json:"country" bson:"country"`
	Timezone      string    `json:"timezone" bson:"timezone"`
	PlanName      string    `json:"plan_name" bson:"planName"`
	AccessToken   string    `json:"-" bson:"accessToken"` // encrypted at rest
	CreatedAt     time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updatedAt"`
}
