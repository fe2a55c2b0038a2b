package domain

import "time"

// Product categories offered by the storefront.
var ProductCategories = []string{"Buah Lokal", "Buah Impor"}

type Product struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Category    string    `bson:"category" json:"category"`
	Price       int64     `bson:"price" json:"price"`
	Stock       int       `bson:"stock" json:"stock"`
	Description string    `bson:"description" json:"description"`
	Image       string    `bson:"image" json:"image"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}
