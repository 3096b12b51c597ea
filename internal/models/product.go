package models

// Product is a catalog entry. Orders snapshot the fields they need at
// purchase time, so later catalog edits never rewrite order history.
type Product struct {
	BaseModel
	ExternalID         int     `gorm:"uniqueIndex" json:"id"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	CategorySlug       string  `gorm:"index" json:"category"`
	Price              float64 `json:"price"`
	DiscountPercentage float64 `json:"discount_percentage"`
	Rating             float64 `json:"rating"`
	Stock              int     `json:"stock"`
	Brand              string  `json:"brand"`
	ReturnPolicy       string  `json:"return_policy"`
	Thumbnail          string  `json:"thumbnail"`
}

// Category groups products by slug.
type Category struct {
	BaseModel
	Slug string `gorm:"uniqueIndex" json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
