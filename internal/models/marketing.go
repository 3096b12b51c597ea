package models

// Banner is a storefront promotional banner managed by admins.
type Banner struct {
	BaseModel
	Title      string `json:"title"`
	ImageLight string `json:"image_light"`
	ImageDark  string `json:"image_dark"`
	URL        string `json:"url"`
	IsActive   bool   `gorm:"default:true" json:"is_active"`
}
