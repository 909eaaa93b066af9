package models

import "time"

const (
	FoodCategoryKorean   = "KOREAN"
	FoodCategoryChinese  = "CHINESE"
	FoodCategoryJapanese = "JAPANESE"
	FoodCategoryWestern  = "WESTERN"
	FoodCategorySnack    = "SNACK"
	FoodCategoryAsian    = "ASIAN"
	FoodCategoryLunchbox = "LUNCHBOX"
	FoodCategoryCafe     = "CAFE"
)

type Post struct {
	ID           int64     `json:"id"`
	CreatorID    int64     `json:"creator_id"`
	Title        string    `json:"title"`
	OrderAt      time.Time `json:"order_at"`
	Recruitment  int       `json:"recruitment"`
	FoodCategory string    `json:"food_category"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Location is the restaurant point attached one-to-one to a post.
type Location struct {
	ID        int64   `json:"id"`
	PostID    int64   `json:"post_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsActive  bool    `json:"is_active"`
}

// PostDetail is a post joined with its location and creator name, the shape
// every read query returns.
type PostDetail struct {
	Post
	CreatorName string  `json:"creator_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type LocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type PostCreateRequest struct {
	Title        string          `json:"title"`
	OrderAt      time.Time       `json:"order_at"`
	Recruitment  int             `json:"recruitment"`
	FoodCategory string          `json:"food_category"`
	Location     LocationRequest `json:"location"`
}

type PostUpdateRequest struct {
	PostID       int64           `json:"post_id"`
	Title        string          `json:"title"`
	OrderAt      time.Time       `json:"order_at"`
	Recruitment  int             `json:"recruitment"`
	FoodCategory string          `json:"food_category"`
	Location     LocationRequest `json:"location"`
}

type PostResponse struct {
	PostID       int64            `json:"post_id"`
	CreatorName  string           `json:"creator_name"`
	Title        string           `json:"title"`
	OrderAt      time.Time        `json:"order_at"`
	Recruitment  int              `json:"recruitment"`
	FoodCategory string           `json:"food_category"`
	Location     LocationResponse `json:"location"`
}

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func NewPostResponse(d *PostDetail) PostResponse {
	return PostResponse{
		PostID:       d.ID,
		CreatorName:  d.CreatorName,
		Title:        d.Title,
		OrderAt:      d.OrderAt,
		Recruitment:  d.Recruitment,
		FoodCategory: d.FoodCategory,
		Location: LocationResponse{
			Latitude:  d.Latitude,
			Longitude: d.Longitude,
		},
	}
}
