package dto

import "time"

type FavoriteToggleResult struct {
	Message        string `json:"message"`
	ListingID      string `json:"listing_id"`
	Favorited      bool   `json:"favorited"`
	FavoritesCount int    `json:"favorites_count"`
}

type FavoriteItem struct {
	Listing ListingSummary `json:"listing"`
	AddedAt time.Time      `json:"added_at"`
}

type FavoriteList struct {
	Items  []FavoriteItem `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
