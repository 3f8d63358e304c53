package dto

type ListingCounts struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
}

type RevenueSummary struct {
	Total      MoneyDTO  `json:"total"`
	Month      MoneyDTO  `json:"month"`
	Commission *MoneyDTO `json:"commission,omitempty"`
}

type TopListing struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Reservations int      `json:"reservations"`
	Revenue      MoneyDTO `json:"revenue"`
}

type OwnerReservationCounts struct {
	Total      int            `json:"total"`
	InProgress int            `json:"in_progress"`
	Completed  int            `json:"completed"`
	Cancelled  int            `json:"cancelled"`
	ByStatus   map[string]int `json:"by_status"`
}

type OwnerDashboard struct {
	OwnerID            string                 `json:"owner_id"`
	CommissionPercent  float64                `json:"commission_percent"`
	Listings           ListingCounts          `json:"listings"`
	Reservations       OwnerReservationCounts `json:"reservations"`
	Revenue            RevenueSummary         `json:"revenue"`
	TopListings        []TopListing           `json:"top_listings"`
	RecentReservations []ReservationView      `json:"recent_reservations"`
}

type TenantDashboard struct {
	TenantID        string           `json:"tenant_id,omitempty"`
	Total           int              `json:"total_reservations"`
	Upcoming        int              `json:"upcoming"`
	Past            int              `json:"past"`
	TotalSpend      MoneyDTO         `json:"total_spend"`
	NextReservation *ReservationView `json:"next_reservation,omitempty"`
	FavoritesCount  int              `json:"favorites_count"`
}

type CityStat struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

type AdminUserCounts struct {
	Total   int `json:"total"`
	Tenants int `json:"tenants"`
	Owners  int `json:"owners"`
	Admins  int `json:"admins"`
}

type AdminReservationCounts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

type AdminStats struct {
	Listings     ListingCounts          `json:"listings"`
	TopCities    []CityStat             `json:"top_cities"`
	Users        AdminUserCounts        `json:"users"`
	Reservations AdminReservationCounts `json:"reservations"`
	Revenue      RevenueSummary         `json:"revenue"`
}
