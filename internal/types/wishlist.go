package types

import (
	"time"
)

// WishlistStatus tracks the lifecycle of a saved restaurant.
type WishlistStatus string

const (
	StatusWishlist WishlistStatus = "wishlist"
	StatusVisited  WishlistStatus = "visited"
	StatusDeleted  WishlistStatus = "deleted"
)

// ChatType mirrors the Telegram chat kinds we register.
type ChatType string

const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
)

type User struct {
	ID            int64     `json:"id"`
	TelegramID    string    `json:"telegram_id"`
	DisplayName   string    `json:"display_name"`
	JoinedAt      time.Time `json:"joined_at"`
	IsDeleted     bool      `json:"is_deleted"`
	IsDeactivated bool      `json:"is_deactivated"`
}

type Chat struct {
	ID        int64     `json:"id"`
	ChatID    string    `json:"chat_id"`
	ChatType  ChatType  `json:"chat_type"`
	ChatName  *string   `json:"chat_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WishlistEntry is a saved-but-not-necessarily-visited restaurant in a chat.
type WishlistEntry struct {
	ID            int64          `json:"id"`
	ChatID        string         `json:"chat_id"`
	GooglePlaceID string         `json:"google_place_id"`
	Name          string         `json:"name"`
	Address       string         `json:"address"`
	Area          *string        `json:"area,omitempty"`
	CuisineType   *string        `json:"cuisine_type,omitempty"`
	Lat           *float64       `json:"lat,omitempty"`
	Lng           *float64       `json:"lng,omitempty"`
	AddedBy       string         `json:"added_by"`
	Status        WishlistStatus `json:"status"`
	AnyBranch     bool           `json:"any_branch"`
	Notes         *string        `json:"notes,omitempty"`
	DateAdded     time.Time      `json:"date_added"`
}

// Visit is a logged past meal with rating/review/occasion.
type Visit struct {
	ID            int64     `json:"id"`
	ChatID        string    `json:"chat_id"`
	GooglePlaceID string    `json:"google_place_id"`
	LoggedBy      string    `json:"logged_by"`
	PlaceName     *string   `json:"place_name,omitempty"` // denormalised for resilient display
	Rating        *int      `json:"rating,omitempty"`     // 1-5
	Review        *string   `json:"review,omitempty"`
	Occasion      *string   `json:"occasion,omitempty"` // Casual/Special/Work/Spontaneous
	Photos        []string  `json:"photos,omitempty"`   // Telegram file_ids
	VisitedAt     time.Time `json:"visited_at"`
}

// VisitWithContext pairs a visit with display names resolved at read time.
// PlaceName falls back: wishlist entry name, stored place_name, "Unknown Place".
type VisitWithContext struct {
	Visit     Visit  `json:"visit"`
	PlaceName string `json:"place_name"`
	UserName  string `json:"user_name"`
}

// WishlistItemView is the merged wishlist+visit row served to the WebApp.
type WishlistItemView struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Address     string         `json:"address"`
	Area        *string        `json:"area"`
	CuisineType *string        `json:"cuisine_type"`
	Lat         *float64       `json:"lat"`
	Lng         *float64       `json:"lng"`
	Status      WishlistStatus `json:"status"`
	Notes       *string        `json:"notes"`
	Rating      *int           `json:"rating"`
	Review      *string        `json:"review"`
	MapsURL     string         `json:"maps_url"`
}

// ChatStats summarises a single chat's wishlist progress.
type ChatStats struct {
	TotalSaved   int `json:"total_saved"`
	VisitedCount int `json:"visited_count"`
}

// AdminStats is the global dashboard row.
type AdminStats struct {
	Users     int `json:"users"`
	Chats     int `json:"chats"`
	Wishlist  int `json:"wishlist"`
	Visits    int `json:"visits"`
	Errors24h int `json:"errors_24h"`
}

// ErrorRecord is a diagnostic row written when a command or request fails.
type ErrorRecord struct {
	TelegramID *string `json:"telegram_id,omitempty"`
	ChatID     *string `json:"chat_id,omitempty"`
	Command    *string `json:"command,omitempty"`
	ErrorType  *string `json:"error_type,omitempty"`
	Message    *string `json:"message,omitempty"`
}
