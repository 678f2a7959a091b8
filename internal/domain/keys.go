package domain

// Storage keys, one per persisted collection plus the session credentials.
const (
	KeyCart           = "cart"
	KeyFavorites      = "favorites"
	KeyProducts       = "products"
	KeyRecentlyViewed = "esdaly_recently_viewed"
	KeyToken          = "token"
	KeyUser           = "user"
)
