package domain

// PlaceholderImage is served when the catalog has no artwork for a game
const PlaceholderImage = "/board-game-placeholder.png"

// BoardGame represents one catalog entry sourced from BoardGameGeek.
// Extended metadata fields are zero unless the thing document carries them.
type BoardGame struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	YearPublished *int   `json:"year_published,omitempty"`
	MinPlayers    int    `json:"min_players"`
	MaxPlayers    int    `json:"max_players"`
	ThumbURL      string `json:"thumb_url"`
	ImageURL      string `json:"image_url"`
	Description   string `json:"description"`
	Rank          int    `json:"rank"` // 0 = unranked

	Mechanics           []string      `json:"mechanics"`
	Categories          []string      `json:"categories"`
	Publishers          []string      `json:"publishers"`
	Designers           []string      `json:"designers"`
	Developers          []string      `json:"developers"`
	Artists             []string      `json:"artists"`
	Names               []string      `json:"names"`
	NumUserRatings      int           `json:"num_user_ratings"`
	AverageUserRating   float64       `json:"average_user_rating"`
	HistoricalLowPrices []string      `json:"historical_low_prices"`
	PrimaryPublisher    CatalogEntity `json:"primary_publisher"`
	PrimaryDesigner     CatalogEntity `json:"primary_designer"`
	RelatedTo           []string      `json:"related_to"`
	RelatedAs           []string      `json:"related_as"`

	WeightAmount float64 `json:"weight_amount"`
	WeightUnits  string  `json:"weight_units"`
	SizeHeight   float64 `json:"size_height"`
	SizeDepth    float64 `json:"size_depth"`
	SizeUnits    string  `json:"size_units"`
	Active       bool    `json:"active"`

	NumUserComplexityVotes    int     `json:"num_user_complexity_votes"`
	AverageLearningComplexity float64 `json:"average_learning_complexity"`
	AverageStrategyComplexity float64 `json:"average_strategy_complexity"`

	Visits   int `json:"visits"`
	Lists    int `json:"lists"`
	Mentions int `json:"mentions"`
	Links    int `json:"links"`
	Plays    int `json:"plays"`

	Type        string  `json:"type"`
	SKU         string  `json:"sku"`
	UPC         string  `json:"upc"`
	Price       string  `json:"price"`
	PriceCA     string  `json:"price_ca"`
	PriceUK     string  `json:"price_uk"`
	PriceAU     string  `json:"price_au"`
	MSRP        float64 `json:"msrp"`
	Discount    string  `json:"discount"`
	Handle      string  `json:"handle"`
	URL         string  `json:"url"`
	RulesURL    string  `json:"rules_url"`
	OfficialURL string  `json:"official_url"`
	Commentary  string  `json:"commentary"`
	FAQ         string  `json:"faq"`
}

// CatalogEntity is a publisher or designer reference
type CatalogEntity struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	URL   string  `json:"url"`
}

// IsRanked reports whether the game has a catalog rank
func (g *BoardGame) IsRanked() bool {
	return g.Rank > 0
}

// SearchPage is one page of name-search results
type SearchPage struct {
	Items   []BoardGame `json:"items"`
	HasMore bool        `json:"hasMore"`
}
