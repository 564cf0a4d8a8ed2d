package bgg

import (
	"strconv"
	"strings"

	"github.com/gameshelf/backend/internal/domain"
)

// Link types carried on thing documents
const (
	linkMechanic  = "boardgamemechanic"
	linkCategory  = "boardgamecategory"
	linkPublisher = "boardgamepublisher"
	linkDesigner  = "boardgamedesigner"
	linkArtist    = "boardgameartist"
	linkDeveloper = "boardgamedeveloper"
)

const (
	defaultMinPlayers = 1
	defaultMaxPlayers = 4
	notRanked         = "Not Ranked"
	siteURL           = "https://boardgamegeek.com"
)

// MapToBoardGame converts a thing item to our domain BoardGame.
// The id is the one requested, matching the catalog key callers use.
func MapToBoardGame(id string, item *thingItem) *domain.BoardGame {
	game := &domain.BoardGame{
		ID:                  id,
		Name:                primaryName(item.Names),
		YearPublished:       optionalInt(item.YearPublished),
		MinPlayers:          intOr(item.MinPlayers, defaultMinPlayers),
		MaxPlayers:          intOr(item.MaxPlayers, defaultMaxPlayers),
		ThumbURL:            textOr(item.Thumbnail, domain.PlaceholderImage),
		ImageURL:            textOr(item.Image, domain.PlaceholderImage),
		Description:         textOr(item.Description, ""),
		Rank:                boardGameRank(item.Ratings),
		Mechanics:           linkValues(item.Links, linkMechanic),
		Categories:          linkValues(item.Links, linkCategory),
		Publishers:          linkValues(item.Links, linkPublisher),
		Designers:           linkValues(item.Links, linkDesigner),
		Developers:          linkValues(item.Links, linkDeveloper),
		Artists:             linkValues(item.Links, linkArtist),
		Names:               alternateNames(item.Names),
		HistoricalLowPrices: []string{},
		PrimaryPublisher:    firstEntity(item.Links, linkPublisher),
		PrimaryDesigner:     firstEntity(item.Links, linkDesigner),
		RelatedTo:           []string{},
		RelatedAs:           []string{},
		Active:              true,
		Type:                "boardgame",
		URL:                 siteURL + "/boardgame/" + id,
	}

	if r := item.Ratings; r != nil {
		game.NumUserRatings = intOr(r.UsersRated, 0)
		game.AverageUserRating = floatOr(r.Average, 0)
		game.NumUserComplexityVotes = intOr(r.NumWeights, 0)
		game.AverageStrategyComplexity = floatOr(r.AverageWeight, 0)
	}

	return game
}

// boardGameRank extracts the overall board game rank; absent or "Not Ranked" is 0
func boardGameRank(ratings *thingRatings) int {
	if ratings == nil {
		return 0
	}
	for _, rank := range ratings.Ranks {
		if rank.Type != "subtype" || rank.Name != "boardgame" {
			continue
		}
		if rank.Value == "" || rank.Value == notRanked {
			return 0
		}
		n, err := strconv.Atoi(strings.TrimSpace(rank.Value))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}

func primaryName(names []thingName) string {
	for _, n := range names {
		if n.Type == "primary" {
			return n.Value
		}
	}
	return ""
}

func alternateNames(names []thingName) []string {
	out := []string{}
	for _, n := range names {
		if n.Type == "alternate" && n.Value != "" {
			out = append(out, n.Value)
		}
	}
	return out
}

func linkValues(links []thingLink, linkType string) []string {
	out := []string{}
	for _, l := range links {
		if l.Type == linkType && l.Value != "" {
			out = append(out, l.Value)
		}
	}
	return out
}

func firstEntity(links []thingLink, linkType string) domain.CatalogEntity {
	for _, l := range links {
		if l.Type == linkType && l.ID != "" {
			return domain.CatalogEntity{ID: l.ID, URL: siteURL + "/" + linkType + "/" + l.ID}
		}
	}
	return domain.CatalogEntity{}
}

func textOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	if v := strings.TrimSpace(*s); v != "" {
		return v
	}
	return fallback
}

func optionalInt(attr *valueAttr) *int {
	if attr == nil || attr.Value == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(attr.Value))
	if err != nil {
		return nil
	}
	return &n
}

func intOr(attr *valueAttr, fallback int) int {
	if n := optionalInt(attr); n != nil {
		return *n
	}
	return fallback
}

func floatOr(attr *valueAttr, fallback float64) float64 {
	if attr == nil || attr.Value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(attr.Value), 64)
	if err != nil {
		return fallback
	}
	return f
}
