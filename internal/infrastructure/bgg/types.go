package bgg

import "encoding/xml"

// searchResponse is the /search document: <items><item id="..."/></items>
type searchResponse struct {
	XMLName xml.Name     `xml:"items"`
	Total   int          `xml:"total,attr"`
	Items   []searchItem `xml:"item"`
}

type searchItem struct {
	ID   string `xml:"id,attr"`
	Type string `xml:"type,attr"`
}

// thingResponse is the /thing?stats=1 document
type thingResponse struct {
	XMLName xml.Name    `xml:"items"`
	Items   []thingItem `xml:"item"`
}

type valueAttr struct {
	Value string `xml:"value,attr"`
}

type thingName struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type thingLink struct {
	Type  string `xml:"type,attr"`
	ID    string `xml:"id,attr"`
	Value string `xml:"value,attr"`
}

type thingRank struct {
	Type  string `xml:"type,attr"`
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type thingRatings struct {
	UsersRated    *valueAttr  `xml:"usersrated"`
	Average       *valueAttr  `xml:"average"`
	NumWeights    *valueAttr  `xml:"numweights"`
	AverageWeight *valueAttr  `xml:"averageweight"`
	Ranks         []thingRank `xml:"ranks>rank"`
}

type thingItem struct {
	ID            string        `xml:"id,attr"`
	Type          string        `xml:"type,attr"`
	Thumbnail     *string       `xml:"thumbnail"`
	Image         *string       `xml:"image"`
	Names         []thingName   `xml:"name"`
	Description   *string       `xml:"description"`
	YearPublished *valueAttr    `xml:"yearpublished"`
	MinPlayers    *valueAttr    `xml:"minplayers"`
	MaxPlayers    *valueAttr    `xml:"maxplayers"`
	Links         []thingLink   `xml:"link"`
	Ratings       *thingRatings `xml:"statistics>ratings"`
}
