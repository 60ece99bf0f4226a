package models

import "time"

// Category is one of the fixed topic labels a farmer's question is filed under.
type Category string

const (
	CategoryCrop       Category = "crop"
	CategoryPest       Category = "pest"
	CategoryWeather    Category = "weather"
	CategoryFertilizer Category = "fertilizer"
	CategoryMarket     Category = "market"
	CategorySubsidy    Category = "subsidy"
	CategoryGeneral    Category = "general"
)

// Categories lists every label in classifier priority order, general last.
var Categories = []Category{
	CategoryCrop,
	CategoryPest,
	CategoryWeather,
	CategoryFertilizer,
	CategoryMarket,
	CategorySubsidy,
	CategoryGeneral,
}

// Valid reports whether c is one of the fixed labels.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultLanguage is used when a request names no language.
const DefaultLanguage = "en"

// Languages are the codes with dedicated phrasing. Other codes are accepted
// and stored as given.
var Languages = []string{"en", "ml", "hi", "ta", "te"}

// KnownLanguage reports whether code has dedicated phrasing.
func KnownLanguage(code string) bool {
	for _, l := range Languages {
		if l == code {
			return true
		}
	}
	return false
}

// QueryRecord is one processed question as persisted in the query log.
type QueryRecord struct {
	ID           int64     `json:"id"`
	QueryText    string    `json:"query_text"`
	ResponseText string    `json:"response_text"`
	Category     Category  `json:"category"`
	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"timestamp"`
	UsedRemote   bool      `json:"used_remote"`
}

// SourceTag maps the remote flag onto the wire tag ("openai" or "demo").
func SourceTag(usedRemote bool) string {
	if usedRemote {
		return "openai"
	}
	return "demo"
}

// Stats aggregates the query log.
type Stats struct {
	Total  int64 `json:"total_queries"`
	Remote int64 `json:"openai_queries"`
	Demo   int64 `json:"demo_queries"`
	Today  int64 `json:"today_queries"`
}
