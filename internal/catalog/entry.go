package catalog

import "time"

// Titles holds the title variants published upstream.
type Titles struct {
	Romaji        string `json:"romaji,omitempty"`
	English       string `json:"english,omitempty"`
	Native        string `json:"native,omitempty"`
	UserPreferred string `json:"user_preferred,omitempty"`
}

// Display returns the best available title for humans.
func (t Titles) Display() string {
	for _, candidate := range []string{t.UserPreferred, t.English, t.Romaji, t.Native} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// Tag is a descriptive upstream tag.
type Tag struct {
	Name    string `json:"name"`
	IsAdult bool   `json:"is_adult,omitempty"`
	Rank    int    `json:"rank,omitempty"`
}

// Images groups cover and banner artwork.
type Images struct {
	CoverExtraLarge string `json:"cover_extra_large,omitempty"`
	CoverLarge      string `json:"cover_large,omitempty"`
	CoverColor      string `json:"cover_color,omitempty"`
	Banner          string `json:"banner,omitempty"`
}

// Series is the metadata of one anime series as carried on each entry and
// denormalized onto its catalog record.
type Series struct {
	Titles          Titles     `json:"titles"`
	Synonyms        []string   `json:"synonyms,omitempty"`
	Images          Images     `json:"images"`
	Genres          []string   `json:"genres,omitempty"`
	Tags            []Tag      `json:"tags,omitempty"`
	IsAdult         bool       `json:"is_adult,omitempty"`
	Type            string     `json:"type,omitempty"`
	Format          string     `json:"format,omitempty"`
	CountryOfOrigin string     `json:"country_of_origin,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	TotalEpisodes   int        `json:"total_episodes,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	AverageScore    int        `json:"average_score,omitempty"`
	Popularity      int        `json:"popularity,omitempty"`
	Season          string     `json:"season,omitempty"`
	SeasonYear      int        `json:"season_year,omitempty"`
	SiteURL         string     `json:"site_url,omitempty"`
	Description     string     `json:"description,omitempty"`
}

// Entry is one upstream airing schedule item: a single episode of a series.
type Entry struct {
	ScheduleID  int
	SeriesID    int
	SecondaryID string
	Episode     int
	AiredAt     time.Time
	Status      Status
	Series      Series
}

// Addressable reports whether the entry carries a storage key.
func (e Entry) Addressable() bool {
	return e.SecondaryID != ""
}
