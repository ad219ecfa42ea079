package anilist

const airingSchedulesQuery = `query ($page: Int, $perPage: Int, $airingBefore: Int) {
  Page(page: $page, perPage: $perPage) {
    pageInfo { hasNextPage currentPage }
    airingSchedules(sort: TIME_DESC, airingAt_lesser: $airingBefore) {
      id
      episode
      airingAt
      media {
        id
        idMal
        title { romaji english native userPreferred }
        coverImage { extraLarge large color }
        bannerImage
        genres
        tags { name isAdult rank }
        isAdult
        type
        format
        countryOfOrigin
        status
        startDate { year month day }
        episodes
        duration
        averageScore
        popularity
        siteUrl
        description
        synonyms
        season
        seasonYear
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type pageResponse struct {
	Data struct {
		Page struct {
			PageInfo struct {
				HasNextPage bool `json:"hasNextPage"`
				CurrentPage int  `json:"currentPage"`
			} `json:"pageInfo"`
			AiringSchedules []airingSchedule `json:"airingSchedules"`
		} `json:"Page"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type airingSchedule struct {
	ID       int    `json:"id"`
	Episode  int    `json:"episode"`
	AiringAt int64  `json:"airingAt"`
	Media    *media `json:"media"`
}

type fuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

type media struct {
	ID    int  `json:"id"`
	IDMal *int `json:"idMal"`
	Title struct {
		Romaji        string `json:"romaji"`
		English       string `json:"english"`
		Native        string `json:"native"`
		UserPreferred string `json:"userPreferred"`
	} `json:"title"`
	CoverImage struct {
		ExtraLarge string `json:"extraLarge"`
		Large      string `json:"large"`
		Color      string `json:"color"`
	} `json:"coverImage"`
	BannerImage string   `json:"bannerImage"`
	Genres      []string `json:"genres"`
	Tags        []struct {
		Name    string `json:"name"`
		IsAdult bool   `json:"isAdult"`
		Rank    int    `json:"rank"`
	} `json:"tags"`
	IsAdult         bool      `json:"isAdult"`
	Type            string    `json:"type"`
	Format          string    `json:"format"`
	CountryOfOrigin string    `json:"countryOfOrigin"`
	Status          string    `json:"status"`
	StartDate       fuzzyDate `json:"startDate"`
	Episodes        int       `json:"episodes"`
	Duration        int       `json:"duration"`
	AverageScore    int       `json:"averageScore"`
	Popularity      int       `json:"popularity"`
	SiteURL         string    `json:"siteUrl"`
	Description     string    `json:"description"`
	Synonyms        []string  `json:"synonyms"`
	Season          string    `json:"season"`
	SeasonYear      int       `json:"seasonYear"`
}
