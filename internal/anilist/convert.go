package anilist

import (
	"fmt"
	"strconv"
	"time"

	"animehub/internal/catalog"
	"animehub/internal/services"
	"animehub/internal/textutil"
)

// toEntry converts one schedule item. Errors carry services.ErrRecordConversion.
func toEntry(item airingSchedule) (catalog.Entry, error) {
	if item.Media == nil {
		return catalog.Entry{}, conversionError(item.ID, "schedule item has no media")
	}
	if item.Episode < 1 {
		return catalog.Entry{}, conversionError(item.ID, fmt.Sprintf("episode %d is not positive", item.Episode))
	}
	if item.AiringAt <= 0 {
		return catalog.Entry{}, conversionError(item.ID, "missing airing time")
	}
	status, err := catalog.ParseStatus(item.Media.Status)
	if err != nil {
		return catalog.Entry{}, conversionError(item.ID, err.Error())
	}

	m := item.Media
	entry := catalog.Entry{
		ScheduleID: item.ID,
		SeriesID:   m.ID,
		Episode:    item.Episode,
		AiredAt:    time.Unix(item.AiringAt, 0).UTC(),
		Status:     status,
		Series:     toSeries(m),
	}
	if m.IDMal != nil && *m.IDMal > 0 {
		entry.SecondaryID = strconv.Itoa(*m.IDMal)
	}
	return entry, nil
}

func toSeries(m *media) catalog.Series {
	series := catalog.Series{
		Titles: catalog.Titles{
			Romaji:        m.Title.Romaji,
			English:       m.Title.English,
			Native:        m.Title.Native,
			UserPreferred: m.Title.UserPreferred,
		},
		Synonyms: m.Synonyms,
		Images: catalog.Images{
			CoverExtraLarge: m.CoverImage.ExtraLarge,
			CoverLarge:      m.CoverImage.Large,
			CoverColor:      m.CoverImage.Color,
			Banner:          m.BannerImage,
		},
		Genres:          m.Genres,
		IsAdult:         m.IsAdult,
		Type:            m.Type,
		Format:          m.Format,
		CountryOfOrigin: m.CountryOfOrigin,
		StartDate:       m.StartDate.toTime(),
		TotalEpisodes:   m.Episodes,
		DurationMinutes: m.Duration,
		AverageScore:    m.AverageScore,
		Popularity:      m.Popularity,
		Season:          m.Season,
		SeasonYear:      m.SeasonYear,
		SiteURL:         m.SiteURL,
		Description:     textutil.StripMarkup(m.Description),
	}
	for _, tag := range m.Tags {
		series.Tags = append(series.Tags, catalog.Tag{Name: tag.Name, IsAdult: tag.IsAdult, Rank: tag.Rank})
	}
	return series
}

// toTime resolves a partial date. A missing month or day collapses to the
// first of the period; a missing year means no date.
func (d fuzzyDate) toTime() *time.Time {
	if d.Year == nil || *d.Year <= 0 {
		return nil
	}
	month, day := 1, 1
	if d.Month != nil && *d.Month >= 1 && *d.Month <= 12 {
		month = *d.Month
	}
	if d.Day != nil && *d.Day >= 1 && *d.Day <= 31 {
		day = *d.Day
	}
	t := time.Date(*d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

func conversionError(scheduleID int, message string) error {
	return services.Wrap(services.ErrRecordConversion, "fetching", "convert schedule item",
		fmt.Sprintf("schedule %d: %s", scheduleID, message), nil)
}
