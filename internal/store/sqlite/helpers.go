package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"animehub/internal/catalog"
)

const recordColumns = "secondary_id, series_id, latest_episode, episode_aired_at, episode_added_at, last_refreshed_at, status, series_json, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*catalog.Record, error) {
	var (
		secondaryID  string
		seriesID     int64
		episode      int64
		airedRaw     sql.NullString
		addedRaw     sql.NullString
		refreshedRaw sql.NullString
		status       string
		seriesJSON   sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&secondaryID,
		&seriesID,
		&episode,
		&airedRaw,
		&addedRaw,
		&refreshedRaw,
		&status,
		&seriesJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &catalog.Record{
		SecondaryID:   secondaryID,
		SeriesID:      int(seriesID),
		LatestEpisode: int(episode),
		Status:        catalog.Status(status),
	}
	if seriesJSON.Valid && seriesJSON.String != "" {
		if err := json.Unmarshal([]byte(seriesJSON.String), &record.Series); err != nil {
			return nil, err
		}
	}
	record.EpisodeAiredAt, _ = parseTimeString(airedRaw.String)
	record.EpisodeAddedAt, _ = parseTimeString(addedRaw.String)
	record.LastRefreshedAt, _ = parseTimeString(refreshedRaw.String)
	record.CreatedAt, _ = parseTimeString(createdRaw.String)
	record.UpdatedAt, _ = parseTimeString(updatedRaw.String)
	return record, nil
}

func encodeSeries(series catalog.Series) (string, error) {
	data, err := json.Marshal(series)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return formatTime(value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
