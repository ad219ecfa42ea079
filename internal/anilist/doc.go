// Package anilist implements the AniList GraphQL transport for the schedule
// fetcher.
//
// Client posts the airingSchedules page query (sorted by airing time,
// newest first, bounded above by the request snapshot) and converts each
// schedule item into a catalog.Entry. Items that cannot be converted are
// dropped and counted rather than failing the page. IsRetriable classifies
// transport errors so the fetcher only retries conditions that can clear up
// (timeouts, rate limits, server errors).
package anilist
