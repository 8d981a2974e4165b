// Package models defines the data structures shared across the scraper.
package models

import "time"

// RawRecord is one untyped item as decoded from the trending-music source.
// Nothing about its shape is guaranteed.
type RawRecord map[string]any

// MediaAsset is the shared shape of cover images and play URLs.
type MediaAsset struct {
	Height    *int     `json:"height"`
	Width     *int     `json:"width"`
	URI       *string  `json:"uri"`
	URLList   []string `json:"url_list"`
	URLPrefix *string  `json:"url_prefix"`
}

// MusicItem is a normalized trending-music record.
type MusicItem struct {
	ID               int64          `json:"id"`
	IDStr            string         `json:"id_str" validate:"required"`
	Title            *string        `json:"title"`
	Author           *string        `json:"author"`
	Duration         *int           `json:"duration"`
	UserCount        *int           `json:"user_count"`
	Status           *int           `json:"status"`
	IsOriginal       *bool          `json:"is_original"`
	CoverThumb       *MediaAsset    `json:"cover_thumb"`
	CoverMedium      *MediaAsset    `json:"cover_medium"`
	CoverLarge       *MediaAsset    `json:"cover_large"`
	PlayURL          *MediaAsset    `json:"play_url"`
	ExternalSongInfo map[string]any `json:"external_song_info"`
	TTToDSPSongInfos map[string]any `json:"tt_to_dsp_song_infos"`
	Extra            *string        `json:"extra"`
	Region           string         `json:"region" validate:"required,uppercase"`
	ScrapedAt        time.Time      `json:"scraped_at" validate:"required"`
}

// DisplayTitle returns the title or a placeholder when it is missing.
func (m *MusicItem) DisplayTitle() string {
	if m.Title == nil || *m.Title == "" {
		return "-"
	}

	return *m.Title
}

// DisplayAuthor returns the author or a placeholder when it is missing.
func (m *MusicItem) DisplayAuthor() string {
	if m.Author == nil || *m.Author == "" {
		return "-"
	}

	return *m.Author
}
