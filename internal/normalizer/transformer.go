package normalizer

import (
	"strings"
	"time"

	"ttmusic/internal/models"
)

// Keys that make up one MediaAsset object.
const (
	keyHeight    = "height"
	keyWidth     = "width"
	keyURI       = "uri"
	keyURLList   = "url_list"
	keyURLPrefix = "url_prefix"
)

// Transformer maps a raw record onto the MusicItem schema. It never fails:
// unusable values degrade to their zero or null form.
type Transformer struct{}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Transform builds a MusicItem from raw. The second return value lists the
// keys that were present but could not be used.
func (t *Transformer) Transform(raw models.RawRecord, region string, scrapedAt time.Time) (*models.MusicItem, []string) {
	var degraded []string

	track := func(key string, state fieldState) {
		if state == fieldInvalid {
			degraded = append(degraded, key)
		}
	}

	id, idStr, idOK := resolveID(raw)
	if !idOK {
		degraded = append(degraded, "id")
	}

	item := &models.MusicItem{
		ID:        id,
		IDStr:     idStr,
		Region:    strings.ToUpper(strings.TrimSpace(region)),
		ScrapedAt: scrapedAt,
	}

	var state fieldState

	item.Title, state = stringField(raw, "title")
	track("title", state)
	item.Author, state = stringField(raw, "author")
	track("author", state)
	item.Extra, state = stringField(raw, "extra")
	track("extra", state)

	item.Duration, state = intField(raw, "duration")
	track("duration", state)
	item.UserCount, state = intField(raw, "user_count")
	track("user_count", state)
	item.Status, state = intField(raw, "status")
	track("status", state)

	item.IsOriginal, state = boolField(raw, "is_original")
	track("is_original", state)

	item.CoverThumb, state = mediaField(raw, "cover_thumb")
	track("cover_thumb", state)
	item.CoverMedium, state = mediaField(raw, "cover_medium")
	track("cover_medium", state)
	item.CoverLarge, state = mediaField(raw, "cover_large")
	track("cover_large", state)
	item.PlayURL, state = mediaField(raw, "play_url")
	track("play_url", state)

	item.ExternalSongInfo, state = objectField(raw, "external_song_info")
	track("external_song_info", state)
	item.TTToDSPSongInfos, state = objectField(raw, "tt_to_dsp_song_infos")
	track("tt_to_dsp_song_infos", state)

	return item, degraded
}

// resolveID picks the id candidate from id, mid and id_str (first truthy wins,
// literal 0 otherwise) and coerces it. The string form prefers an explicit
// id_str, then id, then the candidate. ok is false when coercion fell back to 0.
func resolveID(raw models.RawRecord) (int64, string, bool) {
	candidate, found := firstTruthy(raw, "id", "mid", "id_str")
	if !found {
		candidate = int64(0)
	}

	id, ok := toInt64(candidate)
	if !ok {
		id = 0
	}

	strSource, found := firstTruthy(raw, "id_str", "id")
	if !found {
		strSource = candidate
	}

	return id, stringify(strSource), ok
}

func mediaField(raw map[string]any, key string) (*models.MediaAsset, fieldState) {
	obj, state := objectField(raw, key)
	if state != fieldValid {
		return nil, state
	}

	return mediaFromRaw(obj), fieldValid
}

// mediaFromRaw reconstructs a MediaAsset. Sub-fields of the wrong type are
// left null; url_list drops every non-string entry.
func mediaFromRaw(obj map[string]any) *models.MediaAsset {
	asset := &models.MediaAsset{
		URLList: []string{},
	}

	asset.Height, _ = intField(obj, keyHeight)
	asset.Width, _ = intField(obj, keyWidth)
	asset.URI, _ = stringField(obj, keyURI)
	asset.URLPrefix, _ = stringField(obj, keyURLPrefix)

	if v, ok := lookup(obj, keyURLList); ok {
		asset.URLList = stringList(v)
	}

	return asset
}
