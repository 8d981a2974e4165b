package normalizer

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"ttmusic/internal/models"
)

var testScrapedAt = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// decodeRecord decodes a JSON object the same way the source provider does.
func decodeRecord(t *testing.T, s string) models.RawRecord {
	t.Helper()

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		t.Fatalf("Failed to decode test record: %v", err)
	}

	return raw
}

func TestNewTransformer(t *testing.T) {
	tr := NewTransformer()
	if tr == nil {
		t.Fatal("NewTransformer returned nil")
	}
}

func TestResolveID(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantID    int64
		wantIDStr string
		wantOK    bool
	}{
		{
			name:      "numeric id",
			input:     `{"id": 6925043524485598977}`,
			wantID:    6925043524485598977,
			wantIDStr: "6925043524485598977",
			wantOK:    true,
		},
		{
			name:      "explicit id_str wins for string form",
			input:     `{"id": 42, "id_str": "forty-two"}`,
			wantID:    42,
			wantIDStr: "forty-two",
			wantOK:    true,
		},
		{
			name:      "mid used when id missing",
			input:     `{"mid": "7001"}`,
			wantID:    7001,
			wantIDStr: "7001",
			wantOK:    true,
		},
		{
			name:      "id_str used as numeric candidate",
			input:     `{"id_str": "123"}`,
			wantID:    123,
			wantIDStr: "123",
			wantOK:    true,
		},
		{
			name:      "zero id is skipped",
			input:     `{"id": 0, "mid": 55}`,
			wantID:    55,
			wantIDStr: "55",
			wantOK:    true,
		},
		{
			name:      "non-numeric id falls back to zero",
			input:     `{"id": "abc"}`,
			wantID:    0,
			wantIDStr: "abc",
			wantOK:    false,
		},
		{
			name:      "nothing present",
			input:     `{"title": "x"}`,
			wantID:    0,
			wantIDStr: "0",
			wantOK:    true,
		},
		{
			name:      "float id truncated",
			input:     `{"id": 12.9}`,
			wantID:    12,
			wantIDStr: "12.9",
			wantOK:    true,
		},
		{
			name:      "overflow falls back to zero",
			input:     `{"id": 99999999999999999999}`,
			wantID:    0,
			wantIDStr: "99999999999999999999",
			wantOK:    false,
		},
		{
			name:      "boolean id",
			input:     `{"id": true}`,
			wantID:    1,
			wantIDStr: "True",
			wantOK:    true,
		},
		{
			name:      "empty id_str ignored",
			input:     `{"id_str": "", "id": 9}`,
			wantID:    9,
			wantIDStr: "9",
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, idStr, ok := resolveID(decodeRecord(t, tt.input))
			if id != tt.wantID {
				t.Errorf("id = %d, want %d", id, tt.wantID)
			}

			if idStr != tt.wantIDStr {
				t.Errorf("id_str = %q, want %q", idStr, tt.wantIDStr)
			}

			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestTransformer_Transform_FullRecord(t *testing.T) {
	raw := decodeRecord(t, `{
		"id": 7012345678901234567,
		"id_str": "7012345678901234567",
		"title": "夜に駆ける",
		"author": "YOASOBI",
		"duration": 60,
		"user_count": "1500",
		"status": 1,
		"is_original": false,
		"cover_thumb": {"height": 100, "width": 100, "uri": "tos/abc", "url_list": ["a", 5, "b", null], "url_prefix": null},
		"play_url": {"uri": "https://example.com/a.mp3", "url_list": ["https://example.com/a.mp3"]},
		"external_song_info": {"isrc": "JPU901902345"},
		"tt_to_dsp_song_infos": {"spotify": {"id": "x"}},
		"extra": "{\"beats\":[]}",
		"unknown_key": "dropped"
	}`)

	item, degraded := NewTransformer().Transform(raw, "jp", testScrapedAt)

	if len(degraded) != 0 {
		t.Errorf("degraded = %v, want none", degraded)
	}

	if item.ID != 7012345678901234567 {
		t.Errorf("ID = %d", item.ID)
	}

	if item.Region != "JP" {
		t.Errorf("Region = %q, want JP", item.Region)
	}

	if item.Title == nil || *item.Title != "夜に駆ける" {
		t.Errorf("Title = %v", item.Title)
	}

	if item.UserCount == nil || *item.UserCount != 1500 {
		t.Errorf("UserCount = %v, want 1500", item.UserCount)
	}

	if item.IsOriginal == nil || *item.IsOriginal {
		t.Errorf("IsOriginal = %v, want false", item.IsOriginal)
	}

	if item.CoverThumb == nil {
		t.Fatal("CoverThumb is nil")
	}

	if !reflect.DeepEqual(item.CoverThumb.URLList, []string{"a", "b"}) {
		t.Errorf("CoverThumb.URLList = %v, want [a b]", item.CoverThumb.URLList)
	}

	if item.CoverThumb.URLPrefix != nil {
		t.Errorf("CoverThumb.URLPrefix = %v, want nil", *item.CoverThumb.URLPrefix)
	}

	if item.CoverMedium != nil || item.CoverLarge != nil {
		t.Error("absent covers should stay nil")
	}

	if item.PlayURL == nil || item.PlayURL.Height != nil {
		t.Errorf("PlayURL = %+v, want asset with nil height", item.PlayURL)
	}

	if item.ExternalSongInfo["isrc"] != "JPU901902345" {
		t.Errorf("ExternalSongInfo = %v", item.ExternalSongInfo)
	}

	if !item.ScrapedAt.Equal(testScrapedAt) {
		t.Errorf("ScrapedAt = %v", item.ScrapedAt)
	}
}

func TestTransformer_Transform_Degrades(t *testing.T) {
	raw := decodeRecord(t, `{
		"id": 1,
		"title": 12,
		"duration": 12.5,
		"status": true,
		"is_original": "maybe",
		"cover_thumb": "not-an-object",
		"cover_large": [],
		"external_song_info": "nope"
	}`)

	item, degraded := NewTransformer().Transform(raw, "US", testScrapedAt)

	if item.Title != nil || item.Duration != nil || item.Status != nil || item.IsOriginal != nil {
		t.Errorf("wrongly typed scalars should be nil: %+v", item)
	}

	if item.CoverThumb != nil || item.CoverLarge != nil {
		t.Error("non-object covers should be nil")
	}

	if item.ExternalSongInfo != nil {
		t.Error("non-object external_song_info should be nil")
	}

	want := []string{"title", "duration", "status", "is_original", "cover_thumb", "cover_large", "external_song_info"}
	if !reflect.DeepEqual(degraded, want) {
		t.Errorf("degraded = %v, want %v", degraded, want)
	}
}

func TestMediaFromRaw(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want []string
	}{
		{name: "missing list", in: map[string]any{"uri": "x"}, want: []string{}},
		{name: "list not a sequence", in: map[string]any{"url_list": "a"}, want: []string{}},
		{name: "mixed entries", in: map[string]any{"url_list": []any{"a", json.Number("5"), "b", nil}}, want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset := mediaFromRaw(tt.in)
			if asset.URLList == nil {
				t.Fatal("URLList must never be nil")
			}

			if !reflect.DeepEqual(asset.URLList, tt.want) {
				t.Errorf("URLList = %v, want %v", asset.URLList, tt.want)
			}
		})
	}
}

func TestTransformer_Transform_MediaJSONShape(t *testing.T) {
	raw := decodeRecord(t, `{"id": 1, "cover_thumb": {}}`)

	item, _ := NewTransformer().Transform(raw, "US", testScrapedAt)

	b, err := json.Marshal(item.CoverThumb)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"height":null,"width":null,"uri":null,"url_list":[],"url_prefix":null}`
	if string(b) != want {
		t.Errorf("cover_thumb JSON = %s, want %s", b, want)
	}
}
