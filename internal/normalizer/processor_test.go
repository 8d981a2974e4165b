package normalizer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return testScrapedAt
}

func decodeItems(t *testing.T, s string) []any {
	t.Helper()

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var items []any
	if err := dec.Decode(&items); err != nil {
		t.Fatalf("Failed to decode test items: %v", err)
	}

	return items
}

func TestNewProcessor(t *testing.T) {
	p := NewProcessor()
	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessorWithDeps(nil, fixedClock)

	item, err := p.Process(decodeRecord(t, `{"id": "42", "title": "Song"}`), "Us", testScrapedAt)
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if item.ID != 42 || item.IDStr != "42" {
		t.Errorf("ID = %d/%q, want 42/\"42\"", item.ID, item.IDStr)
	}

	if item.Region != "US" {
		t.Errorf("Region = %q, want US", item.Region)
	}
}

func TestProcessor_Process_RegionCase(t *testing.T) {
	p := NewProcessor()

	for _, region := range []string{"us", "Us", "uS", "US"} {
		item, err := p.Process(decodeRecord(t, `{"id": 1}`), region, testScrapedAt)
		if err != nil {
			t.Fatalf("Process(%q) failed: %v", region, err)
		}

		if item.Region != "US" {
			t.Errorf("Process(%q).Region = %q, want US", region, item.Region)
		}
	}
}

func TestProcessor_Process_IDStrIdempotent(t *testing.T) {
	p := NewProcessor()

	inputs := []string{
		`{"id": 123}`,
		`{"id": "abc"}`,
		`{"mid": 9, "id_str": "x9"}`,
		`{}`,
	}

	for _, in := range inputs {
		first, err := p.Process(decodeRecord(t, in), "US", testScrapedAt)
		if err != nil {
			t.Fatalf("Process(%s) failed: %v", in, err)
		}

		encoded, err := json.Marshal(first)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}

		second, err := p.Process(decodeRecord(t, string(encoded)), "US", testScrapedAt)
		if err != nil {
			t.Fatalf("re-Process(%s) failed: %v", encoded, err)
		}

		if first.IDStr != second.IDStr {
			t.Errorf("id_str changed on re-normalization: %q -> %q", first.IDStr, second.IDStr)
		}
	}
}

func TestProcessor_ProcessAll(t *testing.T) {
	p := NewProcessorWithDeps(nil, fixedClock)

	items := decodeItems(t, `[
		{"id": 0, "mid": 10},
		{"id": 11},
		{"id": 12},
		null,
		{"id": 14},
		{"id": 15},
		{"id": 16},
		{"id": 17},
		{"id": 18},
		{"id": 19}
	]`)

	result, err := p.ProcessAll(items, "us")
	if err != nil {
		t.Fatalf("ProcessAll returned unexpected error: %v", err)
	}

	if len(result.Items) != 9 {
		t.Fatalf("len(Items) = %d, want 9", len(result.Items))
	}

	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}

	if result.Retrieved() != 10 {
		t.Errorf("Retrieved() = %d, want 10", result.Retrieved())
	}

	wantIDs := []int64{10, 11, 12, 14, 15, 16, 17, 18, 19}
	for i, item := range result.Items {
		if item.ID != wantIDs[i] {
			t.Errorf("Items[%d].ID = %d, want %d", i, item.ID, wantIDs[i])
		}

		if !item.ScrapedAt.Equal(testScrapedAt) {
			t.Errorf("Items[%d].ScrapedAt = %v, want shared batch timestamp", i, item.ScrapedAt)
		}
	}

	if len(result.Failures) != 1 || result.Failures[0].Index != 3 {
		t.Fatalf("Failures = %+v, want one failure at index 3", result.Failures)
	}

	var vErr *ValidationError
	if !errors.As(result.Failures[0].Err, &vErr) || vErr.Index != 3 {
		t.Errorf("failure error = %v, want *ValidationError at index 3", result.Failures[0].Err)
	}

	if !errors.Is(result.Failures[0].Err, ErrNotObject) {
		t.Errorf("failure error = %v, want ErrNotObject", result.Failures[0].Err)
	}
}

func TestProcessor_ProcessAll_SharedTimestamp(t *testing.T) {
	calls := 0
	clock := func() time.Time {
		calls++
		return testScrapedAt.Add(time.Duration(calls) * time.Hour)
	}

	p := NewProcessorWithDeps(nil, clock)

	result, err := p.ProcessAll(decodeItems(t, `[{"id":1},{"id":2},{"id":3}]`), "US")
	if err != nil {
		t.Fatalf("ProcessAll returned unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("clock called %d times, want 1", calls)
	}

	for _, item := range result.Items {
		if !item.ScrapedAt.Equal(result.ScrapedAt) {
			t.Errorf("ScrapedAt = %v, want %v", item.ScrapedAt, result.ScrapedAt)
		}
	}
}

func TestProcessor_ProcessAll_SystemicErrors(t *testing.T) {
	p := NewProcessor()

	if _, err := p.ProcessAll(nil, "US"); !errors.Is(err, ErrNilInput) {
		t.Errorf("ProcessAll(nil) = %v, want ErrNilInput", err)
	}

	if _, err := p.ProcessAll([]any{}, " "); !errors.Is(err, ErrMissingRegion) {
		t.Errorf("ProcessAll(blank region) = %v, want ErrMissingRegion", err)
	}
}

func TestProcessor_ProcessAll_Empty(t *testing.T) {
	result, err := NewProcessor().ProcessAll([]any{}, "US")
	if err != nil {
		t.Fatalf("ProcessAll returned unexpected error: %v", err)
	}

	if len(result.Items) != 0 || result.Failed != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}

func TestIDHint(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{in: nil, want: "null"},
		{in: "x", want: "string"},
		{in: map[string]any{"id": json.Number("5")}, want: "5"},
		{in: map[string]any{"id_str": "s", "id": json.Number("5")}, want: "s"},
		{in: map[string]any{}, want: "unknown"},
	}

	for _, tt := range tests {
		if got := idHint(tt.in); got != tt.want {
			t.Errorf("idHint(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
