// Package normalizer turns raw trending-music records into validated MusicItems.
package normalizer

import (
	"errors"
	"strings"
	"time"

	"ttmusic/internal/logger"
	"ttmusic/internal/metrics"
	"ttmusic/internal/models"
)

// Batch errors.
var (
	ErrNilInput      = errors.New("raw record sequence is nil")
	ErrMissingRegion = errors.New("region is required")
)

// Processor validates and transforms raw records.
type Processor struct {
	validator   *Validator
	transformer *Transformer
	log         *logger.Logger
	now         func() time.Time
}

// RecordFailure identifies one record skipped during a batch.
type RecordFailure struct {
	Err    error
	IDHint string
	Index  int
}

// BatchResult is the outcome of ProcessAll.
type BatchResult struct {
	ScrapedAt time.Time
	Items     []*models.MusicItem
	Failures  []RecordFailure
	Failed    int
}

// Retrieved returns how many raw records the batch received.
func (r *BatchResult) Retrieved() int {
	return len(r.Items) + r.Failed
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return NewProcessorWithDeps(nil, nil)
}

// NewProcessorWithDeps creates a processor with an injected logger and clock.
// Nil arguments fall back to a no-op logger and the UTC wall clock.
func NewProcessorWithDeps(log *logger.Logger, now func() time.Time) *Processor {
	if log == nil {
		log = logger.NewNop()
	}

	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
		log:         log,
		now:         now,
	}
}

// Normalize converts one raw record with a default processor.
func Normalize(raw models.RawRecord, region string, scrapedAt time.Time) (*models.MusicItem, error) {
	return NewProcessor().Process(raw, region, scrapedAt)
}

// Process transforms raw into a MusicItem and checks its required fields.
// Malformed raw values never fail; only a blank region or a zero scrapedAt do.
func (p *Processor) Process(raw models.RawRecord, region string, scrapedAt time.Time) (*models.MusicItem, error) {
	item, degraded := p.transformer.Transform(raw, region, scrapedAt)
	if len(degraded) > 0 {
		p.log.Debug("degraded fields", "id_str", item.IDStr, "fields", degraded)
	}

	if err := p.validator.Validate(item); err != nil {
		return nil, err
	}

	return item, nil
}

// ProcessAll normalizes items in order under one shared scrape timestamp.
// Records that fail are logged, counted and skipped. Only a nil sequence or a
// blank region is returned as an error.
func (p *Processor) ProcessAll(items []any, region string) (*BatchResult, error) {
	if items == nil {
		return nil, ErrNilInput
	}

	if strings.TrimSpace(region) == "" {
		return nil, ErrMissingRegion
	}

	result := &BatchResult{
		ScrapedAt: p.now(),
		Items:     make([]*models.MusicItem, 0, len(items)),
	}

	metrics.RecordsRetrievedTotal.Add(float64(len(items)))

	for i, rawItem := range items {
		item, err := p.processOne(i, rawItem, region, result.ScrapedAt)
		if err != nil {
			hint := idHint(rawItem)
			p.log.Warn("failed to normalize item", "index", i, "id", hint, "error", err)

			result.Failures = append(result.Failures, RecordFailure{Index: i, IDHint: hint, Err: err})
			result.Failed++

			metrics.RecordsFailedTotal.Inc()

			continue
		}

		result.Items = append(result.Items, item)
		metrics.RecordsNormalizedTotal.Inc()
	}

	return result, nil
}

func (p *Processor) processOne(index int, rawItem any, region string, scrapedAt time.Time) (*models.MusicItem, error) {
	raw, err := AsRecord(rawItem)
	if err == nil {
		var item *models.MusicItem

		item, err = p.Process(raw, region, scrapedAt)
		if err == nil {
			return item, nil
		}
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		vErr.Index = index
	}

	return nil, err
}

// idHint names a raw item in logs without trusting its shape.
func idHint(rawItem any) string {
	obj, ok := asObject(rawItem)
	if !ok {
		return describe(rawItem)
	}

	if v, found := firstTruthy(obj, "id_str", "id", "mid"); found {
		return stringify(v)
	}

	return "unknown"
}
