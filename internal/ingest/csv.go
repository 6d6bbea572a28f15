// Package ingest loads vendor offers from CSV files into the offer store.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/domain/offer"
)

// Columns recognized in the header row. Extra columns are ignored.
const (
	colVendorID      = "vendor_id"
	colTitle         = "title"
	colCity          = "city"
	colHeadcountMin  = "headcount_min"
	colHeadcountMax  = "headcount_max"
	colPriceMin      = "price_min"
	colPriceMax      = "price_max"
	colDurationHours = "duration_hours"
	colOccasion      = "occasion"
	colTags          = "tags"
	colUpdatedAt     = "updated_at"
	colDescription   = "description"
)

var requiredColumns = []string{colVendorID, colTitle, colCity, colHeadcountMin, colHeadcountMax, colPriceMin, colPriceMax}

// ErrMissingColumn signals a CSV header without a required column.
var ErrMissingColumn = errors.New("missing required column")

// store is the consumer interface for the offer sink (ISP).
type store interface {
	AddOffers(ctx context.Context, offers []offer.Offer, markHot bool) ([]int64, error)
}

// Report counts the rows of one load.
type Report struct {
	Read     int `json:"read"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// LoadCSV parses the file at path and adds every valid row to s.
// Rows that fail to parse or validate are skipped with a warning.
func LoadCSV(ctx context.Context, path string, s store, markHot bool, logger *zap.Logger) (Report, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Report{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	offers, rep, err := Parse(f, markHot, logger)
	if err != nil {
		return rep, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(offers) == 0 {
		return rep, nil
	}

	ids, err := s.AddOffers(ctx, offers, markHot)
	if err != nil {
		return rep, fmt.Errorf("add offers from %s: %w", path, err)
	}
	rep.Inserted = len(ids)

	logger.Info("Loaded offers",
		zap.String("path", path),
		zap.Bool("hot", markHot),
		zap.Int("read", rep.Read),
		zap.Int("inserted", rep.Inserted),
		zap.Int("skipped", rep.Skipped),
	)
	return rep, nil
}

// Parse reads offers from CSV with a header row. Inserted is left at zero.
func Parse(r io.Reader, markHot bool, logger *zap.Logger) ([]offer.Offer, Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Report{}, nil
		}
		return nil, Report{}, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, Report{}, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var (
		rep    Report
		offers []offer.Offer
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rep.Read++
		if err != nil {
			logger.Warn("Skipping malformed CSV row", zap.Int("row", rep.Read), zap.Error(err))
			rep.Skipped++
			continue
		}

		o, err := parseRow(record, cols, markHot)
		if err == nil {
			err = o.Validate()
		}
		if err != nil {
			logger.Warn("Skipping invalid offer row", zap.Int("row", rep.Read), zap.Error(err))
			rep.Skipped++
			continue
		}
		offers = append(offers, o)
	}
	return offers, rep, nil
}

func parseRow(record []string, cols map[string]int, hot bool) (offer.Offer, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var (
		o   = offer.Offer{Hot: hot}
		err error
	)
	o.VendorID = get(colVendorID)
	o.Title = get(colTitle)
	o.City = get(colCity)
	o.Occasion = offer.SplitList(get(colOccasion))
	o.Tags = offer.SplitList(get(colTags))
	o.UpdatedAt = get(colUpdatedAt)
	o.Description = get(colDescription)

	if o.HeadcountMin, err = parseInt(colHeadcountMin, get(colHeadcountMin)); err != nil {
		return o, err
	}
	if o.HeadcountMax, err = parseInt(colHeadcountMax, get(colHeadcountMax)); err != nil {
		return o, err
	}
	if o.PriceMin, err = parseFloat(colPriceMin, get(colPriceMin)); err != nil {
		return o, err
	}
	if o.PriceMax, err = parseFloat(colPriceMax, get(colPriceMax)); err != nil {
		return o, err
	}
	if v := get(colDurationHours); v != "" {
		if o.DurationHours, err = parseFloat(colDurationHours, v); err != nil {
			return o, err
		}
	}
	return o, nil
}

// parseInt accepts integral values written as floats ("25.0").
func parseInt(name, v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%s: invalid integer %q", name, v)
	}
	return int(f), nil
}

func parseFloat(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", name, v)
	}
	return f, nil
}
