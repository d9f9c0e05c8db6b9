package rangelib

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultInternCacheSize is a number of distinct locations which are
// deduplicated while building a table.
const DefaultInternCacheSize = 16384

// Column layout of the dataset row. Column 3 is a country name in
// ip2location-like datasets and is ignored.
const (
	columnStart = iota
	columnEnd
	columnCountry
	_
	columnRegion
	columnCity

	columnsRequired
)

// BuildStats describes what a builder has done.
type BuildStats struct {
	Rows     int
	Ranges   int
	Filtered int
	Sorted   bool
}

type lineReporter interface {
	Line() int
}

// TableBuilder converts raw dataset rows into a RangeTable.
//
// Rows have to be: start, end, country, <ignored>, region, city where
// start and end are decimal uint32 numbers. Any row which cannot be
// parsed fails the whole build: there are no partial tables.
//
// Rows are expected to come sorted by start. If they are not, the
// builder sorts them and emits a warning. Overlapping ranges are
// rejected with DataError because binary search cannot work with them.
type TableBuilder struct {
	// Name is a dataset name used in log messages.
	Name string

	// Filter is an optional allow-list of countries. An empty but
	// non-nil filter is ignored with a warning.
	Filter CountryFilter

	Logger          Logger
	InternCacheSize int
}

// Build reads all rows from the source and builds a table.
func (b TableBuilder) Build(src RowSource) (*RangeTable, BuildStats, error) {
	stats := BuildStats{}
	logger := b.logger()
	filter := b.Filter

	if filter != nil && len(filter) == 0 {
		logger.LoadWarning(b.Name, "country filter is empty, filter will be ignored")

		filter = nil
	}

	if unknown := filter.Unknown(); len(unknown) > 0 {
		logger.LoadWarning(b.Name,
			"country filter has values which are not ISO3166 codes: "+strings.Join(unknown, ", "))
	}

	interner, err := newLocationInterner(b.InternCacheSize)
	if err != nil {
		return nil, stats, fmt.Errorf("cannot create location cache: %w", err)
	}

	ranges := []IPRange{}

	for {
		row, err := src.Read()

		switch {
		case err == io.EOF:
			return b.finish(ranges, stats)
		case errors.Is(err, ErrData):
			return nil, stats, err
		case err != nil:
			return nil, stats, &SourceError{Source: b.Name, Err: err}
		}

		stats.Rows++

		rng, dataErr := parseRow(row)
		if dataErr != nil {
			dataErr.Line = stats.Rows

			if reporter, ok := src.(lineReporter); ok {
				dataErr.Line = reporter.Line()
			}

			return nil, stats, dataErr
		}

		if !filter.Allows(rng.Country) {
			stats.Filtered++

			continue
		}

		ranges = append(ranges, interner.intern(rng))
	}
}

func (b TableBuilder) finish(ranges []IPRange, stats BuildStats) (*RangeTable, BuildStats, error) {
	less := func(i, j int) bool {
		return ranges[i].Start < ranges[j].Start
	}

	if !sort.SliceIsSorted(ranges, less) {
		b.logger().LoadWarning(b.Name, "ranges are not sorted by start address, sorting")
		sort.SliceStable(ranges, less)

		stats.Sorted = true
	}

	for i := 1; i < len(ranges); i++ {
		if prev, current := &ranges[i-1], &ranges[i]; current.Start <= prev.End {
			return nil, stats, &DataError{
				Message: fmt.Sprintf("range %s-%s overlaps with %s-%s",
					FormatIPv4(current.Start), FormatIPv4(current.End),
					FormatIPv4(prev.Start), FormatIPv4(prev.End)),
			}
		}
	}

	stats.Ranges = len(ranges)

	return &RangeTable{ranges: ranges}, stats, nil
}

func (b TableBuilder) logger() Logger {
	if b.Logger == nil {
		return NoopLogger{}
	}

	return b.Logger
}

// BuildTable is a shortcut for TableBuilder without logging.
func BuildTable(src RowSource, filter CountryFilter) (*RangeTable, error) {
	table, _, err := TableBuilder{Filter: filter}.Build(src)

	return table, err
}

func parseRow(row []string) (IPRange, *DataError) {
	if len(row) < columnsRequired {
		return IPRange{}, &DataError{
			Message: fmt.Sprintf("expected at least %d columns, got %d", columnsRequired, len(row)),
		}
	}

	start, err := parseBoundary(row[columnStart])
	if err != nil {
		return IPRange{}, &DataError{Message: "incorrect range start", Err: err}
	}

	end, err := parseBoundary(row[columnEnd])
	if err != nil {
		return IPRange{}, &DataError{Message: "incorrect range end", Err: err}
	}

	if start > end {
		return IPRange{}, &DataError{
			Message: fmt.Sprintf("range start %d is greater than range end %d", start, end),
		}
	}

	return IPRange{
		Start:   start,
		End:     end,
		Country: row[columnCountry],
		Region:  row[columnRegion],
		City:    row[columnCity],
	}, nil
}

func parseBoundary(value string) (uint32, error) {
	num, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, err
	}

	return uint32(num), nil
}

// locationInterner makes ranges with the same location share the same
// strings. Real datasets have millions of ranges but only thousands of
// distinct cities.
type locationInterner struct {
	cache *lru.Cache[Location, Location]
}

func (l locationInterner) intern(rng IPRange) IPRange {
	loc := rng.Location()

	if cached, ok := l.cache.Get(loc); ok {
		loc = cached
	} else {
		l.cache.Add(loc, loc)
	}

	rng.Country = loc.Country
	rng.Region = loc.Region
	rng.City = loc.City

	return rng
}

func newLocationInterner(size int) (locationInterner, error) {
	if size <= 0 {
		size = DefaultInternCacheSize
	}

	cache, err := lru.New[Location, Location](size)
	if err != nil {
		return locationInterner{}, err
	}

	return locationInterner{cache: cache}, nil
}
