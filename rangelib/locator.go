package rangelib

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/9seconds/rangegeo/csvdb"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/afero"
)

const (
	DefaultWorkerPoolSize = 64

	workerPoolExpireTime = time.Minute
)

var errNoSource = errors.New("dataset path is not set")

// LocatorOpts configures a Locator.
type LocatorOpts struct {
	// Source is a path to the dataset. Files with .gz suffix are
	// decompressed on the fly.
	Source string

	// Fs is a filesystem to read Source from. Default is OS filesystem.
	Fs afero.Fs

	// CountryFilter is an optional allow-list of countries. An empty
	// non-nil list is ignored with a warning.
	CountryFilter []string

	// HasHeader skips the first row of the dataset.
	HasHeader bool

	// StrictLoad makes NewLocator fail if dataset cannot be loaded.
	// Otherwise, failure is logged and Locator works with an empty
	// table: it never finds anything. LoadResult tells what has
	// happened.
	StrictLoad bool

	Logger          Logger
	WorkerPoolSize  int
	InternCacheSize int
}

// LoadResult describes an outcome of dataset loading.
type LoadResult struct {
	Source   string
	Ranges   int
	Rows     int
	Filtered int
	Sorted   bool
	Err      error
}

// OK tells if dataset was loaded successfully.
func (l LoadResult) OK() bool {
	return l.Err == nil
}

// Degraded tells if locator has fallen back to an empty table.
func (l LoadResult) Degraded() bool {
	return l.Err != nil
}

func (l LoadResult) MarshalJSON() ([]byte, error) {
	errMessage := ""

	if l.Err != nil {
		errMessage = l.Err.Error()
	}

	rawStruct := struct {
		Source   string `json:"source"`
		OK       bool   `json:"ok"`
		Ranges   int    `json:"ranges"`
		Rows     int    `json:"rows"`
		Filtered int    `json:"filtered"`
		Sorted   bool   `json:"sorted"`
		Error    string `json:"error"`
	}{
		Source:   l.Source,
		OK:       l.OK(),
		Ranges:   l.Ranges,
		Rows:     l.Rows,
		Filtered: l.Filtered,
		Sorted:   l.Sorted,
		Error:    errMessage,
	}

	return json.Marshal(&rawStruct)
}

// Locator resolves IPv4 addresses into locations using a range table
// which is loaded once on creation. All lookup methods are safe for
// concurrent use.
type Locator struct {
	table      *RangeTable
	loadResult LoadResult
	logger     Logger
	usageStats *UsageStats
	workerPool *ants.PoolWithFunc
	rwmutex    sync.RWMutex
	closeOnce  sync.Once
	closed     bool
}

// Table returns a range table locator works with.
func (l *Locator) Table() *RangeTable {
	return l.table
}

func (l *Locator) LoadResult() LoadResult {
	return l.loadResult
}

func (l *Locator) UsageStats() *UsageStats {
	return l.usageStats
}

// Resolve finds a range for the dotted-quad address. Unlike Lookup,
// it returns ParseError for malformed input so callers can
// distinguish it from absent match.
func (l *Locator) Resolve(ip string) (IPRange, bool, error) {
	num, err := ParseIPv4(ip)
	if err != nil {
		l.usageStats.Used(false, err)

		return IPRange{}, false, err
	}

	rng, ok := l.locate(num)

	return rng, ok, nil
}

// Lookup finds a location of the dotted-quad address. Malformed
// addresses are logged and reported as no match.
func (l *Locator) Lookup(ip string) (Location, bool) {
	rng, ok, err := l.Resolve(ip)
	if err != nil {
		l.logger.LookupError(ip, err)
	}

	return rng.Location(), ok
}

// LookupIPv4 finds a location of the address given as 4 octets in
// network order.
func (l *Locator) LookupIPv4(ip [4]byte) (Location, bool) {
	rng, ok := l.locate(IPv4FromBytes(ip))

	return rng.Location(), ok
}

// LookupIP finds a location of the IPv4 (or IPv4-mapped IPv6)
// address. Other IPv6 addresses are never found.
func (l *Locator) LookupIP(ip net.IP) (Location, bool) {
	v4 := ip.To4()
	if v4 == nil {
		err := &ParseError{Input: ip.String(), Err: errNotIPv4}

		l.usageStats.Used(false, err)
		l.logger.LookupError(ip.String(), err)

		return Location{}, false
	}

	return l.LookupIPv4([4]byte{v4[0], v4[1], v4[2], v4[3]})
}

// ResolveAll resolves a batch of addresses using a worker pool.
// Results have the same order as ips.
func (l *Locator) ResolveAll(ctx context.Context, ips []string) ([]ResolveResult, error) {
	l.rwmutex.RLock()
	defer l.rwmutex.RUnlock()

	if l.closed {
		return nil, ErrLocatorShutdown
	}

	rv := make([]ResolveResult, len(ips))
	groupRequest := newPoolGroupRequest(ctx, l.workerPool)

	for i := range ips {
		if err := groupRequest.Do(ips[i], &rv[i]); err != nil {
			groupRequest.Wait()

			return nil, err
		}
	}

	groupRequest.Wait()

	return rv, nil
}

// Shutdown releases worker pool. Single lookups still work after
// shutdown, batches do not.
func (l *Locator) Shutdown() {
	l.rwmutex.Lock()
	defer l.rwmutex.Unlock()

	l.closed = true

	l.closeOnce.Do(func() {
		l.workerPool.Release()
	})
}

func (l *Locator) locate(ip uint32) (IPRange, bool) {
	rng, ok := l.table.Locate(ip)

	l.usageStats.Used(ok, nil)

	return rng, ok
}

func (l *Locator) resolveIP(args interface{}) {
	req := args.(*resolveIPRequest)
	defer req.wg.Done()

	rng, ok, err := l.Resolve(req.ip)

	*req.result = newResolveResult(req.ip, rng, ok, err)
}

// NewLocator loads a dataset and creates a new Locator.
func NewLocator(opts LocatorOpts) (*Locator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = NoopLogger{}
	}

	table, result := loadTable(opts, logger)

	if result.Err != nil {
		logger.LoadError(opts.Source, result.Err)

		if opts.StrictLoad {
			return nil, result.Err
		}

		table = &RangeTable{}
	} else {
		logger.LoadInfo(opts.Source,
			fmt.Sprintf("dataset was loaded: %d ranges, %d filtered out", result.Ranges, result.Filtered))
	}

	rv := &Locator{
		table:      table,
		loadResult: result,
		logger:     logger,
		usageStats: &UsageStats{Name: opts.Source},
	}

	rv.usageStats.Loaded(table.Len())

	poolSize := opts.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = DefaultWorkerPoolSize
	}

	pool, err := ants.NewPoolWithFunc(poolSize, rv.resolveIP,
		ants.WithExpiryDuration(workerPoolExpireTime))
	if err != nil {
		return nil, fmt.Errorf("cannot create a worker pool: %w", err)
	}

	rv.workerPool = pool

	return rv, nil
}

// LookupFile reads a dataset and finds a location of the given
// address. The dataset is parsed on each call so this is only for
// one-shot usage: long-living services should use Locator.
func LookupFile(logger Logger, path, ip string) (Location, bool) {
	return lookupFile(logger, LocatorOpts{Source: path}, ip)
}

// LookupFileFiltered is LookupFile with a country allow-list.
func LookupFileFiltered(logger Logger, path, ip string, countries []string) (Location, bool) {
	if countries == nil {
		countries = []string{}
	}

	return lookupFile(logger, LocatorOpts{Source: path, CountryFilter: countries}, ip)
}

func lookupFile(logger Logger, opts LocatorOpts, ip string) (Location, bool) {
	if logger == nil {
		logger = NoopLogger{}
	}

	num, err := ParseIPv4(ip)
	if err != nil {
		logger.LookupError(ip, err)

		return Location{}, false
	}

	table, result := loadTable(opts, logger)
	if result.Err != nil {
		logger.LoadError(opts.Source, result.Err)

		return Location{}, false
	}

	rng, ok := table.Locate(num)

	return rng.Location(), ok
}

func loadTable(opts LocatorOpts, logger Logger) (*RangeTable, LoadResult) {
	result := LoadResult{Source: opts.Source}

	if opts.Source == "" {
		result.Err = &SourceError{Err: errNoSource}

		return nil, result
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	fp, err := csvdb.Open(fs, opts.Source)
	if err != nil {
		result.Err = &SourceError{Source: opts.Source, Err: err}

		return nil, result
	}

	defer fp.Close()

	source := datasetRowSource{
		CSVReader: csvdb.NewCSVReader(fp),
	}

	if opts.HasHeader {
		_, err := source.Read()

		switch {
		case err == nil, err == io.EOF:
		case errors.Is(err, ErrData):
			result.Err = err

			return nil, result
		default:
			result.Err = &SourceError{Source: opts.Source, Err: err}

			return nil, result
		}
	}

	builder := TableBuilder{
		Name:            opts.Source,
		Filter:          NewCountryFilter(opts.CountryFilter),
		Logger:          logger,
		InternCacheSize: opts.InternCacheSize,
	}

	table, stats, err := builder.Build(source)

	result.Rows = stats.Rows
	result.Ranges = stats.Ranges
	result.Filtered = stats.Filtered
	result.Sorted = stats.Sorted
	result.Err = err

	return table, result
}

// datasetRowSource reports malformed CSV as DataError: the file was
// read but its content is broken.
type datasetRowSource struct {
	*csvdb.CSVReader
}

func (d datasetRowSource) Read() ([]string, error) {
	row, err := d.CSVReader.Read()

	var parseErr *csv.ParseError

	if errors.As(err, &parseErr) {
		return nil, &DataError{
			Line:    parseErr.Line,
			Message: "malformed csv",
			Err:     parseErr.Err,
		}
	}

	return row, err
}
