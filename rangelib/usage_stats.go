package rangelib

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usageStatsLookupsDesc = prometheus.NewDesc(
		"rangegeo_lookups_total",
		"A number of lookups by their outcome.",
		[]string{"dataset", "result"},
		nil)
	usageStatsRangesDesc = prometheus.NewDesc(
		"rangegeo_ranges",
		"A number of ranges in a loaded table.",
		[]string{"dataset"},
		nil)
	usageStatsLastLoadedDesc = prometheus.NewDesc(
		"rangegeo_last_loaded_timestamp_seconds",
		"When the dataset was loaded.",
		[]string{"dataset"},
		nil)
)

// UsageStats tracks how a locator is used. It can be marshalled into
// JSON and registered as a prometheus collector.
type UsageStats struct {
	Name string

	mutex        sync.Mutex
	lastLoaded   time.Time
	lastUsed     time.Time
	ranges       int
	hitCount     uint64
	missCount    uint64
	invalidCount uint64
}

// Used registers a lookup. err is an error of address parsing.
func (u *UsageStats) Used(found bool, err error) {
	now := time.Now()

	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.lastUsed = now

	switch {
	case err != nil:
		u.invalidCount++
	case found:
		u.hitCount++
	default:
		u.missCount++
	}
}

// Loaded registers a table load.
func (u *UsageStats) Loaded(ranges int) {
	now := time.Now()

	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.lastLoaded = now
	u.ranges = ranges
}

func (u *UsageStats) MarshalJSON() ([]byte, error) {
	var lastLoadedTime, lastUsedTime int64

	u.mutex.Lock()

	if !u.lastLoaded.IsZero() {
		lastLoadedTime = u.lastLoaded.Unix()
	}

	if !u.lastUsed.IsZero() {
		lastUsedTime = u.lastUsed.Unix()
	}

	rawStruct := struct {
		Name         string `json:"name"`
		LastLoaded   int64  `json:"last_loaded"`
		LastUsed     int64  `json:"last_used"`
		Ranges       int    `json:"ranges"`
		HitCount     uint64 `json:"hit_count"`
		MissCount    uint64 `json:"miss_count"`
		InvalidCount uint64 `json:"invalid_count"`
	}{
		Name:         u.Name,
		LastLoaded:   lastLoadedTime,
		LastUsed:     lastUsedTime,
		Ranges:       u.ranges,
		HitCount:     u.hitCount,
		MissCount:    u.missCount,
		InvalidCount: u.invalidCount,
	}

	u.mutex.Unlock()

	return json.Marshal(&rawStruct)
}

func (u *UsageStats) Describe(ch chan<- *prometheus.Desc) {
	ch <- usageStatsLookupsDesc
	ch <- usageStatsRangesDesc
	ch <- usageStatsLastLoadedDesc
}

func (u *UsageStats) Collect(ch chan<- prometheus.Metric) {
	u.mutex.Lock()

	hits := float64(u.hitCount)
	misses := float64(u.missCount)
	invalids := float64(u.invalidCount)
	ranges := float64(u.ranges)
	lastLoaded := float64(0)

	if !u.lastLoaded.IsZero() {
		lastLoaded = float64(u.lastLoaded.Unix())
	}

	u.mutex.Unlock()

	ch <- prometheus.MustNewConstMetric(usageStatsLookupsDesc, prometheus.CounterValue, hits, u.Name, "hit")
	ch <- prometheus.MustNewConstMetric(usageStatsLookupsDesc, prometheus.CounterValue, misses, u.Name, "miss")
	ch <- prometheus.MustNewConstMetric(usageStatsLookupsDesc, prometheus.CounterValue, invalids, u.Name, "invalid")
	ch <- prometheus.MustNewConstMetric(usageStatsRangesDesc, prometheus.GaugeValue, ranges, u.Name)
	ch <- prometheus.MustNewConstMetric(usageStatsLastLoadedDesc, prometheus.GaugeValue, lastLoaded, u.Name)
}
