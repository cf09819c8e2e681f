package sdb

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// dbMetrics counts the operations served by a DB. Each DB owns its set, so
// several databases can run in one process.
type dbMetrics struct {
	set     *metrics.Set
	reads   *metrics.Counter
	writes  *metrics.Counter
	deletes *metrics.Counter
	lists   *metrics.Counter
	errors  *metrics.Counter
}

func newDBMetrics(db *DB) *dbMetrics {
	set := metrics.NewSet()
	m := &dbMetrics{
		set:     set,
		reads:   set.NewCounter("sdb_reads_total"),
		writes:  set.NewCounter("sdb_writes_total"),
		deletes: set.NewCounter("sdb_deletes_total"),
		lists:   set.NewCounter("sdb_lists_total"),
		errors:  set.NewCounter("sdb_errors_total"),
	}
	set.NewGauge("sdb_cache_hits", func() float64 {
		return float64(db.cache.Hits())
	})
	set.NewGauge("sdb_cache_misses", func() float64 {
		return float64(db.cache.Misses())
	})
	set.NewGauge("sdb_cache_blobs", func() float64 {
		return float64(db.cache.Len())
	})
	set.NewGauge("sdb_cache_bytes", func() float64 {
		return float64(db.cache.Bytes())
	})
	return m
}

// observe counts err, if any, and returns it unchanged.
func (m *dbMetrics) observe(err error) error {
	if err != nil {
		m.errors.Inc()
	}
	return err
}

// WriteMetrics writes the database metrics to w in the Prometheus text
// exposition format.
func (db *DB) WriteMetrics(w io.Writer) {
	db.metrics.set.WritePrometheus(w)
}
