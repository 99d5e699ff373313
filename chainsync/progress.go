package chainsync

import "time"

// progressMeter mirrors the StopWatch/RepeatedMeasure pair the
// original sync_pow.cpp uses to log download throughput: a running
// start time plus the block number at the previous sample, so each
// batch can report how many blocks landed since the last log line.
type progressMeter struct {
	start    time.Time
	previous uint64
	current  uint64
}

func newProgressMeter(initial uint64) *progressMeter {
	return &progressMeter{start: time.Now(), previous: initial, current: initial}
}

func (m *progressMeter) update(current uint64) {
	m.previous = m.current
	m.current = current
}

func (m *progressMeter) delta() uint64 {
	if m.current < m.previous {
		return 0
	}
	return m.current - m.previous
}

func (m *progressMeter) elapsed() time.Duration {
	return time.Since(m.start)
}
