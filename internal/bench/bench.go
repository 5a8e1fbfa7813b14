package bench

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/homier/rhmap"
)

// Sample is the timing of a single map operation and the load factor right
// after it.
type Sample struct {
	Duration   time.Duration
	LoadFactor float32
}

type Result struct {
	Keys int
	// Sum of every looked up value.
	Sum int64
	// Lookups that returned something else than what was inserted.
	Mismatches int

	Insert []Sample
	Find   []Sample
	Remove []Sample

	// Peak bytes accounted by the map's allocator.
	PeakMemory uint64
}

// ReadKeys returns one key per line. Lines are cut to maxKeySize-1 bytes,
// matching a fixed read buffer that keeps room for a terminator.
func ReadKeys(r io.Reader, maxKeySize int) ([][]byte, error) {
	var keys [][]byte

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSuffix(line, []byte("\n"))
			if len(line) > maxKeySize-1 {
				line = line[:maxKeySize-1]
			}

			keys = append(keys, line)
		}

		if err == io.EOF {
			return keys, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Run inserts, looks up and removes every key of the configured key file,
// timing each operation, and writes the three CSV reports to the output
// directory.
func Run(cfg Config, logger *zap.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("open key list: %w", err)
	}
	keys, err := ReadKeys(f, cfg.MaxKeySize)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("read key list: %w", err)
	}

	logger.Info("key list loaded", zap.String("file", cfg.KeyFile), zap.Int("keys", len(keys)))

	res, err := Measure(cfg, keys, logger)
	if err != nil {
		return nil, err
	}

	reports := []struct {
		name    string
		samples []Sample
	}{
		{InsertResultFile, res.Insert},
		{FindResultFile, res.Find},
		{RemoveResultFile, res.Remove},
	}

	for _, r := range reports {
		path := filepath.Join(cfg.OutputDir, r.name)
		if err := writeReport(path, r.samples); err != nil {
			return nil, err
		}

		logger.Debug("report written", zap.String("path", path))
	}

	return res, nil
}

// Measure runs the insert, find and remove passes over keys.
func Measure(cfg Config, keys [][]byte, logger *zap.Logger) (*Result, error) {
	hashFunc, err := cfg.HashFunc()
	if err != nil {
		return nil, err
	}

	alloc := rhmap.NewLimitAllocator(cfg.MemoryLimit)
	m, err := rhmap.New(
		rhmap.WithHashFunc[int64](hashFunc),
		rhmap.WithAllocator[int64](alloc),
		rhmap.WithLogger[int64](logger.Named("rhmap")),
	)
	if err != nil {
		return nil, fmt.Errorf("init map: %w", err)
	}
	defer m.Destroy()

	rng := rand.New(rand.NewSource(cfg.Seed))
	values := make([]int64, len(keys))
	for i := range values {
		values[i] = rng.Int63()
	}

	res := &Result{
		Keys:   len(keys),
		Insert: make([]Sample, len(keys)),
		Find:   make([]Sample, len(keys)),
		Remove: make([]Sample, len(keys)),
	}

	set := m.Set
	if cfg.CopyKeys {
		set = m.SetCopy
	}

	for i, key := range keys {
		start := time.Now()
		err := set(key, values[i])
		res.Insert[i] = Sample{Duration: time.Since(start), LoadFactor: m.LoadFactor()}

		if err != nil {
			return nil, fmt.Errorf("insert key %d: %w", i, err)
		}
	}

	for i, key := range keys {
		start := time.Now()
		v, _ := m.Get(key)
		res.Find[i] = Sample{Duration: time.Since(start), LoadFactor: m.LoadFactor()}

		res.Sum += v
		if v != values[i] {
			res.Mismatches++
			logger.Warn("map looked up the wrong value",
				zap.ByteString("key", key),
				zap.Int64("want", values[i]),
				zap.Int64("got", v),
			)
		}
	}

	for i, key := range keys {
		start := time.Now()
		_, err := m.Delete(key)
		res.Remove[i] = Sample{Duration: time.Since(start), LoadFactor: m.LoadFactor()}

		if err != nil {
			// The key is gone, only compaction was skipped.
			logger.Debug("shrink deferred", zap.Int("index", i), zap.Error(err))
		}
	}

	res.PeakMemory = alloc.Peak()

	logger.Info("benchmark done",
		zap.Int("keys", res.Keys),
		zap.Int("mismatches", res.Mismatches),
		zap.Uint64("peak memory", res.PeakMemory),
	)

	return res, nil
}

// WriteSamples writes one "index, nanoseconds, load factor" row per sample.
func WriteSamples(w io.Writer, samples []Sample) error {
	bw := bufio.NewWriter(w)
	for i, s := range samples {
		if _, err := fmt.Fprintf(bw, "%d, %d, %f\n", i, s.Duration.Nanoseconds(), s.LoadFactor); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeReport(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	if err := WriteSamples(f, samples); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}
