package fileimport

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// osSource is the default Source backed by the real filesystem.
type osSource struct {
	path string
}

// NewOSSource returns a Source reading from a real file on disk.
func NewOSSource(path string) Source {
	return &osSource{path: path}
}

func (o *osSource) Stat() (FileStat, error) {
	fi, err := os.Stat(o.path)
	if err != nil {
		return FileStat{}, err
	}
	return FileStat{Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

func (o *osSource) OpenFrom(offset int64) (io.ReadCloser, error) {
	f, err := os.Open(o.path)
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Manager owns the full set of configured seeds, the scheduler that drives
// them, and a shared poll interval for seeds that don't carry their own
// cron expression. This plays the role of fon9::seed::FileImpTree at the
// collection level: spec §3's "file-import tree" is exposed over
// internal/seedtree separately (see Tree in tree.go); Manager is the
// non-seedtree engine underneath it.
type Manager struct {
	mu       sync.RWMutex
	seeds    map[string]*Seed
	monitors map[string]*Monitor
	sched    *Scheduler
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		seeds:    make(map[string]*Seed),
		monitors: make(map[string]*Monitor),
		sched:    NewScheduler(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// AddSeed registers seed, polling it on pollInterval (used when seed.Sch is
// empty) and on seed.Sch's cron expression otherwise.
func (m *Manager) AddSeed(seed *Seed, pollInterval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.seeds[seed.Name]; exists {
		return fmt.Errorf("fileimport: seed %q already registered", seed.Name)
	}
	mon := NewMonitor(seed, pollInterval)
	mon.OnError = func(err error) {
		log.Printf("fileimport: seed %s load error: %v", seed.Name, err)
	}
	m.seeds[seed.Name] = seed
	m.monitors[seed.Name] = mon

	if seed.Sch != "" {
		if err := m.sched.AddSeed(m.ctx, seed.Sch, mon); err != nil {
			return fmt.Errorf("fileimport: bad schedule for seed %q: %w", seed.Name, err)
		}
	} else if pollInterval > 0 {
		go mon.Run(m.ctx)
	}
	return nil
}

// Seed returns the named seed, or nil if not registered.
func (m *Manager) Seed(name string) *Seed {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seeds[name]
}

// Seeds returns all registered seed names.
func (m *Manager) Seeds() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.seeds))
	for name := range m.seeds {
		names = append(names, name)
	}
	return names
}

// Start begins the cron scheduler for any seeds registered with a schedule
// expression.
func (m *Manager) Start() {
	m.sched.Start()
}

// Stop halts the scheduler and any interval-polling goroutines.
func (m *Manager) Stop() {
	m.cancel()
	m.sched.Stop()
}

// LoadAll forces every registered seed to load once, regardless of monitor
// state or schedule, and returns the first error encountered (continuing to
// load the remaining seeds).
func (m *Manager) LoadAll(ctx context.Context) error {
	m.mu.RLock()
	seeds := make([]*Seed, 0, len(m.seeds))
	for _, s := range m.seeds {
		seeds = append(seeds, s)
	}
	m.mu.RUnlock()

	var firstErr error
	for _, s := range seeds {
		if err := s.Reload(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ClearReloadAll resets every seed's AddTail carry-over state and forces a
// fresh load from the start of each file. Used when the importer's
// downstream consumer (e.g. the symbol book) has been cleared and needs a
// full resynchronization.
func (m *Manager) ClearReloadAll(ctx context.Context) error {
	m.mu.RLock()
	seeds := make([]*Seed, 0, len(m.seeds))
	for _, s := range m.seeds {
		seeds = append(seeds, s)
	}
	m.mu.RUnlock()

	var firstErr error
	for _, s := range seeds {
		if err := s.ForceFullReload(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewRosterSeed builds a Seed configured for full-reload parsing of a
// roster-style file (e.g. a symbol master list), where onRow is invoked
// once per non-empty line with the fields split by comma.
func NewRosterSeed(name, fileName string, onRow func(fields []string) error) *Seed {
	seed := NewSeed(name, fileName, MonitorReload, NewOSSource(fileName))
	seed.OnBeforeLoad = func(size int64, mon *MonitorFlag, carry []byte) (Loader, error) {
		return NewDefaultLoader(carry, func(line []byte) error {
			if len(line) == 0 {
				return nil
			}
			return onRow(splitCSVLine(string(line)))
		}), nil
	}
	return seed
}

// NewWatchlistSeed builds a Seed configured for AddTail parsing: it only
// reads bytes appended since the previous cycle, calling onRow once per new
// complete line.
func NewWatchlistSeed(name, fileName string, onRow func(fields []string) error) *Seed {
	seed := NewSeed(name, fileName, MonitorAddTail, NewOSSource(fileName))
	seed.OnBeforeLoad = func(size int64, mon *MonitorFlag, carry []byte) (Loader, error) {
		return NewDefaultLoader(carry, func(line []byte) error {
			if len(line) == 0 {
				return nil
			}
			return onRow(splitCSVLine(string(line)))
		}), nil
	}
	return seed
}

func splitCSVLine(line string) []string {
	var fields []string
	start := 0
	for i := 0; i < len(line); i++ {
		if line[i] == ',' {
			fields = append(fields, line[start:i])
			start = i + 1
		}
	}
	fields = append(fields, line[start:])
	return fields
}
