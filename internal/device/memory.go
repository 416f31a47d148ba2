package device

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/xerrors"
)

type Operation string

const (
	OperationConnect       Operation = "connect"
	OperationUpload        Operation = "upload"
	OperationSetCurrentArt Operation = "setCurrentArt"
	OperationAvailableArt  Operation = "getAvailableArt"
	OperationDeleteArt     Operation = "deleteArt"
	OperationClose         Operation = "close"
)

// MemoryClient keeps a gallery in process. It backs dry runs and lets
// tests script failures and inspect the calls that were made.
type MemoryClient struct {
	mu        sync.Mutex
	items     []ArtItem
	current   string
	connected bool
	nextID    int
	now       func() time.Time
	failures  map[Operation]error
	calls     []Operation
}

func NewMemoryClient(items ...ArtItem) *MemoryClient {
	return &MemoryClient{
		items:    slices.Clone(items),
		now:      time.Now,
		failures: map[Operation]error{},
	}
}

// WithClock sets the clock used to date uploaded items.
func (m *MemoryClient) WithClock(now func() time.Time) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

// FailOn makes every later call of op return err.
func (m *MemoryClient) FailOn(op Operation, err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
	return m
}

func (m *MemoryClient) record(op Operation) error {
	m.calls = append(m.calls, op)
	return m.failures[op]
}

func (m *MemoryClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OperationConnect); err != nil {
		return err
	}
	m.connected = true
	return nil
}

func (m *MemoryClient) Upload(ctx context.Context, data []byte, options UploadOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OperationUpload); err != nil {
		return "", err
	}
	if !m.connected {
		return "", xerrors.New("not connected")
	}
	if len(data) == 0 {
		return "", xerrors.New("empty image")
	}
	m.nextID++
	item := ArtItem{
		ID:         fmt.Sprintf("MY_F%04d", m.nextID),
		Date:       m.now(),
		MatteType:  options.MatteType,
		MatteColor: options.MatteColor,
		Category:   DefaultArtCategory,
	}
	m.items = append(m.items, item)
	return item.ID, nil
}

func (m *MemoryClient) SetCurrentArt(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OperationSetCurrentArt); err != nil {
		return err
	}
	if !m.connected {
		return xerrors.New("not connected")
	}
	if m.index(id) < 0 {
		return xerrors.Errorf("unknown content id %s", id)
	}
	m.current = id
	return nil
}

func (m *MemoryClient) AvailableArt(ctx context.Context) ([]ArtItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OperationAvailableArt); err != nil {
		return nil, err
	}
	if !m.connected {
		return nil, xerrors.New("not connected")
	}
	return slices.Clone(m.items), nil
}

func (m *MemoryClient) DeleteArt(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OperationDeleteArt); err != nil {
		return err
	}
	if !m.connected {
		return xerrors.New("not connected")
	}
	m.items = slices.DeleteFunc(m.items, func(item ArtItem) bool {
		return slices.Contains(ids, item.ID)
	})
	return nil
}

func (m *MemoryClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OperationClose); err != nil {
		return err
	}
	m.connected = false
	return nil
}

func (m *MemoryClient) index(id string) int {
	return slices.IndexFunc(m.items, func(item ArtItem) bool { return item.ID == id })
}

// Items returns the stored gallery in insertion order.
func (m *MemoryClient) Items() []ArtItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items)
}

func (m *MemoryClient) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Calls returns every operation invoked so far, in order.
func (m *MemoryClient) Calls() []Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

func (m *MemoryClient) Count(op Operation) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}
