package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raggify/raggify-go/internal/metadata"
)

// Backend embeds a batch of modality-appropriate inputs — text strings for
// Text, local file paths for Image/Audio/Video — returning one vector per
// input, order preserved, or failing atomically with no partial results.
// Implementations must be safe for concurrent use.
type Backend interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	// Dimension returns the fixed output vector size this backend produces.
	Dimension() int
}

// Container holds one modality's resolved backend plus the batching
// parameters and derived space key used to namespace its stores.
type Container struct {
	Modality  metadata.Modality
	Provider  string
	Model     string
	SpaceKey  string
	Dim       int
	Backend   Backend
	BatchSize int
	// Concurrency bounds how many batches run in parallel for this container.
	Concurrency int
	// BatchInterval enforces a delay between successive batch submissions,
	// honoring provider rate limits.
	BatchInterval time.Duration
}

// Manager dispatches Embed calls to the correct per-modality Container,
// enforcing the uniform batching contract across modalities.
type Manager struct {
	mu         sync.RWMutex
	containers map[metadata.Modality]*Container
}

// NewManager constructs an empty Manager. Containers are registered with
// Register, typically by the runtime's build step reading config.
func NewManager() *Manager {
	return &Manager{containers: make(map[metadata.Modality]*Container)}
}

// Register installs the container for its modality, overwriting any
// previous registration — used by runtime.rebuild() to swap backends
// without constructing a new Manager.
func (m *Manager) Register(c *Container) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containers[c.Modality] = c
}

// Container returns the registered container for mod, or nil if none.
func (m *Manager) Container(mod metadata.Modality) *Container {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.containers[mod]
}

// Embed dispatches inputs to mod's backend, validating, batching, and
// running up to Concurrency batches in parallel. Empty input yields empty
// output without calling the backend. A length mismatch between inputs and
// returned vectors for any batch aborts the whole call.
func (m *Manager) Embed(ctx context.Context, mod metadata.Modality, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	c := m.Container(mod)
	if c == nil {
		return nil, newErr(UnsupportedProvider, "Embed", fmt.Errorf("no embed container registered for modality %q", mod))
	}

	if mod == metadata.Text {
		for i, in := range inputs {
			if strings.TrimSpace(in) == "" {
				return nil, newErr(InvalidInput, "Embed", fmt.Errorf("text input %d is empty after trim", i))
			}
		}
	} else {
		for i, in := range inputs {
			if _, err := os.Stat(in); err != nil {
				return nil, newErr(InvalidInput, "Embed", fmt.Errorf("media input %d %q does not exist locally: %w", i, in, err))
			}
		}
	}

	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = 16
	}
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	batches := chunkStrings(inputs, batchSize)
	results := make([][][]float32, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			if c.BatchInterval > 0 {
				select {
				case <-time.After(c.BatchInterval):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			vecs, err := c.Backend.Embed(gctx, batch)
			if err != nil {
				return newErr(BackendFailure, "Embed", err)
			}
			if len(vecs) != len(batch) {
				return newErr(BackendFailure, "Embed", fmt.Errorf("backend returned %d vectors for %d inputs", len(vecs), len(batch)))
			}
			results[i] = vecs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(inputs))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// chunkStrings splits inputs into contiguous slices of at most size each.
func chunkStrings(inputs []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(inputs); start += size {
		end := start + size
		if end > len(inputs) {
			end = len(inputs)
		}
		out = append(out, inputs[start:end])
	}
	return out
}
