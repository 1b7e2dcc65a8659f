package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// localBackend is a deterministic, dependency-free Backend: it hashes each
// input to a fixed-dimension unit vector. It is the non-goal-compliant
// default for modalities that have no configured production provider — a
// concrete IMAGE/AUDIO/VIDEO encoder integration is explicitly out of scope.
// It is also the default used by tests that need stable, repeatable vectors
// without a live backend.
type localBackend struct {
	dim int
}

func newLocalBackend(dim int) *localBackend {
	if dim <= 0 {
		dim = 16
	}
	return &localBackend{dim: dim}
}

func (b *localBackend) Dimension() int { return b.dim }

func (b *localBackend) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = hashVector(in, b.dim)
	}
	return out, nil
}

// hashVector derives a deterministic, L2-normalized vector of length dim
// from s by expanding a SHA-256 stream over successive counters.
func hashVector(s string, dim int) []float32 {
	v := make([]float32, dim)
	var sumSq float64
	block := 0
	var digest [32]byte
	for i := 0; i < dim; i++ {
		if i%8 == 0 {
			h := sha256.New()
			h.Write([]byte(s))
			var ctr [4]byte
			binary.BigEndian.PutUint32(ctr[:], uint32(block)) //nolint:gosec // deterministic hashing only
			h.Write(ctr[:])
			copy(digest[:], h.Sum(nil))
			block++
		}
		bits := binary.BigEndian.Uint32(digest[(i%8)*4 : (i%8)*4+4])
		val := float64(bits)/float64(math.MaxUint32)*2 - 1
		v[i] = float32(val)
		sumSq += val * val
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
