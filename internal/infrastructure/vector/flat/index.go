// Package flat stores L2-normalized document vectors in a single binary
// file and answers exact inner-product queries over it.
//
// File layout, little endian:
//
//	magic   [4]byte "MAVX"
//	version uint32
//	dim     uint32
//	count   uint32
//	model   uint16 length + bytes
//	rows    count*dim float32
package flat

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/storage/localfs"
)

const (
	FileName = "vectors.bin"

	formatVersion uint32 = 1
	maxDimension         = 1 << 16
)

var magic = [4]byte{'M', 'A', 'V', 'X'}

type Index struct {
	dim   int
	count int
	model string
	data  []float32
}

func Open(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrArtifact, "open vector index", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, domain.WrapError(domain.ErrArtifact, "stat vector index", err)
	}
	idx, err := decode(bufio.NewReader(f), info.Size())
	if err != nil {
		return nil, domain.WrapError(domain.ErrArtifact, "decode vector index", err)
	}
	return idx, nil
}

// decode parses an index of size bytes. The row payload length is checked
// against the header before anything is allocated for it.
func decode(r io.Reader, size int64) (*Index, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if head != magic {
		return nil, errors.New("bad magic")
	}

	var version, dim, count uint32
	for _, field := range []*uint32{&version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
	}
	if version != formatVersion {
		return nil, fmt.Errorf("unsupported version %d", version)
	}
	if dim == 0 || dim > maxDimension {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}

	var modelLen uint16
	if err := binary.Read(r, binary.LittleEndian, &modelLen); err != nil {
		return nil, fmt.Errorf("read model length: %w", err)
	}
	model := make([]byte, modelLen)
	if _, err := io.ReadFull(r, model); err != nil {
		return nil, fmt.Errorf("read model name: %w", err)
	}

	headerLen := int64(len(magic)) + 3*4 + 2 + int64(modelLen)
	payload := int64(dim) * int64(count) * 4
	if size-headerLen != payload {
		return nil, fmt.Errorf("header declares %d vector bytes, file has %d", payload, size-headerLen)
	}

	data := make([]float32, int(dim)*int(count))
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}

	return &Index{
		dim:   int(dim),
		count: int(count),
		model: string(model),
		data:  data,
	}, nil
}

func (i *Index) Len() int       { return i.count }
func (i *Index) Dimension() int { return i.dim }
func (i *Index) Model() string  { return i.model }

// Search scores every row and keeps the best limit hits. Equal scores are
// ordered by position.
func (i *Index) Search(ctx context.Context, query []float32, limit int) ([]domain.VectorHit, error) {
	if len(query) != i.dim {
		return nil, domain.WrapError(domain.ErrInvalidInput, "flat search",
			fmt.Errorf("query dimension %d, index dimension %d", len(query), i.dim))
	}
	if limit <= 0 || i.count == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hits := make([]domain.VectorHit, i.count)
	for pos := 0; pos < i.count; pos++ {
		row := i.data[pos*i.dim : (pos+1)*i.dim]
		var dot float64
		for j, x := range row {
			dot += float64(x) * float64(query[j])
		}
		hits[pos] = domain.VectorHit{Position: pos, Score: dot}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Writer persists vectors as vectors.bin inside an index directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) Write(_ context.Context, _ []domain.Document, vectors [][]float32, model string) error {
	return WriteFile(filepath.Join(w.dir, FileName), vectors, model)
}

func WriteFile(path string, vectors [][]float32, model string) error {
	if len(vectors) == 0 {
		return errors.New("no vectors to write")
	}
	dim := len(vectors[0])
	if dim == 0 || dim > maxDimension {
		return fmt.Errorf("invalid dimension %d", dim)
	}
	if len(model) > math.MaxUint16 {
		return errors.New("model name too long")
	}

	err := localfs.WriteAtomic(path, func(w io.Writer) error {
		var err error
		write := func(v any) {
			if err == nil {
				err = binary.Write(w, binary.LittleEndian, v)
			}
		}
		write(magic)
		write(formatVersion)
		write(uint32(dim))
		write(uint32(len(vectors)))
		write(uint16(len(model)))
		write([]byte(model))
		for n, v := range vectors {
			if len(v) != dim {
				return fmt.Errorf("vector %d has dimension %d, expected %d", n, len(v), dim)
			}
			write(v)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("write vector index: %w", err)
	}
	return nil
}
