package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls [][]string
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls = append(e.calls, texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len([]rune(t))), 0.5}
	}
	return out, nil
}

func (e *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func TestEmbeddingCacheServesHits(t *testing.T) {
	next := &countingEmbedder{}
	cache, err := Open("", next, "nomic-embed-text")
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	first, err := cache.Embed(ctx, []string{"учебный план", "стоимость"})
	require.NoError(t, err)

	second, err := cache.Embed(ctx, []string{"стоимость", "новый вопрос", "учебный план"})
	require.NoError(t, err)

	require.Len(t, next.calls, 2)
	assert.Equal(t, []string{"новый вопрос"}, next.calls[1])
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, first[0], second[2])
	assert.Equal(t, []float32{12, 0.5}, second[1])

	q, err := cache.EmbedQuery(ctx, "стоимость")
	require.NoError(t, err)
	assert.Equal(t, first[1], q)
	assert.Len(t, next.calls, 2)
}

func TestEmbeddingCacheKeysByModel(t *testing.T) {
	cache, err := Open("", &countingEmbedder{}, "a")
	require.NoError(t, err)
	defer cache.Close()

	other := &EmbeddingCache{db: cache.db, model: "b"}
	assert.NotEqual(t, cache.key("x"), other.key("x"))
}

func TestEmbeddingCachePropagatesErrors(t *testing.T) {
	cache, err := Open("", &countingEmbedder{err: errors.New("down")}, "m")
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.EmbedQuery(context.Background(), "q")
	assert.Error(t, err)
}

func TestVectorCodec(t *testing.T) {
	v := []float32{1.5, -2, 0}
	got, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
