package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

const upsertBatchSize = 256

// Client serves the document index from a Qdrant collection. Point IDs are
// document positions in docs.jsonl.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	count atomic.Int64
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Write recreates the collection and upserts one point per document.
func (c *Client) Write(ctx context.Context, docs []domain.Document, vectors [][]float32, model string) error {
	if len(vectors) == 0 {
		return nil
	}
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs/vectors mismatch: %d/%d", len(docs), len(vectors))
	}

	if err := c.recreateCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      int            `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	for start := 0; start < len(docs); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(docs))
		points := make([]point, 0, end-start)
		for pos := start; pos < end; pos++ {
			doc := docs[pos]
			points = append(points, point{
				ID:     pos,
				Vector: vectors[pos],
				Payload: map[string]any{
					"doc_id":        doc.ID,
					"position":      pos,
					"program_title": doc.Meta.ProgramTitle,
					"section":       string(doc.Meta.Section),
					"model":         model,
				},
			})
		}

		url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
		if err := c.do(ctx, http.MethodPut, url, map[string]any{"points": points}, nil, "upsert"); err != nil {
			return err
		}
	}
	c.count.Store(int64(len(docs)))
	return nil
}

func (c *Client) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.VectorHit, error) {
	if limit <= 0 {
		return nil, nil
	}
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": []string{"position"},
	}

	var searchResp struct {
		Result []struct {
			ID      json.Number    `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.VectorHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		pos, ok := positionOf(r.ID, r.Payload)
		if !ok {
			continue
		}
		out = append(out, domain.VectorHit{Position: pos, Score: r.Score})
	}
	return out, nil
}

// Len reports the point count seen by the last Count or Write.
func (c *Client) Len() int {
	return int(c.count.Load())
}

// Count asks Qdrant for the exact number of points in the collection.
func (c *Client) Count(ctx context.Context) (int, error) {
	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/count", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, map[string]any{"exact": true}, &countResp, "count"); err != nil {
		return 0, err
	}
	c.count.Store(int64(countResp.Result.Count))
	return countResp.Result.Count, nil
}

func (c *Client) recreateCollection(ctx context.Context, vectorSize int) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create drop collection request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant drop collection request: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("qdrant drop collection status: %s", resp.Status)
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Dot",
		},
	}
	return c.do(ctx, http.MethodPut, url, reqBody, nil, "ensure collection")
}

func (c *Client) do(ctx context.Context, method, url string, reqBody any, out any, op string) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "qdrant "+op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := fmt.Errorf("qdrant %s status: %s", op, resp.Status)
		if text := strings.TrimSpace(string(msg)); text != "" {
			statusErr = fmt.Errorf("qdrant %s status: %s: %s", op, resp.Status, text)
		}
		if resp.StatusCode >= 500 {
			return domain.WrapError(domain.ErrTemporary, "qdrant "+op, statusErr)
		}
		return statusErr
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func positionOf(id json.Number, payload map[string]any) (int, bool) {
	if v, ok := payload["position"]; ok {
		switch p := v.(type) {
		case json.Number:
			if n, err := p.Int64(); err == nil {
				return int(n), true
			}
		case float64:
			return int(p), true
		}
	}
	if n, err := id.Int64(); err == nil {
		return int(n), true
	}
	return 0, false
}
