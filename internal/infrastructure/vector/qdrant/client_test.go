package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

func TestWriteRecreatesCollectionAndUpsertsPositions(t *testing.T) {
	var drops, creates int32
	var upserted []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/collections/docs":
			atomic.AddInt32(&drops, 1)
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
			atomic.AddInt32(&creates, 1)
			var body struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Vectors.Size != 2 || body.Vectors.Distance != "Dot" {
				t.Errorf("unexpected collection config %+v", body.Vectors)
			}
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs/points":
			var body struct {
				Points []struct {
					ID int `json:"id"`
				} `json:"points"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			for _, p := range body.Points {
				upserted = append(upserted, p.ID)
			}
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	docs := []domain.Document{{ID: "a"}, {ID: "b"}}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.Write(context.Background(), docs, vectors, "nomic-embed-text"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if drops != 1 || creates != 1 {
		t.Fatalf("expected one drop and one create, got %d/%d", drops, creates)
	}
	if len(upserted) != 2 || upserted[0] != 0 || upserted[1] != 1 {
		t.Fatalf("unexpected upserted ids %v", upserted)
	}
	if client.Len() != 2 {
		t.Fatalf("expected Len()=2, got %d", client.Len())
	}
}

func TestSearchMapsPositions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/docs/points/search" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"result":[{"id":3,"score":0.91,"payload":{"position":3}},{"id":1,"score":0.5,"payload":{}}]}`))
	}))
	defer server.Close()

	hits, err := New(server.URL, "docs").Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 || hits[0].Position != 3 || hits[1].Position != 1 {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if hits[0].Score != 0.91 {
		t.Fatalf("unexpected score %v", hits[0].Score)
	}
}

func TestCountAndServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections/docs/points/count":
			_, _ = w.Write([]byte(`{"result":{"count":42}}`))
		case "/collections/docs/points/search":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	n, err := client.Count(context.Background())
	if err != nil || n != 42 || client.Len() != 42 {
		t.Fatalf("unexpected count %d err=%v", n, err)
	}

	_, err = client.Search(context.Background(), []float32{1}, 1)
	if !domain.IsKind(err, domain.ErrTemporary) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected temporary error with body, got %v", err)
	}
}
