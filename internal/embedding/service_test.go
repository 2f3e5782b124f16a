package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func newTestService(t *testing.T, endpoint string, dims int) *Service {
	t.Helper()
	return NewService(Options{
		Endpoint:   endpoint,
		Dimensions: dims,
	}, zerolog.Nop())
}

// embedServer answers native-format requests with one fixed vector per text,
// keyed by the text itself.
func embedServer(t *testing.T, vectorsByText map[string][]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts []string `json:"texts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode embed request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		embeddings := make([][]float64, len(req.Texts))
		for i, text := range req.Texts {
			vector, ok := vectorsByText[text]
			if !ok {
				t.Errorf("unexpected text in embed request: %q", text)
			}
			embeddings[i] = vector
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
}

func TestEmbedArticlesCombinesWeightedAndNormalizes(t *testing.T) {
	t.Parallel()

	server := embedServer(t, map[string][]float64{
		"title":       {1, 0, 0},
		"description": {0, 1, 0},
	})
	defer server.Close()

	service := newTestService(t, server.URL, 3)
	defer service.Close()

	vectors, err := service.EmbedArticles(context.Background(), []Pair{
		{Title: "title", Description: "description"},
	}, 0.7, 0.3)
	if err != nil {
		t.Fatalf("embed articles: %v", err)
	}

	rows, cols := vectors.Dims()
	if rows != 1 || cols != 3 {
		t.Fatalf("unexpected dimensions: %dx%d", rows, cols)
	}

	// 0.7*(1,0,0) + 0.3*(0,1,0) normalized.
	norm := math.Sqrt(0.7*0.7 + 0.3*0.3)
	if got := vectors.At(0, 0); math.Abs(got-0.7/norm) > 1e-6 {
		t.Fatalf("unexpected first component: %f", got)
	}
	if got := vectors.At(0, 1); math.Abs(got-0.3/norm) > 1e-6 {
		t.Fatalf("unexpected second component: %f", got)
	}

	length := 0.0
	for j := 0; j < cols; j++ {
		length += vectors.At(0, j) * vectors.At(0, j)
	}
	if math.Abs(length-1) > 1e-6 {
		t.Fatalf("expected unit-length row, got squared norm %f", length)
	}
}

func TestEmbedArticlesAllZeroVectorStaysFinite(t *testing.T) {
	t.Parallel()

	server := embedServer(t, map[string][]float64{
		"": {0, 0, 0},
	})
	defer server.Close()

	service := newTestService(t, server.URL, 3)
	defer service.Close()

	vectors, err := service.EmbedArticles(context.Background(), []Pair{{}}, 0.7, 0.3)
	if err != nil {
		t.Fatalf("embed articles: %v", err)
	}
	for j := 0; j < 3; j++ {
		if v := vectors.At(0, j); math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("expected finite component for zero vector, got %f", v)
		}
	}
}

func TestEmbedArticlesEmptyInputSkipsHTTP(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	service := newTestService(t, server.URL, 3)
	defer service.Close()

	vectors, err := service.EmbedArticles(context.Background(), nil, 0.7, 0.3)
	if err != nil {
		t.Fatalf("embed articles: %v", err)
	}
	rows, _ := vectors.Dims()
	if rows != 0 {
		t.Fatalf("expected empty matrix, got %d rows", rows)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no HTTP calls for empty input, got %d", calls.Load())
	}
}

func TestEmbedArticlesRejectsInvalidWeights(t *testing.T) {
	t.Parallel()

	service := newTestService(t, "http://127.0.0.1:1/embed", 3)
	if _, err := service.EmbedArticles(context.Background(), []Pair{{Title: "t"}}, 0, 0); err == nil {
		t.Fatalf("expected error when both weights are zero")
	}
	if _, err := service.EmbedArticles(context.Background(), []Pair{{Title: "t"}}, -1, 1); err == nil {
		t.Fatalf("expected error for negative weight")
	}
}

func TestEmbedArticlesOpenAIResponseFormat(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Input) == 0 {
			t.Errorf("expected OpenAI-style input field, err=%v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// Out of order on purpose; the client must sort by index.
		fmt.Fprintf(w, `{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`)
	}))
	defer server.Close()

	service := newTestService(t, server.URL+"/v1/embeddings", 2)
	defer service.Close()

	vectors, err := service.EmbedArticles(context.Background(), []Pair{
		{Title: "first"},
		{Title: "second"},
	}, 1, 0)
	if err != nil {
		t.Fatalf("embed articles: %v", err)
	}
	if got := vectors.At(0, 0); math.Abs(got-1) > 1e-6 {
		t.Fatalf("expected index-sorted rows, got first row leading value %f", got)
	}
	if got := vectors.At(1, 1); math.Abs(got-1) > 1e-6 {
		t.Fatalf("expected index-sorted rows, got second row trailing value %f", got)
	}
}

func TestEmbedArticlesResponseValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{name: "count mismatch", body: `{"embeddings":[[1,0],[0,1]]}`},
		{name: "dimension mismatch", body: `{"embeddings":[[1,0,0]]}`},
		{name: "malformed payload", body: `{"embeddings":`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			service := newTestService(t, server.URL, 2)
			defer service.Close()

			if _, err := service.EmbedArticles(context.Background(), []Pair{{Title: "t"}}, 1, 0); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestEmbedArticlesServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	service := newTestService(t, server.URL, 2)
	defer service.Close()

	if _, err := service.EmbedArticles(context.Background(), []Pair{{Title: "t"}}, 1, 0); err == nil {
		t.Fatalf("expected error for 503 response")
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	if got := normalizeEndpoint("http://127.0.0.1:8844"); got != "http://127.0.0.1:8844/embed" {
		t.Fatalf("unexpected endpoint normalization: %q", got)
	}
	if got := normalizeEndpoint("http://127.0.0.1:8844/v1/embeddings"); got != "http://127.0.0.1:8844/v1/embeddings" {
		t.Fatalf("unexpected endpoint normalization for explicit path: %q", got)
	}
	if got := normalizeEndpoint(""); got != DefaultEndpoint {
		t.Fatalf("unexpected default endpoint: %q", got)
	}
}
