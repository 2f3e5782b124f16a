package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultEndpoint       = "http://127.0.0.1:8844/embed"
	DefaultModelName      = "ko-sroberta-multitask"
	DefaultDimensions     = 768
	DefaultMaxLength      = 512
	DefaultRequestTimeout = 45 * time.Second

	// Guard against division by zero when a combined vector is all zeros
	// (empty title and description both embed to nothing).
	normEpsilon = 1e-8
)

type Options struct {
	Endpoint       string
	ModelName      string
	Dimensions     int
	MaxLength      int
	RequestTimeout time.Duration
}

// Pair is one article's text inputs in fetch order.
type Pair struct {
	Title       string
	Description string
}

// Service turns (title, description) pairs into unit-normalized row vectors
// by calling an external embedding HTTP service. The HTTP client is created
// lazily on first use and released by Close; the service is not safe for
// concurrent calls.
type Service struct {
	opts   Options
	logger zerolog.Logger

	client *http.Client
}

func NewService(opts Options, logger zerolog.Logger) *Service {
	return &Service{
		opts:   normalizeOptions(opts),
		logger: logger,
	}
}

// EmbedArticles returns one L2-normalized row per pair. Titles and
// descriptions are embedded separately and combined as
// titleWeight*title + descriptionWeight*description; the weights need not
// sum to 1. An empty input returns an empty matrix without any HTTP call.
func (s *Service) EmbedArticles(ctx context.Context, pairs []Pair, titleWeight, descriptionWeight float64) (*mat.Dense, error) {
	if s == nil {
		return nil, fmt.Errorf("embedding service is not initialized")
	}
	if titleWeight < 0 || descriptionWeight < 0 {
		return nil, fmt.Errorf("embedding weights must not be negative: title=%f description=%f", titleWeight, descriptionWeight)
	}
	if titleWeight == 0 && descriptionWeight == 0 {
		return nil, fmt.Errorf("embedding weights must not both be zero")
	}
	if len(pairs) == 0 {
		return &mat.Dense{}, nil
	}

	titles := make([]string, len(pairs))
	descriptions := make([]string, len(pairs))
	for i, pair := range pairs {
		titles[i] = pair.Title
		descriptions[i] = pair.Description
	}

	titleVectors, err := s.requestEmbeddings(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("embed titles: %w", err)
	}
	descriptionVectors, err := s.requestEmbeddings(ctx, descriptions)
	if err != nil {
		return nil, fmt.Errorf("embed descriptions: %w", err)
	}

	dims := s.opts.Dimensions
	combined := mat.NewDense(len(pairs), dims, nil)
	for i := range pairs {
		norm := 0.0
		row := combined.RawRowView(i)
		for j := 0; j < dims; j++ {
			v := titleWeight*titleVectors[i][j] + descriptionWeight*descriptionVectors[i][j]
			row[j] = v
			norm += v * v
		}
		norm = math.Sqrt(norm) + normEpsilon
		for j := 0; j < dims; j++ {
			row[j] /= norm
		}
	}

	s.logger.Debug().
		Int("articles", len(pairs)).
		Int("dimensions", dims).
		Msg("generated combined embeddings")
	return combined, nil
}

// Close releases the lazily created HTTP client resources.
func (s *Service) Close() {
	if s == nil || s.client == nil {
		return
	}
	s.client.CloseIdleConnections()
	s.client = nil
}

func (s *Service) httpClient() *http.Client {
	if s.client == nil {
		s.client = &http.Client{}
	}
	return s.client
}

type embedRequest struct {
	Texts     []string `json:"texts,omitempty"`
	Input     []string `json:"input,omitempty"`
	MaxLength int      `json:"max_length,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Data       []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (s *Service) requestEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	payload := embedRequest{
		Texts:     texts,
		MaxLength: s.opts.MaxLength,
	}

	parsedEndpoint, err := url.Parse(s.opts.Endpoint)
	if err == nil && strings.HasSuffix(parsedEndpoint.Path, "/v1/embeddings") {
		payload = embedRequest{
			Input: texts,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	requestCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, s.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding service status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	vectors := parsed.Embeddings
	if len(vectors) == 0 && len(parsed.Data) > 0 {
		sort.Slice(parsed.Data, func(i, j int) bool {
			return parsed.Data[i].Index < parsed.Data[j].Index
		})
		vectors = make([][]float64, 0, len(parsed.Data))
		for _, row := range parsed.Data {
			vectors = append(vectors, row.Embedding)
		}
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding response count mismatch: requested=%d returned=%d", len(texts), len(vectors))
	}
	for i, vector := range vectors {
		if len(vector) != s.opts.Dimensions {
			return nil, fmt.Errorf("embedding row %d: expected %d dimensions, got %d", i, s.opts.Dimensions, len(vector))
		}
		for j, value := range vector {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return nil, fmt.Errorf("embedding row %d has non-finite value at index %d", i, j)
			}
		}
	}

	return vectors, nil
}

func normalizeOptions(opts Options) Options {
	normalized := opts
	if strings.TrimSpace(normalized.Endpoint) == "" {
		normalized.Endpoint = DefaultEndpoint
	}
	normalized.Endpoint = normalizeEndpoint(normalized.Endpoint)
	if strings.TrimSpace(normalized.ModelName) == "" {
		normalized.ModelName = DefaultModelName
	}
	if normalized.Dimensions <= 0 {
		normalized.Dimensions = DefaultDimensions
	}
	if normalized.MaxLength <= 0 {
		normalized.MaxLength = DefaultMaxLength
	}
	if normalized.RequestTimeout <= 0 {
		normalized.RequestTimeout = DefaultRequestTimeout
	}
	return normalized
}

func normalizeEndpoint(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultEndpoint
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	if parsed.Path == "" || parsed.Path == "/" {
		parsed.Path = "/embed"
	}
	return parsed.String()
}
