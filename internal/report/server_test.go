package report

import (
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/MishaK15/SmartSparse/internal/config"
	"github.com/MishaK15/SmartSparse/internal/experiment"
	"github.com/MishaK15/SmartSparse/internal/nn"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.json")
	res := &experiment.Results{
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Model:     nn.Config{VocabSize: 10, ContextSize: 4, EmbedDim: 8, HiddenDim: 16, HiddenLayers: 1},
		Summaries: []experiment.SeedSummary{
			{Label: "smartsparse", Seeds: 5, MeanPruned: 12.5, CILow: 11.0, CIHigh: 14.0},
			{Label: "sap", Seeds: 5, MeanPruned: 15.2, CILow: 13.5, CIHigh: 16.9},
		},
	}
	if err := experiment.SaveResults(path, res); err != nil {
		t.Fatalf("seed results: %v", err)
	}
	return NewServer(&config.ReportServerEnvConfig{ReportHost: "127.0.0.1", ReportPort: 0}, path)
}

func decodeResponse[T any](t *testing.T, body io.Reader) StdResponse[T] {
	t.Helper()
	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var resp StdResponse[T]
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal response: %v (%s)", err, raw)
	}
	return resp
}

func TestHealth(t *testing.T) {
	s := testServer(t)
	resp, err := s.App.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeResponse[string](t, resp.Body)
	if body.Body != "ok" || body.Error != nil {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetResults(t *testing.T) {
	s := testServer(t)
	resp, err := s.App.Test(httptest.NewRequest("GET", "/results", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	body := decodeResponse[experiment.Results](t, resp.Body)
	if body.Error != nil {
		t.Fatalf("unexpected error: %s", *body.Error)
	}
	if len(body.Body.Summaries) != 2 || body.Body.Model.VocabSize != 10 {
		t.Fatalf("unexpected results: %+v", body.Body)
	}
}

func TestGetSummaries(t *testing.T) {
	s := testServer(t)
	resp, err := s.App.Test(httptest.NewRequest("GET", "/results/summaries", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body := decodeResponse[[]experiment.SeedSummary](t, resp.Body)
	if len(body.Body) != 2 || body.Body[0].Label != "smartsparse" {
		t.Fatalf("unexpected summaries: %+v", body.Body)
	}
}

func TestGetSummaryByLabel(t *testing.T) {
	s := testServer(t)
	resp, err := s.App.Test(httptest.NewRequest("GET", "/results/summaries/sap", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeResponse[experiment.SeedSummary](t, resp.Body)
	if body.Body.Label != "sap" || body.Body.MeanPruned != 15.2 {
		t.Fatalf("unexpected summary: %+v", body.Body)
	}
}

func TestGetSummaryUnknownLabel(t *testing.T) {
	s := testServer(t)
	resp, err := s.App.Test(httptest.NewRequest("GET", "/results/summaries/nope", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	body := decodeResponse[map[string]interface{}](t, resp.Body)
	if body.Error == nil {
		t.Fatal("expected error in response envelope")
	}
}

func TestGetResultsInitializesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	s := NewServer(&config.ReportServerEnvConfig{ReportHost: "127.0.0.1", ReportPort: 0}, path)

	resp, err := s.App.Test(httptest.NewRequest("GET", "/results", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeResponse[experiment.Results](t, resp.Body)
	if len(body.Body.Summaries) != 0 {
		t.Fatalf("expected empty summaries, got %+v", body.Body.Summaries)
	}
}
