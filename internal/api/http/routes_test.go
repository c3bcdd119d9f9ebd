package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

func newTestApp(t *testing.T) (*fiber.App, *store.MemoryStore, *store.LocalStore) {
	t.Helper()

	app := fiber.New()
	history := store.NewMemoryStore(10)
	records := store.NewLocalStore(filepath.Join(t.TempDir(), "weather_data"))
	RegisterRoutes(app, history, records)
	return app, history, records
}

func get(t *testing.T, app *fiber.App, target string) (int, []byte) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, body
}

func TestLatestRun(t *testing.T) {
	app, history, _ := newTestApp(t)

	if code, _ := get(t, app, "/api/v1/runs/latest"); code != http.StatusNotFound {
		t.Fatalf("expected status %d before any run, got %d", http.StatusNotFound, code)
	}

	history.SaveReport(weather.RunReport{ID: "first"})
	history.SaveReport(weather.RunReport{ID: "second", BucketState: weather.BucketCreated})

	code, body := get(t, app, "/api/v1/runs/latest")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}

	var got weather.RunReport
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.ID != "second" || got.BucketState != weather.BucketCreated {
		t.Errorf("unexpected report: %+v", got)
	}
}

func TestRunsLimitValidation(t *testing.T) {
	app, history, _ := newTestApp(t)
	for i := 0; i < 3; i++ {
		history.SaveReport(weather.RunReport{ID: strconv.Itoa(i)})
	}

	tests := []struct {
		query    string
		wantCode int
		wantRuns int
	}{
		{query: "", wantCode: http.StatusOK, wantRuns: 3},
		{query: "?limit=2", wantCode: http.StatusOK, wantRuns: 2},
		{query: "?limit=100", wantCode: http.StatusOK, wantRuns: 3},
		{query: "?limit=0", wantCode: http.StatusBadRequest},
		{query: "?limit=101", wantCode: http.StatusBadRequest},
		{query: "?limit=abc", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			code, body := get(t, app, "/api/v1/runs"+tt.query)
			if code != tt.wantCode {
				t.Fatalf("expected status %d, got %d (%s)", tt.wantCode, code, body)
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var got struct {
				Runs []weather.RunReport `json:"runs"`
			}
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if len(got.Runs) != tt.wantRuns {
				t.Fatalf("expected %d runs, got %d", tt.wantRuns, len(got.Runs))
			}
			if got.Runs[0].ID != "2" {
				t.Errorf("expected newest run first, got %q", got.Runs[0].ID)
			}
		})
	}
}

func TestRunsEmpty(t *testing.T) {
	app, _, _ := newTestApp(t)

	code, body := get(t, app, "/api/v1/runs")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if string(body) != `{"limit":10,"runs":[]}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestCurrentWeather(t *testing.T) {
	app, _, records := newTestApp(t)

	if code, _ := get(t, app, "/api/v1/weather/current"); code != http.StatusBadRequest {
		t.Fatalf("expected status %d for missing city, got %d", http.StatusBadRequest, code)
	}
	if code, _ := get(t, app, "/api/v1/weather/current?city=London"); code != http.StatusNotFound {
		t.Fatalf("expected status %d before any save, got %d", http.StatusNotFound, code)
	}

	name, desc, temp := "London", "clear sky", 280.32
	if _, err := records.Save(weather.Record{Name: &name, Description: &desc, Temp: &temp}, "London"); err != nil {
		t.Fatal(err)
	}

	code, body := get(t, app, "/api/v1/weather/current?city=London")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}

	var got struct {
		City   string         `json:"city"`
		Record weather.Record `json:"record"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.City != "London" || got.Record.Temp == nil || *got.Record.Temp != temp || got.Record.Humidity != nil {
		t.Errorf("unexpected response: %s", body)
	}
}

func TestCurrentWeatherStaysInOutputDir(t *testing.T) {
	app, _, records := newTestApp(t)

	// records.Dir() is <tmp>/weather_data; plant a file next to it.
	outside := filepath.Join(filepath.Dir(records.Dir()), "secret_weather.json")
	if err := os.WriteFile(outside, []byte(`{"name":"outside-output-dir"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, city := range []string{"..%2Fsecret", "../secret", "..", "a%2Fb"} {
		code, body := get(t, app, "/api/v1/weather/current?city="+city)
		if code != http.StatusBadRequest {
			t.Errorf("city=%s: expected status %d, got %d (%s)", city, http.StatusBadRequest, code, body)
		}
		if strings.Contains(string(body), "outside-output-dir") {
			t.Errorf("city=%s: response leaked a file outside the output directory", city)
		}
	}
}
