package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/baserisk/scanguard/internal/config"
	"github.com/baserisk/scanguard/internal/llmbridge"
	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
	"github.com/baserisk/scanguard/internal/queue"
	"github.com/baserisk/scanguard/internal/store"
	"github.com/baserisk/scanguard/internal/stream"
)

const testAddress = "0xf43eb8de897fbc7f2502483b2bef7bb9ea179229"

func init() {
	gin.SetMode(gin.TestMode)
}

// newRPCServer stands up a fake chain RPC endpoint returning codeHex for
// eth_getCode, regardless of the requested address.
func newRPCServer(t *testing.T, codeHex string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  codeHex,
		})
	}))
}

func newTestHandler(t *testing.T, rpcURL string, scans *mockScanStore, events *mockEventStore, jobs *mockJobStore) *ScanHandler {
	t.Helper()
	if scans == nil {
		scans = &mockScanStore{}
	}
	if events == nil {
		events = &mockEventStore{}
	}
	if jobs == nil {
		jobs = &mockJobStore{}
	}

	rpc := providers.NewRPCClient(rpcURL)
	worker := queue.NewWorker(jobs, fakeRunner{})
	streamer := stream.NewStreamer(scans, events)
	bridge := llmbridge.NewBridge(config.Config{})

	return NewScanHandler(scans, events, jobs, rpc, worker, streamer, bridge, config.Config{})
}

func TestValidateAddress(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantErr bool
		want    string
	}{
		{"valid lowercase", testAddress, false, testAddress},
		{"valid uppercase gets lowercased", "0xF43EB8DE897FBC7F2502483B2BEF7BB9EA179229", false, testAddress},
		{"missing 0x prefix", testAddress[2:], true, ""},
		{"too short", "0xabc", true, ""},
		{"non-hex characters", "0x" + "zz" + testAddress[4:], true, ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := validateAddress(c.in)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected an error for %q", c.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("validateAddress(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestPreflight_ReportsHasCodeFromRPC(t *testing.T) {
	rpcServer := newRPCServer(t, "0x6080604052")
	defer rpcServer.Close()

	h := newTestHandler(t, rpcServer.URL, nil, nil, nil)
	router := gin.New()
	router.GET("/preflight", h.Preflight)

	req := httptest.NewRequest(http.MethodGet, "/preflight?address="+testAddress, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["hasCode"] != true {
		t.Errorf("hasCode = %v, want true", resp["hasCode"])
	}
}

func TestPreflight_RejectsInvalidAddress(t *testing.T) {
	h := newTestHandler(t, "http://unused", nil, nil, nil)
	router := gin.New()
	router.GET("/preflight", h.Preflight)

	req := httptest.NewRequest(http.MethodGet, "/preflight?address=not-an-address", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateScan_RejectsAddressWithNoCode(t *testing.T) {
	rpcServer := newRPCServer(t, "0x")
	defer rpcServer.Close()

	h := newTestHandler(t, rpcServer.URL, nil, nil, nil)
	router := gin.New()
	router.POST("/scans", h.CreateScan)

	body, _ := json.Marshal(dtoCreateScanRequest(testAddress))
	req := httptest.NewRequest(http.MethodPost, "/scans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestCreateScan_ReturnsCachedCompleteScan(t *testing.T) {
	rpcServer := newRPCServer(t, "0x6080604052")
	defer rpcServer.Close()

	cachedScan := &model.Scan{ID: "cached-scan-1", Status: model.ScanStatusComplete}
	scanStore := &mockScanStore{
		findRecentCompleteFn: func(ctx context.Context, net, addr string, maxAge time.Duration) (*model.Scan, error) {
			return cachedScan, nil
		},
	}

	h := newTestHandler(t, rpcServer.URL, scanStore, nil, nil)
	router := gin.New()
	router.POST("/scans", h.CreateScan)

	body, _ := json.Marshal(dtoCreateScanRequest(testAddress))
	req := httptest.NewRequest(http.MethodPost, "/scans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["cached"] != true {
		t.Errorf("cached = %v, want true", resp["cached"])
	}
	if resp["scanId"] != cachedScan.ID {
		t.Errorf("scanId = %v, want %s", resp["scanId"], cachedScan.ID)
	}
}

func TestGetScan_NotFound(t *testing.T) {
	scans := &mockScanStore{getByIDFn: func(ctx context.Context, id string) (*model.Scan, error) {
		return nil, store.ErrNotFound
	}}
	h := newTestHandler(t, "http://unused", scans, nil, nil)
	router := gin.New()
	router.GET("/scans/:id", h.GetScan)

	req := httptest.NewRequest(http.MethodGet, "/scans/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetScan_ReturnsScan(t *testing.T) {
	scans := &mockScanStore{getByIDFn: func(ctx context.Context, id string) (*model.Scan, error) {
		return &model.Scan{ID: id, Status: model.ScanStatusComplete, Narrative: "looks fine"}, nil
	}}
	h := newTestHandler(t, "http://unused", scans, nil, nil)
	router := gin.New()
	router.GET("/scans/:id", h.GetScan)

	req := httptest.NewRequest(http.MethodGet, "/scans/scan-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["narrative"] != "looks fine" {
		t.Errorf("narrative = %v, want %q", resp["narrative"], "looks fine")
	}
}

func TestRunScan_SkipsTerminalScans(t *testing.T) {
	scans := &mockScanStore{getByIDFn: func(ctx context.Context, id string) (*model.Scan, error) {
		return &model.Scan{ID: id, Status: model.ScanStatusFailed}, nil
	}}
	h := newTestHandler(t, "http://unused", scans, nil, nil)
	router := gin.New()
	router.POST("/scans/:id/run", h.RunScan)

	req := httptest.NewRequest(http.MethodPost, "/scans/scan-1/run", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a skipped terminal scan", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["skipped"] != true {
		t.Errorf("skipped = %v, want true", resp["skipped"])
	}
}

func TestRunScan_EnqueuesNonTerminalScans(t *testing.T) {
	scans := &mockScanStore{getByIDFn: func(ctx context.Context, id string) (*model.Scan, error) {
		return &model.Scan{ID: id, Status: model.ScanStatusQueued}, nil
	}}
	jobs := &mockJobStore{enqueueFn: func(ctx context.Context, scanID string) (*model.ScanJob, bool, error) {
		return &model.ScanJob{ID: 42, ScanID: scanID, Status: model.JobStatusPending}, true, nil
	}}
	h := newTestHandler(t, "http://unused", scans, nil, jobs)
	router := gin.New()
	router.POST("/scans/:id/run", h.RunScan)

	req := httptest.NewRequest(http.MethodPost, "/scans/scan-1/run", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body = %s", w.Code, w.Body.String())
	}
}

func TestListEvents_ReturnsNextAfterCursor(t *testing.T) {
	scans := &mockScanStore{getByIDFn: func(ctx context.Context, id string) (*model.Scan, error) {
		return &model.Scan{ID: id, Status: model.ScanStatusRunning}, nil
	}}
	events := &mockEventStore{listEventsAfterFn: func(ctx context.Context, scanID string, afterEventID int64) ([]model.ScanEvent, error) {
		return []model.ScanEvent{
			{ID: 5, ScanID: scanID, Seq: 1, Type: model.EventTypeRunStarted},
			{ID: 8, ScanID: scanID, Seq: 2, Type: model.EventTypeStepStarted},
		}, nil
	}}
	h := newTestHandler(t, "http://unused", scans, events, nil)
	router := gin.New()
	router.GET("/scans/:id/events", h.ListEvents)

	req := httptest.NewRequest(http.MethodGet, "/scans/scan-1/events?after=0", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if int64(resp["nextAfter"].(float64)) != 8 {
		t.Errorf("nextAfter = %v, want 8", resp["nextAfter"])
	}
}

func dtoCreateScanRequest(address string) map[string]string {
	return map[string]string{"tokenAddress": address}
}
