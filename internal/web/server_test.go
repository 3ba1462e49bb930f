package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gmapscleaner/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		LLMProvider:    "openai",
		LLMModel:       "gpt-4",
		OpenAIAPIKey:   "test-key",
		CategoryColumn: "category",
		Concurrency:    4,
		RowsPerBatch:   40000,
	}
}

// mockLLM answers yes only for categories containing the keyword.
func mockLLM(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			t.Errorf("bad classification request: %v", err)
			return
		}
		content := req.Messages[0].Content
		category := content[strings.LastIndex(content, "Category: ")+len("Category: "):]

		reply := "no"
		if strings.Contains(category, "medical") {
			reply = "yes"
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, reply)
	}))
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func uploadCSV(t *testing.T, ts *httptest.Server, csvBody, password string) string {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if password != "" {
		if err := mw.WriteField("password", password); err != nil {
			t.Fatalf("writing password field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("file", "listings.csv")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := fw.Write([]byte(csvBody)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	mw.Close()

	resp, err := noRedirectClient().Post(ts.URL+"/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload status = %d, body: %s", resp.StatusCode, body)
	}

	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, "/sessions/") {
		t.Fatalf("unexpected redirect target %q", location)
	}
	return location
}

func postForm(t *testing.T, ts *httptest.Server, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := noRedirectClient().PostForm(ts.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func getPage(t *testing.T, ts *httptest.Server, path string) string {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(body)
}

const listingsCSV = `name,category,rating,ratingCount
Joe's Coffee,cafe,4.5,120
Smith & Co,law firm,3.9,15
City Health,medical clinic,4.8,60
Bean There,cafe,2.0,8
`

func TestWebFullFlow(t *testing.T) {
	llm := mockLLM(t)
	defer llm.Close()

	server := New(testConfig(), nil)
	server.classifier.BaseURL = llm.URL
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	sessionPath := uploadCSV(t, ts, listingsCSV, "")

	page := getPage(t, ts, sessionPath)
	if !strings.Contains(page, "4 rows loaded") {
		t.Fatalf("session page missing row count:\n%s", page)
	}

	// Pre-filter preview must not commit.
	resp := postForm(t, ts, sessionPath+"/prefilter", url.Values{
		"min_rating": {"4.0"}, "action": {"preview"},
	})
	resp.Body.Close()
	page = getPage(t, ts, sessionPath)
	if !strings.Contains(page, "4 rows after pre-filtering") {
		t.Fatalf("preview must not change the committed table:\n%s", page)
	}

	resp = postForm(t, ts, sessionPath+"/prefilter", url.Values{
		"min_rating": {"4.0"}, "action": {"apply"},
	})
	resp.Body.Close()
	page = getPage(t, ts, sessionPath)
	if !strings.Contains(page, "2 rows after pre-filtering") {
		t.Fatalf("apply must commit the filtered table:\n%s", page)
	}

	resp = postForm(t, ts, sessionPath+"/classify", url.Values{"keyword": {"medical clinic"}})
	resp.Body.Close()
	page = getPage(t, ts, sessionPath)
	if !strings.Contains(page, "medical clinic") || !strings.Contains(page, "checkbox") {
		t.Fatalf("refinement checklist missing:\n%s", page)
	}
	if strings.Contains(page, `value="cafe"`) {
		t.Fatalf("irrelevant category offered for refinement:\n%s", page)
	}

	resp = postForm(t, ts, sessionPath+"/refine", url.Values{"action": {"use_all"}})
	resp.Body.Close()
	page = getPage(t, ts, sessionPath)
	if !strings.Contains(page, "final file contains 1 rows") {
		t.Fatalf("expected final row count on page:\n%s", page)
	}

	resp = postForm(t, ts, sessionPath+"/export", url.Values{})
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/csv" {
		t.Fatalf("export content type = %s", got)
	}
	body, _ := io.ReadAll(resp.Body)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines:\n%s", len(lines), body)
	}
	if !strings.Contains(lines[1], "City Health") {
		t.Fatalf("unexpected exported row: %s", lines[1])
	}
}

func TestWebBatchedExport(t *testing.T) {
	llm := mockLLM(t)
	defer llm.Close()

	server := New(testConfig(), nil)
	server.classifier.BaseURL = llm.URL
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	sessionPath := uploadCSV(t, ts, listingsCSV, "")

	resp := postForm(t, ts, sessionPath+"/classify", url.Values{"keyword": {"medical clinic"}})
	resp.Body.Close()
	resp = postForm(t, ts, sessionPath+"/refine", url.Values{"action": {"use_all"}})
	resp.Body.Close()

	resp = postForm(t, ts, sessionPath+"/export", url.Values{
		"batch": {"1"}, "rows_per_batch": {"1"},
	})
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "application/zip" {
		t.Fatalf("batched export content type = %s", got)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), ".zip") {
		t.Fatalf("batched export must download as a zip, got %s", resp.Header.Get("Content-Disposition"))
	}
}

func TestWebRefineDeselection(t *testing.T) {
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"yes"}}]}`)
	}))
	defer llm.Close()

	server := New(testConfig(), nil)
	server.classifier.BaseURL = llm.URL
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	sessionPath := uploadCSV(t, ts, listingsCSV, "")

	resp := postForm(t, ts, sessionPath+"/classify", url.Values{"keyword": {"anything"}})
	resp.Body.Close()

	// Submit the checklist with only cafe checked.
	resp = postForm(t, ts, sessionPath+"/refine", url.Values{
		"action": {"finalize"}, "category": {"cafe"},
	})
	resp.Body.Close()

	resp = postForm(t, ts, sessionPath+"/export", url.Values{})
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 cafe rows, got %d lines:\n%s", len(lines), body)
	}
}

func TestWebPasswordGate(t *testing.T) {
	cfg := testConfig()
	cfg.WebPassword = "s3cret"
	server := New(cfg, nil)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("password", "wrong")
	fw, _ := mw.CreateFormFile("file", "listings.csv")
	_, _ = fw.Write([]byte(listingsCSV))
	mw.Close()

	resp, err := noRedirectClient().Post(ts.URL+"/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password must be rejected, got status %d", resp.StatusCode)
	}

	// The correct password goes through.
	uploadCSV(t, ts, listingsCSV, "s3cret")
}

func TestWebSchemaErrorSurfacesColumns(t *testing.T) {
	server := New(testConfig(), nil)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "listings.csv")
	_, _ = fw.Write([]byte("name,type\nJoe's,cafe\n"))
	mw.Close()

	resp, err := noRedirectClient().Post(ts.URL+"/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("schema error status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "category") || !strings.Contains(string(body), "type") {
		t.Fatalf("schema error page must name the missing and available columns:\n%s", body)
	}
}

func TestWebUnknownSession(t *testing.T) {
	server := New(testConfig(), nil)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/sessions/nope")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown session status = %d, want 404", resp.StatusCode)
	}
}
