// Package classify decides, once per distinct category string, whether the
// category relates to a target keyword by asking an LLM for a yes/no answer.
// It never sees rows; callers join the per-category results back onto their
// data.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
)

type Status string

const (
	StatusOK             Status = "ok"
	StatusAPIError       Status = "api_error"
	StatusTransportError Status = "transport_error"
)

// Result is the outcome for one category. Relevant is false on any failure,
// so Status is the only way to tell a true negative from a failed call.
type Result struct {
	Relevant bool
	Reply    string
	Status   Status
}

// errAPI marks failures where the upstream answered but with an error
// payload (or no choices), as opposed to transport-level failures.
var errAPI = errors.New("classification API error")

const (
	defaultOpenAIModel    = "gpt-4"
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultConcurrency    = 10
)

// Classifier dispatches one request per category, at most Concurrency in
// flight at a time. The zero BaseURL targets the real OpenAI endpoint;
// tests point it at an httptest server.
type Classifier struct {
	Provider    string
	Model       string
	APIKey      string
	Concurrency int
	BaseURL     string
}

func buildPrompt(category, keyword string) string {
	return fmt.Sprintf("Is the following business category likely related to a **%s**? Only reply 'yes' or 'no'.\n\nCategory: %s", keyword, category)
}

func (c *Classifier) model() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Provider == "anthropic" {
		return defaultAnthropicModel
	}
	return defaultOpenAIModel
}

// Classify fans the categories out onto bounded concurrent API calls and
// joins before returning, so the mapping is always complete. A failing
// category yields Relevant=false with an error status and never aborts its
// siblings. progress (optional) is called after each completion; completions
// land in arbitrary order.
func (c *Classifier) Classify(ctx context.Context, categories []string, keyword string, progress func(done, total int)) map[string]Result {
	total := len(categories)
	results := make(map[string]Result, total)
	if total == 0 {
		return results
	}

	limit := c.Concurrency
	if limit < 1 {
		limit = defaultConcurrency
	}
	log.Printf("classify provider=%s model=%s categories=%d concurrency=%d", c.Provider, c.model(), total, limit)

	sem := semaphore.NewWeighted(int64(limit))
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for _, cat := range categories {
		wg.Add(1)
		go func(category string) {
			defer wg.Done()
			res := c.classifyOne(ctx, sem, category, keyword)

			mu.Lock()
			results[category] = res
			done++
			if progress != nil {
				progress(done, total)
			}
			mu.Unlock()
		}(cat)
	}
	wg.Wait()

	return results
}

func (c *Classifier) classifyOne(ctx context.Context, sem *semaphore.Weighted, category, keyword string) Result {
	if err := sem.Acquire(ctx, 1); err != nil {
		return Result{Reply: err.Error(), Status: StatusTransportError}
	}
	defer sem.Release(1)

	var reply string
	var err error
	switch c.Provider {
	case "anthropic":
		reply, err = c.callAnthropic(ctx, category, keyword)
	default:
		reply, err = c.callOpenAI(ctx, category, keyword)
	}

	if err != nil {
		log.Printf("classify error category=%q err=%v", category, err)
		status := StatusTransportError
		if errors.Is(err, errAPI) {
			status = StatusAPIError
		}
		return Result{Reply: err.Error(), Status: status}
	}

	reply = strings.ToLower(strings.TrimSpace(reply))
	return Result{
		Relevant: strings.Contains(reply, "yes"),
		Reply:    reply,
		Status:   StatusOK,
	}
}
