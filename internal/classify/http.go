package classify

import (
	"net/http"
	"time"
)

// Every classification request shares one client with a hard timeout, so a
// stalled upstream can only cost one category 30 seconds, never the run.
const requestTimeout = 30 * time.Second

var httpClient = &http.Client{
	Timeout: requestTimeout,
}
