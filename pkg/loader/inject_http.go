package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Execer runs a fetched chunk's JS source, as a real browser's <script>
// tag would, registering whatever define calls the chunk issues. See
// pkg/jshost for the implementation backing this in non-wasm builds.
type Execer interface {
	Exec(url string, source []byte) error
}

// HTTPInjector is an Injector for hosts without a DOM: it fetches url
// over HTTP and feeds the body to an Execer, standing in for the
// browser's native script-tag execution. Each Inject call runs in its
// own goroutine so it never blocks the caller, matching the "script tag
// injection is fire-and-forget" contract real Injectors must honor.
type HTTPInjector struct {
	Client *http.Client
	Execer Execer
}

// NewHTTPInjector returns an HTTPInjector using http.DefaultClient if
// client is nil.
func NewHTTPInjector(client *http.Client, execer Execer) *HTTPInjector {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPInjector{Client: client, Execer: execer}
}

func (h *HTTPInjector) Inject(url string, onLoad func(), onError func(error)) {
	go func() {
		body, err := h.fetch(url)
		if err != nil {
			onError(err)
			return
		}
		if err := h.Execer.Exec(url, body); err != nil {
			onError(err)
			return
		}
		onLoad()
	}()
}

func (h *HTTPInjector) fetch(url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("loader: GET %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
