package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "confdash/internal/log"
)

// Kind names one of the two remote documents.
type Kind string

const (
	KindConferences Kind = "conferences"
	KindAcceptances Kind = "acceptances"
)

// Payload is the raw YAML text of both documents from one refresh cycle.
type Payload struct {
	Conferences []byte
	Acceptances []byte
}

// Client fetches the two remote YAML documents. Both are fetched
// concurrently and awaited jointly: if either request fails, the whole
// refresh is treated as failed.
type Client struct {
	http          *http.Client
	conferenceURL string
	acceptanceURL string
}

// NewClient creates a feed client for the given document URLs.
func NewClient(conferenceURL, acceptanceURL string) *Client {
	return &Client{
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		conferenceURL: conferenceURL,
		acceptanceURL: acceptanceURL,
	}
}

// FetchBoth retrieves both documents concurrently. There is no ordering
// dependency between the two; the first error fails the cycle.
func (c *Client) FetchBoth(ctx context.Context) (Payload, error) {
	type result struct {
		kind Kind
		body []byte
		err  error
	}

	ch := make(chan result, 2)
	fetch := func(kind Kind, url string) {
		body, err := c.fetchOne(ctx, url)
		ch <- result{kind: kind, body: body, err: err}
	}
	go fetch(KindConferences, c.conferenceURL)
	go fetch(KindAcceptances, c.acceptanceURL)

	var p Payload
	for i := 0; i < 2; i++ {
		res := <-ch
		if res.err != nil {
			return Payload{}, fmt.Errorf("fetch %s feed: %w", res.kind, res.err)
		}
		switch res.kind {
		case KindConferences:
			p.Conferences = res.body
		case KindAcceptances:
			p.Acceptances = res.body
		}
	}
	return p, nil
}

func (c *Client) fetchOne(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("feed URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	appLog.Debug("feed fetch start", "url", url)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("empty feed body")
	}

	appLog.Info("feed fetch success", "url", url, "bytes", len(body))
	return body, nil
}
