package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
)

// maxRobotsSize bounds how much of robots.txt is read.
const maxRobotsSize = 512 * 1024

// RobotsRules answers whether a path may be crawled by a user agent.
// A nil *RobotsRules allows everything.
type RobotsRules struct {
	data  *robotstxt.RobotsData
	agent string
}

// FetchRobots downloads and parses robots.txt for the host of root.
// Missing files and 4xx responses yield allow-all rules, following the
// usual robots.txt conventions; 5xx yields disallow-all.
func FetchRobots(ctx context.Context, client *http.Client, root *url.URL, agent string) (*RobotsRules, error) {
	robotsURL := root.Scheme + "://" + root.Host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", agent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
	}

	return &RobotsRules{data: data, agent: agent}, nil
}

// Allowed reports whether targetURL may be fetched.
func (r *RobotsRules) Allowed(targetURL string) bool {
	if r == nil || r.data == nil {
		return true
	}
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	return r.data.TestAgent(p, r.agent)
}
