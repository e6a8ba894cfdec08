package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	neturl "net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/osintworks/trailhound/internal/investigation"
)

// DefaultBaseURL is the public archive endpoint.
const DefaultBaseURL = "https://web.archive.org"

// Client lists historical captures through the archive's CDX index. It
// implements investigation.Archive.
type Client struct {
	base   string
	client *http.Client
	log    *zap.Logger
}

// NewClient builds an archive client. An empty baseURL selects the public
// endpoint; tests point it at a local server.
func NewClient(baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		base:   baseURL,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// Snapshots queries the CDX index for successful captures of url within the
// given year bounds. Captures are collapsed to at most one per day and come
// back in chronological order.
func (c *Client) Snapshots(ctx context.Context, url string, fromYear, toYear int) ([]investigation.Snapshot, error) {
	q := neturl.Values{}
	q.Set("url", url)
	q.Set("output", "json")
	q.Set("fl", "timestamp,original")
	q.Set("filter", "statuscode:200")
	q.Set("collapse", "timestamp:8")
	if fromYear > 0 {
		q.Set("from", strconv.Itoa(fromYear))
	}
	if toYear > 0 {
		q.Set("to", strconv.Itoa(toYear))
	}
	endpoint := c.base + "/cdx/search/cdx?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build cdx request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query cdx index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cdx index returned status %d", resp.StatusCode)
	}

	// CDX JSON output is an array of rows; the first row is the header.
	var rows [][]string
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode cdx response: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	snaps := make([]investigation.Snapshot, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		snaps = append(snaps, investigation.Snapshot{
			Timestamp: row[0],
			FetchURL:  fmt.Sprintf("%s/web/%s/%s", c.base, row[0], row[1]),
		})
	}

	c.log.Debug("listed archive captures",
		zap.String("url", url),
		zap.Int("count", len(snaps)),
		zap.Int("from_year", fromYear),
		zap.Int("to_year", toYear),
	)
	return snaps, nil
}
