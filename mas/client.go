// Package mas is a client for the MAS datastore search API, the remote
// source of the SORA dataset. It does paginated retrieval only; retry and
// range decisions belong to the sync orchestrator.
package mas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rustyeddy/sora/rates"
)

const (
	// DefaultEndpoint is MAS' datastore search endpoint.
	DefaultEndpoint = "https://eservices.mas.gov.sg/api/action/datastore/search.json"
	// DomesticInterestRates is the resource ID of the Domestic Interest
	// Rates dataset that carries SORA.
	DomesticInterestRates = "9a0bf149-308c-4bd2-832d-76c8e6cb47ed"

	// DefaultPageSize is the most records the API returns per request.
	DefaultPageSize = 100
)

var (
	// ErrSourceUnavailable covers transport and HTTP-level failures.
	// Recoverable: the caller may retry.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedResponse covers payloads without the expected shape.
	// Not recoverable by retrying.
	ErrMalformedResponse = errors.New("malformed response")
)

// Client talks to one datastore resource.
type Client struct {
	endpoint   string
	resourceID string
	http       *resty.Client
}

// NewClient returns a Client for the given endpoint and resource ID.
// Zero values fall back to the MAS SORA defaults.
func NewClient(endpoint, resourceID string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if resourceID == "" {
		resourceID = DomesticInterestRates
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint:   endpoint,
		resourceID: resourceID,
		http:       resty.New().SetTimeout(timeout),
	}
}

// DateRange is an inclusive [Start, End] calendar-date filter.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// PageRequest describes one fetch. Each request builds its own parameter
// set; nothing is shared between calls.
type PageRequest struct {
	Between *DateRange // nil means unrestricted
	Desc    bool       // sort by end_of_day descending instead of ascending
	Offset  int
	Limit   int // 0 means the API default (DefaultPageSize)
}

// Page is one page of raw records plus the source's total-count hint for
// the whole (filtered) result set.
type Page struct {
	Records []rates.Raw
	Total   int
}

// looseTotal tolerates result.total arriving as a JSON number or a quoted
// string; the datastore API has served both.
type looseTotal int

func (t *looseTotal) UnmarshalJSON(b []byte) error {
	n, err := strconv.Atoi(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*t = looseTotal(n)
	return nil
}

type searchResponse struct {
	Result *struct {
		Records []rates.Raw `json:"records"`
		Total   *looseTotal `json:"total"`
	} `json:"result"`
}

// FetchPage retrieves one page of records.
func (c *Client) FetchPage(ctx context.Context, req PageRequest) (Page, error) {
	params := url.Values{}
	params.Set("resource_id", c.resourceID)

	sort := rates.FieldEndOfDay + " asc"
	if req.Desc {
		sort = rates.FieldEndOfDay + " desc"
	}
	params.Set("sort", sort)

	if req.Between != nil {
		params.Set("between["+rates.FieldEndOfDay+"]",
			rates.FormatDate(req.Between.Start)+","+rates.FormatDate(req.Between.End))
	}
	if req.Offset > 0 {
		params.Set("offset", strconv.Itoa(req.Offset))
	}
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(c.endpoint)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if resp.IsError() {
		return Page{}, fmt.Errorf("%w: status %d", ErrSourceUnavailable, resp.StatusCode())
	}

	var body searchResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return Page{}, fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
	}
	if body.Result == nil || body.Result.Records == nil {
		return Page{}, fmt.Errorf("%w: missing result.records", ErrMalformedResponse)
	}
	if body.Result.Total == nil {
		// Without the total-count hint the pagination loop cannot tell a
		// complete result set from a truncated one.
		return Page{}, fmt.Errorf("%w: missing result.total", ErrMalformedResponse)
	}

	return Page{Records: body.Result.Records, Total: int(*body.Result.Total)}, nil
}

// LatestDate probes the resource for its newest end_of_day by fetching a
// single record in descending order.
func (c *Client) LatestDate(ctx context.Context) (time.Time, error) {
	page, err := c.FetchPage(ctx, PageRequest{Desc: true, Limit: 1})
	if err != nil {
		return time.Time{}, err
	}
	if len(page.Records) == 0 {
		return time.Time{}, fmt.Errorf("%w: empty record set on latest-date probe", ErrMalformedResponse)
	}

	day, ok := page.Records[0][rates.FieldEndOfDay].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: record missing %s", ErrMalformedResponse, rates.FieldEndOfDay)
	}
	t, err := rates.ParseDate(day)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad %s %q", ErrMalformedResponse, rates.FieldEndOfDay, day)
	}
	return t, nil
}
