package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jobmate/ingestion-service/internal/model"
)

const (
	AdzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3 // max 150 results per (query × location) pair
	httpTimeout    = 15 * time.Second
	maxErrorBody   = 512
)

// AdzunaFetcher fetches job offers from the Adzuna public API.
type AdzunaFetcher struct {
	AppID   string
	AppKey  string
	Country string // "us", "gb", "fr", …
	BaseURL string
	client  *http.Client
}

// NewAdzunaFetcher constructs a fetcher with a shared HTTP client.
func NewAdzunaFetcher(appID, appKey, country string) *AdzunaFetcher {
	return &AdzunaFetcher{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		BaseURL: AdzunaBaseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

func (f *AdzunaFetcher) Name() string { return "adzuna" }

// Validate fails when credentials are absent.
func (f *AdzunaFetcher) Validate() error {
	var missing []string
	if f.AppID == "" {
		missing = append(missing, "ADZUNA_APP_ID")
	}
	if f.AppKey == "" {
		missing = append(missing, "ADZUNA_APP_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	ID           adzunaID       `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Company      adzunaCompany  `json:"company"`
	Location     adzunaLocation `json:"location"`
	SalaryMin    float64        `json:"salary_min"`
	SalaryMax    float64        `json:"salary_max"`
	RedirectURL  string         `json:"redirect_url"`
	Created      string         `json:"created"`
	ContractTime string         `json:"contract_time"`
	ContractType string         `json:"contract_type"`
}

// adzunaID accepts the id as either a JSON string or a number.
type adzunaID string

func (id *adzunaID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = adzunaID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("adzuna id %s: %w", b, err)
	}
	*id = adzunaID(n.String())
	return nil
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string   `json:"display_name"`
	Area        []string `json:"area"`
}

// locationText prefers "City, State" built from the area hierarchy
// (country, state, county…, city) when display_name has no state part.
func (l adzunaLocation) locationText() string {
	if strings.Contains(l.DisplayName, ",") || len(l.Area) < 3 {
		return l.DisplayName
	}
	city := l.Area[len(l.Area)-1]
	return city + ", " + l.Area[1]
}

// Fetch pages through results until max is reached, a short page is returned
// or adzunaMaxPages is exhausted.
func (f *AdzunaFetcher) Fetch(ctx context.Context, query, location string, max int) ([]model.RawPosting, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if max <= 0 || max > adzunaPageSize*adzunaMaxPages {
		max = adzunaPageSize * adzunaMaxPages
	}
	pageSize := min(max, adzunaPageSize)

	var results []model.RawPosting
	for page := 1; page <= adzunaMaxPages && len(results) < max; page++ {
		batch, err := f.fetchPage(ctx, query, location, page, pageSize)
		if err != nil {
			return results, fmt.Errorf("page %d: %w", page, err)
		}
		results = append(results, batch...)
		if len(batch) < pageSize {
			break // Last page
		}
	}
	if len(results) > max {
		results = results[:max]
	}
	return results, nil
}

func (f *AdzunaFetcher) fetchPage(ctx context.Context, query, location string, page, pageSize int) ([]model.RawPosting, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", strings.TrimRight(f.BaseURL, "/"), f.Country, page)

	params := url.Values{}
	params.Set("app_id", f.AppID)
	params.Set("app_key", f.AppKey)
	params.Set("results_per_page", strconv.Itoa(pageSize))
	params.Set("what", query)
	if location != "" {
		params.Set("where", location)
	}
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("adzuna returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	results := make([]model.RawPosting, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		results = append(results, model.RawPosting{
			ExternalID:   string(r.ID),
			Title:        r.Title,
			Company:      r.Company.DisplayName,
			Location:     r.Location.locationText(),
			Description:  r.Description,
			SalaryMin:    r.SalaryMin,
			SalaryMax:    r.SalaryMax,
			SourceURL:    r.RedirectURL,
			ContractType: r.ContractType,
			PublishedAt:  r.Created,
		})
	}
	return results, nil
}
