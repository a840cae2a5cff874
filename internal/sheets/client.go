// Package sheets is a thin gateway over the remote spreadsheet API. It
// exposes exactly the five primitives the store needs (list tabs, create a
// tab, read a range, write a range, append a row), each wrapped in the retry
// policy. Nothing above this package ever sees an HTTP request.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultEndpoint is the production spreadsheet API base URL.
const DefaultEndpoint = "https://sheets.googleapis.com/v4/spreadsheets"

// APIError is a non-transient error response from the spreadsheet API.
// Status codes 429 and 5xx are treated as transient and never surface as
// APIError from a retried call until attempts are exhausted.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spreadsheet API error %d: %s", e.StatusCode, e.Message)
}

// Options configures a Client.
type Options struct {
	// Endpoint overrides the API base URL (tests point this at a fake).
	Endpoint string
	// SpreadsheetID identifies the backing spreadsheet.
	SpreadsheetID string
	// Tokens supplies bearer tokens for each request.
	Tokens TokenSource
	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client
	// Retry is the per-call retry policy; zero value uses defaults.
	Retry RetryPolicy
}

// Client talks to the spreadsheet API for a single spreadsheet.
type Client struct {
	http          *http.Client
	endpoint      string
	spreadsheetID string
	tokens        TokenSource
	retry         RetryPolicy
}

// NewClient creates a gateway client for the configured spreadsheet.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		http:          httpClient,
		endpoint:      endpoint,
		spreadsheetID: opts.SpreadsheetID,
		tokens:        opts.Tokens,
		retry:         opts.Retry.withDefaults(),
	}
}

// SheetTitles returns the titles of all tabs in the spreadsheet.
func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	var resp struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	u := fmt.Sprintf("%s/%s?fields=sheets.properties.title", c.endpoint, c.spreadsheetID)
	err := c.withRetry(ctx, "sheet_titles", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, u, nil, &resp)
	})
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		titles = append(titles, s.Properties.Title)
	}
	return titles, nil
}

// CreateSheet adds a new tab with the given title.
func (c *Client) CreateSheet(ctx context.Context, title string) error {
	body := map[string]any{
		"requests": []map[string]any{
			{"addSheet": map[string]any{"properties": map[string]any{"title": title}}},
		},
	}
	u := fmt.Sprintf("%s/%s:batchUpdate", c.endpoint, c.spreadsheetID)
	return c.withRetry(ctx, "create_sheet", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, u, body, nil)
	})
}

// ReadRange fetches all cell values in the given A1 range. Every cell comes
// back as the string the sheet holds; numeric cells keep their literal text
// so percentages round-trip without reformatting.
func (c *Client) ReadRange(ctx context.Context, rangeRef string) ([][]string, error) {
	var resp valueRange
	u := fmt.Sprintf("%s/%s/values/%s", c.endpoint, c.spreadsheetID, url.PathEscape(rangeRef))
	err := c.withRetry(ctx, "read_range", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, u, nil, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.rows(), nil
}

// WriteRange overwrites the given A1 range with raw values.
func (c *Client) WriteRange(ctx context.Context, rangeRef string, values [][]string) error {
	body := map[string]any{"values": values}
	u := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW", c.endpoint, c.spreadsheetID, url.PathEscape(rangeRef))
	return c.withRetry(ctx, "write_range", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPut, u, body, nil)
	})
}

// AppendRow appends a single row after the last data row of the range and
// returns the number of rows the API reports as written. Appends are
// at-least-once: a retry after a lost response can duplicate the row.
func (c *Client) AppendRow(ctx context.Context, rangeRef string, row []string) (int, error) {
	body := map[string]any{"values": [][]string{row}}
	u := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		c.endpoint, c.spreadsheetID, url.PathEscape(rangeRef))
	var resp struct {
		Updates struct {
			UpdatedRows int `json:"updatedRows"`
		} `json:"updates"`
	}
	err := c.withRetry(ctx, "append_row", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, u, body, &resp)
	})
	if err != nil {
		return 0, err
	}
	return resp.Updates.UpdatedRows, nil
}

// valueRange mirrors the API's values payload. Cells are decoded with
// json.Number so numeric cells keep their literal representation.
type valueRange struct {
	Values [][]any `json:"values"`
}

func (v *valueRange) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	type alias valueRange
	return dec.Decode((*alias)(v))
}

func (v valueRange) rows() [][]string {
	rows := make([][]string, len(v.Values))
	for i, raw := range v.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = cellString(cell)
		}
		rows[i] = row
	}
	return rows
}

func cellString(cell any) string {
	switch c := cell.(type) {
	case string:
		return c
	case json.Number:
		return c.String()
	case bool:
		if c {
			return "TRUE"
		}
		return "FALSE"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", c)
	}
}

// doJSON performs one HTTP exchange. 2xx decodes into out (when non-nil);
// anything else becomes an APIError carrying the upstream status and message.
func (c *Client) doJSON(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("fetch access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("spreadsheet API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readErrorMessage extracts the API's error message, falling back to the raw
// body when the payload is not the usual error envelope.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return "unreadable error body"
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(bytes.TrimSpace(data))
}
