package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/ytwatch/internal/engine"
)

// YouTube search phase: Data API v3 when keys are configured, otherwise
// ytInitialData scraped from the results page. Both yield bare VideoRefs.

const (
	ytDataAPIBase       = "https://www.googleapis.com/youtube/v3"
	ytResultsURL        = "https://www.youtube.com/results"
	ytInitialDataMarker = "var ytInitialData = "
	ytSearchFilter      = "EgIQAQ%3D%3D" // videos-only filter param
	ytDataAPIMaxResults = 50
)

// --- YouTube Data API v3 types ---

type ytDataSearchResp struct {
	Items []ytDataItem `json:"items"`
}

type ytDataItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title string `json:"title"`
	} `json:"snippet"`
}

// --- ytInitialData scraping types ---

type ytVideoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		Runs []struct{ Text string } `json:"runs"`
	} `json:"title"`
}

// searchQuery builds the platform query: the quoted term restricted to
// uploads after notBefore.
func searchQuery(term string, notBefore time.Time) string {
	return fmt.Sprintf("%q after:%s", term, notBefore.Format("2006-01-02"))
}

// SearchPageURL returns the human-facing results page for a query, for logs.
func SearchPageURL(term string, notBefore time.Time) string {
	return ytResultsURL + "?search_query=" + url.QueryEscape(searchQuery(term, notBefore))
}

// searchRefs runs phase one of a session.
func (y *YouTube) searchRefs(ctx context.Context, term string, notBefore time.Time, limit int) ([]engine.VideoRef, error) {
	if len(y.apiKeys) > 0 {
		return y.searchDataAPI(ctx, term, notBefore, limit)
	}
	return y.searchInitialData(ctx, term, notBefore, limit)
}

// searchDataAPI searches via YouTube Data API v3.
// Falls back to the next key when one fails (quota errors surface as 403).
func (y *YouTube) searchDataAPI(ctx context.Context, term string, notBefore time.Time, limit int) ([]engine.VideoRef, error) {
	var lastErr error
	for _, key := range y.apiKeys {
		refs, err := y.doDataSearch(ctx, term, notBefore, limit, key)
		if err == nil {
			return refs, nil
		}
		lastErr = err
		y.logger.Debug("youtube data API key failed, trying fallback", slog.Any("err", err))
	}
	return nil, lastErr
}

func (y *YouTube) doDataSearch(ctx context.Context, term string, notBefore time.Time, limit int, apiKey string) ([]engine.VideoRef, error) {
	if limit > ytDataAPIMaxResults {
		limit = ytDataAPIMaxResults
	}
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", strconv.Quote(term))
	params.Set("type", "video")
	params.Set("order", "date")
	params.Set("publishedAfter", notBefore.UTC().Format(time.RFC3339))
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("key", apiKey)

	apiURL := y.dataAPIBase + "/search?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return y.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube data API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("youtube data API %d: %s", resp.StatusCode, string(body))
	}

	var result ytDataSearchResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode youtube data API: %w", err)
	}

	refs := make([]engine.VideoRef, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		refs = append(refs, engine.VideoRef{ID: item.ID.VideoID, Title: item.Snippet.Title})
	}
	return refs, nil
}

// searchInitialData scrapes YouTube search results by parsing ytInitialData.
func (y *YouTube) searchInitialData(ctx context.Context, term string, notBefore time.Time, limit int) ([]engine.VideoRef, error) {
	searchURL := y.resultsURL + "?search_query=" + url.QueryEscape(searchQuery(term, notBefore)) + "&sp=" + ytSearchFilter

	body, err := y.fetchPage(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("youtube search page: %w", err)
	}

	idx := strings.Index(string(body), ytInitialDataMarker)
	if idx < 0 {
		return nil, fmt.Errorf("ytInitialData not found in YouTube search response")
	}
	jsonData := extractJSON(body[idx+len(ytInitialDataMarker):])
	if jsonData == nil {
		return nil, fmt.Errorf("failed to extract ytInitialData JSON")
	}
	return extractRefsFromInitialData(jsonData, limit), nil
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// extractRefsFromInitialData walks ytInitialData JSON for videoRenderer
// entries in document order, skipping repeated IDs. A non-positive limit
// yields nothing.
func extractRefsFromInitialData(data []byte, limit int) []engine.VideoRef {
	if limit <= 0 {
		return nil
	}
	var refs []engine.VideoRef
	seen := make(map[string]bool)
	var walk func(v json.RawMessage)
	walk = func(v json.RawMessage) {
		if len(refs) >= limit {
			return
		}
		v = bytes.TrimSpace(v)
		if len(v) == 0 {
			return
		}
		switch v[0] {
		case '{':
			var obj map[string]json.RawMessage
			if json.Unmarshal(v, &obj) != nil {
				return
			}
			if raw, ok := obj["videoRenderer"]; ok {
				var vr ytVideoRenderer
				if json.Unmarshal(raw, &vr) == nil && vr.VideoID != "" {
					if !seen[vr.VideoID] {
						seen[vr.VideoID] = true
						title := ""
						if len(vr.Title.Runs) > 0 {
							title = vr.Title.Runs[0].Text
						}
						refs = append(refs, engine.VideoRef{ID: vr.VideoID, Title: title})
					}
					return
				}
			}
			// Map iteration order is random; walk keys sorted by their
			// position in the source so results keep page order.
			for _, child := range orderedChildren(v) {
				if len(refs) >= limit {
					return
				}
				walk(child)
			}
		case '[':
			var arr []json.RawMessage
			if json.Unmarshal(v, &arr) != nil {
				return
			}
			for _, item := range arr {
				if len(refs) >= limit {
					return
				}
				walk(item)
			}
		}
	}
	walk(data)
	return refs
}

// orderedChildren returns the values of a JSON object in source order.
func orderedChildren(raw json.RawMessage) []json.RawMessage {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil { // opening brace
		return nil
	}
	var out []json.RawMessage
	for dec.More() {
		if _, err := dec.Token(); err != nil { // key
			break
		}
		var child json.RawMessage
		if err := dec.Decode(&child); err != nil {
			break
		}
		out = append(out, child)
	}
	return out
}
