package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coursepilot/internal/config"
	"coursepilot/internal/services"
)

// PlaylistItem is one raw entry from a playlist page before normalization.
type PlaylistItem struct {
	Title           string
	VideoID         string
	Description     string
	ThumbnailURL    string
	Author          string
	UploadDate      string
	DurationSeconds *float64
}

// Page is one fetched slice of a playlist. An empty NextPageToken ends the
// iteration.
type Page struct {
	Items         []PlaylistItem
	NextPageToken string
}

// Fetcher retrieves playlist pages. Implementations own paging tokens and
// rate limits; callers just iterate.
type Fetcher interface {
	FetchPage(ctx context.Context, playlistID, pageToken string) (*Page, error)
}

// APIFetcher talks to the YouTube Data API v3.
type APIFetcher struct {
	cfg    config.YouTube
	client *http.Client
}

// NewAPIFetcher builds a fetcher from the youtube configuration section.
func NewAPIFetcher(cfg config.YouTube) *APIFetcher {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &APIFetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
			ChannelName string `json:"videoOwnerChannelTitle"`
			Thumbnails  struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// FetchPage implements Fetcher. It retrieves one playlistItems page and
// backfills per-video durations with a second batched call.
func (f *APIFetcher) FetchPage(ctx context.Context, playlistID, pageToken string) (*Page, error) {
	if strings.TrimSpace(f.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ingest", "fetch", "youtube api key not configured", nil)
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("playlistId", playlistID)
	params.Set("maxResults", fmt.Sprintf("%d", f.pageSize()))
	params.Set("key", f.cfg.APIKey)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var listResp playlistItemsResponse
	if err := f.getJSON(ctx, "/playlistItems", params, &listResp); err != nil {
		return nil, err
	}

	page := &Page{NextPageToken: listResp.NextPageToken}
	ids := make([]string, 0, len(listResp.Items))
	for _, item := range listResp.Items {
		page.Items = append(page.Items, PlaylistItem{
			Title:        item.Snippet.Title,
			VideoID:      item.Snippet.ResourceID.VideoID,
			Description:  item.Snippet.Description,
			ThumbnailURL: item.Snippet.Thumbnails.Medium.URL,
			Author:       item.Snippet.ChannelName,
			UploadDate:   item.Snippet.PublishedAt,
		})
		if item.Snippet.ResourceID.VideoID != "" {
			ids = append(ids, item.Snippet.ResourceID.VideoID)
		}
	}
	if len(ids) > 0 {
		durations, err := f.fetchDurations(ctx, ids)
		if err == nil {
			for i := range page.Items {
				if d, ok := durations[page.Items[i].VideoID]; ok {
					seconds := d.Seconds()
					page.Items[i].DurationSeconds = &seconds
				}
			}
		}
	}
	return page, nil
}

func (f *APIFetcher) fetchDurations(ctx context.Context, ids []string) (map[string]time.Duration, error) {
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", f.cfg.APIKey)

	var resp videosResponse
	if err := f.getJSON(ctx, "/videos", params, &resp); err != nil {
		return nil, err
	}
	durations := make(map[string]time.Duration, len(resp.Items))
	for _, item := range resp.Items {
		if d, err := ParseISODuration(item.ContentDetails.Duration); err == nil {
			durations[item.ID] = d
		}
	}
	return durations, nil
}

func (f *APIFetcher) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	base := strings.TrimRight(f.cfg.BaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path+"?"+params.Encode(), nil)
	if err != nil {
		return services.Wrap(services.ErrNetwork, "ingest", "fetch", "building request", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrNetwork, "ingest", "fetch", "playlist request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrNetwork, "ingest", "fetch",
			fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, path), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrNetwork, "ingest", "fetch", "decoding response", err)
	}
	return nil
}

func (f *APIFetcher) pageSize() int {
	if f.cfg.PageSize <= 0 || f.cfg.PageSize > 50 {
		return 50
	}
	return f.cfg.PageSize
}
