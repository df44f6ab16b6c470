// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	defaultRequestsPerSecond = 5
	listPageSize             = 1000
	entryFields              = "id, name, mimeType, size, webViewLink"
)

// Client is a Tree backed by the Google Drive v3 API. Shared drives are
// included. Every API call first waits on a token-bucket limiter.
type Client struct {
	svc     *gdrive.Service
	limiter *rate.Limiter
}

// NewClient builds a Drive client on an authorized HTTP client. rps <= 0
// selects the default of 5 requests per second.
func NewClient(ctx context.Context, httpClient *http.Client, rps float64, opts ...option.ClientOption) (*Client, error) {
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &Client{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// Folder returns the folder's metadata.
func (c *Client) Folder(ctx context.Context, id string) (Entry, error) {
	if err := c.wait(ctx); err != nil {
		return Entry{}, err
	}
	f, err := c.svc.Files.Get(id).
		Fields(googleapi.Field(entryFields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return Entry{}, fmt.Errorf("getting %s: %w", id, err)
	}
	e := toEntry(f)
	if !e.IsFolder() {
		return Entry{}, fmt.Errorf("%s (%s): %w", id, e.MimeType, ErrNotFolder)
	}
	return e, nil
}

// List returns the folder's non-trashed children, following every page of
// results.
func (c *Client) List(ctx context.Context, folderID string) ([]Entry, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", strings.ReplaceAll(folderID, "'", `\'`))
	var out []Entry
	pageToken := ""
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		call := c.svc.Files.List().
			Q(q).
			Fields(googleapi.Field("nextPageToken, files(" + entryFields + ")")).
			PageSize(listPageSize).
			OrderBy("name").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", folderID, err)
		}
		for _, f := range res.Files {
			out = append(out, toEntry(f))
		}
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
		slog.Debug("listing next page", "folder", folderID, "entries", len(out))
	}
	return out, nil
}

// Download streams the file content to w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	resp, err := c.svc.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("downloading %s: %w", id, err)
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("reading %s: %w", id, err)
	}
	return nil
}

// Upload creates a PDF named name in folderID.
func (c *Client) Upload(ctx context.Context, folderID, name string, r io.Reader) (Entry, error) {
	if err := c.wait(ctx); err != nil {
		return Entry{}, err
	}
	meta := &gdrive.File{Name: name, Parents: []string{folderID}, MimeType: MimePDF}
	f, err := c.svc.Files.Create(meta).
		Media(r, googleapi.ContentType(MimePDF)).
		Fields(googleapi.Field(entryFields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return Entry{}, fmt.Errorf("uploading %s: %w", name, err)
	}
	return toEntry(f), nil
}

func toEntry(f *gdrive.File) Entry {
	return Entry{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Size:        f.Size,
		WebViewLink: f.WebViewLink,
	}
}
