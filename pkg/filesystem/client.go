package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/e2b-dev/e2b-go/pkg/rpcclient"
)

const serviceName = "filesystem.Filesystem"

// Client is the typed filesystem RPC surface plus the bulk file transfer
// endpoints.
type Client struct {
	rpc        *rpcclient.Client
	httpClient *http.Client
	fileURL    string
	username   string
}

// New wraps rpc for the typed RPC surface. fileURL is the base address of
// the agent's plain HTTP file endpoint (e.g. the sandbox's derived
// envd address) and username selects the owning OS user for bulk
// reads/writes, mirroring the framed-RPC client's own base address.
func New(rpc *rpcclient.Client, httpClient *http.Client, fileURL, username string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{rpc: rpc, httpClient: httpClient, fileURL: fileURL, username: username}
}

// ListDir lists the entries of path, descending depth levels (1 means
// just the immediate children).
func (c *Client) ListDir(ctx context.Context, path string, depth int) ([]EntryInfo, error) {
	var resp listDirResponse
	req := listDirRequest{Path: path, Depth: depth}
	if err := c.rpc.Unary(ctx, serviceName, "ListDir", req, &resp); err != nil {
		return nil, err
	}
	out := make([]EntryInfo, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		out = append(out, e.toEntryInfo())
	}
	return out, nil
}

// Stat returns info about path.
func (c *Client) Stat(ctx context.Context, path string) (EntryInfo, error) {
	var resp statResponse
	req := statRequest{Path: path}
	if err := c.rpc.Unary(ctx, serviceName, "Stat", req, &resp); err != nil {
		return EntryInfo{}, err
	}
	if resp.Entry == nil {
		return EntryInfo{}, nil
	}
	return resp.Entry.toEntryInfo(), nil
}

// Exists reports whether path exists, treating a not-found error as a
// clean false rather than propagating it.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	_, err := c.Stat(ctx, path)
	if err == nil {
		return true, nil
	}
	var rpcErr *rpcclient.Error
	if errors.As(err, &rpcErr) && rpcErr.Kind == rpcclient.KindNotFound {
		return false, nil
	}
	return false, err
}

// MakeDir creates path, including any missing parents.
func (c *Client) MakeDir(ctx context.Context, path string) (EntryInfo, error) {
	var resp makeDirResponse
	req := makeDirRequest{Path: path}
	if err := c.rpc.Unary(ctx, serviceName, "MakeDir", req, &resp); err != nil {
		return EntryInfo{}, err
	}
	if resp.Entry == nil {
		return EntryInfo{}, nil
	}
	return resp.Entry.toEntryInfo(), nil
}

// Move renames/moves source to destination.
func (c *Client) Move(ctx context.Context, source, destination string) (EntryInfo, error) {
	var resp moveResponse
	req := moveRequest{Source: source, Destination: destination}
	if err := c.rpc.Unary(ctx, serviceName, "Move", req, &resp); err != nil {
		return EntryInfo{}, err
	}
	if resp.Entry == nil {
		return EntryInfo{}, nil
	}
	return resp.Entry.toEntryInfo(), nil
}

// Remove deletes path (recursively, for directories).
func (c *Client) Remove(ctx context.Context, path string) error {
	var resp removeResponse
	req := removeRequest{Path: path}
	return c.rpc.Unary(ctx, serviceName, "Remove", req, &resp)
}

// WatchStream opens the raw event stream for changes under path. Callers
// typically wrap this with pkg/demux's watch demuxer rather than reading
// it directly.
func (c *Client) WatchStream(ctx context.Context, path string, recursive bool) (*rpcclient.MessageStream, error) {
	req := watchDirRequest{Path: path, Recursive: recursive}
	return c.rpc.Stream(ctx, serviceName, "WatchDir", req)
}

// DecodeWatchFrame unwraps one watchDirResponse frame off stream,
// returning (event, ok) where ok is false for start/keepalive frames
// carrying no filesystem event.
func DecodeWatchFrame(stream *rpcclient.MessageStream) (Event, bool, error) {
	var resp watchDirResponse
	if err := stream.Next(&resp); err != nil {
		return Event{}, false, err
	}
	if resp.Event == nil || resp.Event.Filesystem == nil {
		return Event{}, false, nil
	}
	return resp.Event.Filesystem.toEvent(), true, nil
}

// Read fetches the full contents of path via the agent's plain HTTP file
// route; bulk bytes never pass through the framed-RPC envelope.
func (c *Client) Read(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fileEndpoint(path), nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &rpcclient.Error{Kind: rpcclient.KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &rpcclient.Error{Kind: rpcclient.KindNetwork, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rpcclient.NewStatusError(resp.StatusCode, string(body))
	}
	return body, nil
}

// Write uploads data to path as a single-entry multipart form, mirroring
// WriteFiles but for the common single-file case.
func (c *Client) Write(ctx context.Context, path string, data []byte) error {
	return c.writeMultipart(ctx, path, []WriteEntry{{Path: path, Data: data}})
}

// WriteFiles uploads one or more files in a single multipart POST,
// preserving caller order as successive form parts. The agent resolves
// each entry's target from its part's filename; the form-level path
// field is only sent for single-file writes.
func (c *Client) WriteFiles(ctx context.Context, entries []WriteEntry) error {
	return c.writeMultipart(ctx, "", entries)
}

func (c *Client) writeMultipart(ctx context.Context, path string, entries []WriteEntry) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if c.username != "" {
		if err := writer.WriteField("username", c.username); err != nil {
			return fmt.Errorf("filesystem: build multipart form: %w", err)
		}
	}
	if path != "" {
		if err := writer.WriteField("path", path); err != nil {
			return fmt.Errorf("filesystem: build multipart form: %w", err)
		}
	}
	for _, entry := range entries {
		part, err := writer.CreateFormFile("file", entry.Path)
		if err != nil {
			return fmt.Errorf("filesystem: build multipart entry for %q: %w", entry.Path, err)
		}
		if _, err := part.Write(entry.Data); err != nil {
			return fmt.Errorf("filesystem: write multipart entry for %q: %w", entry.Path, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("filesystem: close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.fileURL+"/files", &body)
	if err != nil {
		return err
	}
	c.applyHeaders(req)
	req.Header.Set("content-type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &rpcclient.Error{Kind: rpcclient.KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return rpcclient.NewStatusError(resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *Client) fileEndpoint(path string) string {
	v := url.Values{}
	v.Set("path", path)
	if c.username != "" {
		v.Set("username", c.username)
	}
	return fmt.Sprintf("%s/files?%s", c.fileURL, v.Encode())
}

// applyHeaders carries the RPC client's header set (the agent's Basic
// auth, notably) over to a bulk file request on the same agent.
func (c *Client) applyHeaders(req *http.Request) {
	for k, vals := range c.rpc.Headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
}
