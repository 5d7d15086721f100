package hostlink

import (
	"context"
	"fmt"

	"github.com/machinefabric/hostlink-go/wire"
)

// Filesystem requests. The host resolves paths inside its own filesystem; the
// UI surface never touches the disk directly.

type filePathRequest struct {
	Path string `cbor:"path" json:"path"`
}

type fileWriteRequest struct {
	Path string `cbor:"path" json:"path"`
	Data []byte `cbor:"data" json:"data"`
}

type fileReadResponse struct {
	Data []byte `cbor:"data" json:"data"`
}

type directoryListResponse struct {
	Entries []string `cbor:"entries" json:"entries"`
}

type symlinkDestinationResponse struct {
	Destination string `cbor:"destination" json:"destination"`
}

type directoryCreateRequest struct {
	Path      string `cbor:"path" json:"path"`
	Recursive bool   `cbor:"recursive" json:"recursive"`
}

// ReadFile returns the contents of the file at path on the host.
func (c *Client) ReadFile(ctx context.Context, path string) ([]byte, error) {
	env, err := c.Call(ctx, wire.KindFileRead, filePathRequest{Path: path})
	if err != nil {
		return nil, err
	}
	var resp fileReadResponse
	if err := wire.DecodePayload(env.Payload, &resp); err != nil {
		return nil, fmt.Errorf("decoding read response: %w", err)
	}
	return resp.Data, nil
}

// WriteFile replaces the contents of the file at path on the host.
func (c *Client) WriteFile(ctx context.Context, path string, data []byte) error {
	return c.callResult(ctx, wire.KindFileWrite, fileWriteRequest{Path: path, Data: data})
}

// AppendToFile appends data to the file at path on the host.
func (c *Client) AppendToFile(ctx context.Context, path string, data []byte) error {
	return c.callResult(ctx, wire.KindFileAppend, fileWriteRequest{Path: path, Data: data})
}

// ContentsOfDirectory lists the entry names of the directory at path.
func (c *Client) ContentsOfDirectory(ctx context.Context, path string) ([]string, error) {
	env, err := c.Call(ctx, wire.KindDirectoryList, filePathRequest{Path: path})
	if err != nil {
		return nil, err
	}
	var resp directoryListResponse
	if err := wire.DecodePayload(env.Payload, &resp); err != nil {
		return nil, fmt.Errorf("decoding directory listing: %w", err)
	}
	return resp.Entries, nil
}

// CreateDirectory creates the directory at path, with parents if recursive.
func (c *Client) CreateDirectory(ctx context.Context, path string, recursive bool) error {
	return c.callResult(ctx, wire.KindDirectoryCreate, directoryCreateRequest{Path: path, Recursive: recursive})
}

// DestinationOfSymbolicLink resolves the symlink at path on the host.
func (c *Client) DestinationOfSymbolicLink(ctx context.Context, path string) (string, error) {
	env, err := c.Call(ctx, wire.KindSymlinkDestination, filePathRequest{Path: path})
	if err != nil {
		return "", err
	}
	var resp symlinkDestinationResponse
	if err := wire.DecodePayload(env.Payload, &resp); err != nil {
		return "", fmt.Errorf("decoding symlink destination: %w", err)
	}
	return resp.Destination, nil
}
