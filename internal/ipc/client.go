package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"path/filepath"
	"time"

	"tapedeck/internal/config"
)

// SocketPath returns the control socket location for the configuration.
func SocketPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, "tapedeckd.sock")
}

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Add schedules one standalone recording.
func (c *Client) Add(req AddRequest) (*AddResponse, error) {
	var resp AddResponse
	if err := c.client.Call("Tapedeck.Add", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddSeries schedules a recurrence rule and returns its occurrences.
func (c *Client) AddSeries(req AddSeriesRequest) (*AddSeriesResponse, error) {
	var resp AddSeriesResponse
	if err := c.client.Call("Tapedeck.AddSeries", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Remove deletes a recording, or its whole series.
func (c *Client) Remove(id int64, series bool) (*RemoveResponse, error) {
	var resp RemoveResponse
	if err := c.client.Call("Tapedeck.Remove", RemoveRequest{ID: id, Series: series}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns one card's queue, or every queue when card is negative.
func (c *Client) List(card int) (*ListResponse, error) {
	var resp ListResponse
	if err := c.client.Call("Tapedeck.List", ListRequest{Card: card}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profiles returns the loaded profile set.
func (c *Client) Profiles() (*ProfilesResponse, error) {
	var resp ProfilesResponse
	if err := c.client.Call("Tapedeck.Profiles", ProfilesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs returns running and queued transcode jobs.
func (c *Client) Jobs() (*JobsResponse, error) {
	var resp JobsResponse
	if err := c.client.Call("Tapedeck.Jobs", JobsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Kill terminates the encode occupying a worker slot.
func (c *Client) Kill(slot int) (*KillResponse, error) {
	var resp KillResponse
	if err := c.client.Call("Tapedeck.Kill", KillRequest{Slot: slot}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Tapedeck.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Tapedeck.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
