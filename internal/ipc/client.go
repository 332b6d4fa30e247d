package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

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

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Docent.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Docent.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExperienceList returns all stored experiences.
func (c *Client) ExperienceList() (*ExperienceListResponse, error) {
	var resp ExperienceListResponse
	if err := c.client.Call("Docent.ExperienceList", ExperienceListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExperienceShow returns one experience by id.
func (c *Client) ExperienceShow(id string) (*ExperienceShowResponse, error) {
	var resp ExperienceShowResponse
	if err := c.client.Call("Docent.ExperienceShow", ExperienceShowRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExperienceImport stores an experience definition from raw JSON.
func (c *Client) ExperienceImport(definition []byte) (*ExperienceImportResponse, error) {
	var resp ExperienceImportResponse
	if err := c.client.Call("Docent.ExperienceImport", ExperienceImportRequest{Definition: definition}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExperienceValidate runs outcome validation for an experience.
func (c *Client) ExperienceValidate(id string) (*ExperienceValidateResponse, error) {
	var resp ExperienceValidateResponse
	if err := c.client.Call("Docent.ExperienceValidate", ExperienceValidateRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExperiencePublish flips the published flag for an experience.
func (c *Client) ExperiencePublish(id string, published bool) (*ExperiencePublishResponse, error) {
	var resp ExperiencePublishResponse
	req := ExperiencePublishRequest{ID: id, Published: published}
	if err := c.client.Call("Docent.ExperiencePublish", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Docent.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionList returns sessions optionally filtered by statuses.
func (c *Client) SessionList(statuses []string) (*SessionListResponse, error) {
	var resp SessionListResponse
	req := SessionListRequest{Statuses: statuses}
	if err := c.client.Call("Docent.SessionList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionAbandon ends a session with an operator-supplied reason.
func (c *Client) SessionAbandon(id, reason string) (*SessionAbandonResponse, error) {
	var resp SessionAbandonResponse
	req := SessionAbandonRequest{ID: id, Reason: reason}
	if err := c.client.Call("Docent.SessionAbandon", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
