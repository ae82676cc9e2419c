package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const dialTimeout = 2 * time.Second

// Client is a JSON-RPC connection to the daemon socket.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the daemon socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c == nil || c.rpc == nil {
		return nil
	}
	return c.rpc.Close()
}

// invoke calls ServiceName.method and returns the decoded response.
func invoke[Resp any](c *Client, method string, req any) (*Resp, error) {
	resp := new(Resp)
	if err := c.rpc.Call(ServiceName+"."+method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Start begins a recording under folder, or the configured recordings
// directory when folder is empty.
func (c *Client) Start(folder string) (*StartResponse, error) {
	return invoke[StartResponse](c, "Start", StartRequest{Folder: folder})
}

// Stop ends the active recording. With wait set it returns after highlight
// processing finishes and includes the outcome.
func (c *Client) Stop(wait bool) (*StopResponse, error) {
	return invoke[StopResponse](c, "Stop", StopRequest{Wait: wait})
}

func (c *Client) Status() (*StatusResponse, error) {
	return invoke[StatusResponse](c, "Status", StatusRequest{})
}

// Events pages through the status stream, optionally long-polling.
func (c *Client) Events(req EventsRequest) (*EventsResponse, error) {
	return invoke[EventsResponse](c, "Events", req)
}

func (c *Client) SessionList(limit int, statuses []string) (*SessionListResponse, error) {
	return invoke[SessionListResponse](c, "SessionList", SessionListRequest{Limit: limit, Statuses: statuses})
}

func (c *Client) SessionDescribe(id string) (*SessionDescribeResponse, error) {
	return invoke[SessionDescribeResponse](c, "SessionDescribe", SessionDescribeRequest{ID: id})
}

// SessionRemove deletes catalog rows; recordings on disk are left alone.
func (c *Client) SessionRemove(ids []string) (*SessionRemoveResponse, error) {
	return invoke[SessionRemoveResponse](c, "SessionRemove", SessionRemoveRequest{IDs: ids})
}

// LogTail reads the daemon log.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return invoke[LogTailResponse](c, "LogTail", req)
}

func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return invoke[TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}

// Shutdown asks the daemon process to exit after finishing any recording.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	return invoke[ShutdownResponse](c, "Shutdown", ShutdownRequest{})
}
