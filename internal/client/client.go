// Package client is a thin transport wrapper used by the kvs CLI: one
// net.Dial per call, one Request written, one Response read back.
package client

import (
	"net"
	"time"

	"github.com/iamNilotpal/kvs/internal/codec"
	kvserrors "github.com/iamNilotpal/kvs/pkg/errors"
)

// DialTimeout bounds how long a single round trip waits to connect.
const DialTimeout = 5 * time.Second

// Client dials addr fresh for every call — the CLI is one-shot per
// invocation, so there is no connection to keep warm between commands.
type Client struct {
	addr string
}

// New returns a Client that will dial addr on each call.
func New(addr string) *Client {
	return &Client{addr: addr}
}

func (c *Client) roundTrip(req codec.Request) (codec.Response, error) {
	conn, err := net.DialTimeout("tcp", c.addr, DialTimeout)
	if err != nil {
		return codec.Response{}, kvserrors.NewStorageError(err, kvserrors.ErrorCodeIO, "failed to connect to server").
			WithPath(c.addr)
	}
	defer conn.Close()

	if err := codec.EncodeRequest(conn, req); err != nil {
		return codec.Response{}, err
	}

	resp, err := codec.DecodeResponse(conn)
	if err != nil {
		return codec.Response{}, err
	}
	return resp, nil
}

// Set stores key -> value on the remote engine.
func (c *Client) Set(key, value string) error {
	resp, err := c.roundTrip(codec.Request{Tag: codec.ReqSet, Key: key, Value: value})
	if err != nil {
		return err
	}
	if resp.Tag == codec.RespErr {
		return kvserrors.NewEngineError(nil, kvserrors.ErrorCodeProtocol, resp.Message).
			WithKey(key).
			WithOperation("Set")
	}
	return nil
}

// Get retrieves the value for key. found is false when the server reports
// no such key.
func (c *Client) Get(key string) (value string, found bool, err error) {
	resp, err := c.roundTrip(codec.Request{Tag: codec.ReqGet, Key: key})
	if err != nil {
		return "", false, err
	}
	if resp.Tag == codec.RespErr {
		return "", false, kvserrors.NewEngineError(nil, kvserrors.ErrorCodeProtocol, resp.Message).
			WithKey(key).
			WithOperation("Get")
	}
	return resp.Value, resp.Found, nil
}

// Remove deletes key on the remote engine. It fails if the key is absent.
func (c *Client) Remove(key string) error {
	resp, err := c.roundTrip(codec.Request{Tag: codec.ReqRemove, Key: key})
	if err != nil {
		return err
	}
	if resp.Tag == codec.RespErr {
		return kvserrors.NewEngineError(nil, kvserrors.ErrorCodeProtocol, resp.Message).
			WithKey(key).
			WithOperation("Remove")
	}
	return nil
}
