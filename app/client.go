package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/velafocus/vela/internal/apperr"
	"github.com/velafocus/vela/protocol"
)

const requestTimeout = 10 * time.Second

var errDaemonUnreachable = &apperr.Error{
	Message: "unable to reach the vela daemon at %s (is `vela serve` running?)",
}

// client talks to the daemon's HTTP API.
type client struct {
	http *http.Client
	base string
	addr string
}

func newClient(addr string) *client {
	return &client{
		http: &http.Client{},
		base: "http://" + addr,
		addr: addr,
	}
}

// send posts req and decodes the reply into out.
func (c *client) send(ctx context.Context, req protocol.Request, out any) error {
	b, err := protocol.Encode(req)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.base+"/api/message",
		bytes.NewReader(b),
	)
	if err != nil {
		return err
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errDaemonUnreachable.Fmt(c.addr).Wrap(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var r protocol.Response

		_ = json.NewDecoder(resp.Body).Decode(&r)

		return fmt.Errorf("daemon rejected %s: %s", req.Type(), r.Error)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// command sends a request that is answered with a protocol.Response.
func (c *client) command(ctx context.Context, req protocol.Request) error {
	var r protocol.Response

	err := c.send(ctx, req, &r)
	if err != nil {
		return err
	}

	if !r.Success {
		return errors.New(r.Error)
	}

	return nil
}

func (c *client) state(ctx context.Context) (*protocol.TimerStateView, error) {
	var v protocol.TimerStateView

	err := c.send(ctx, protocol.GetTimerState{}, &v)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// watch calls fn for every completion event until ctx is cancelled or the
// daemon goes away.
func (c *client) watch(
	ctx context.Context,
	fn func(protocol.TimerComplete),
) error {
	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.base+"/api/events",
		http.NoBody,
	)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errDaemonUnreachable.Fmt(c.addr).Wrap(err)
	}

	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)

	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}

		var ev protocol.TimerComplete

		err = json.Unmarshal([]byte(data), &ev)
		if err != nil {
			return err
		}

		fn(ev)
	}

	if ctx.Err() != nil {
		return nil
	}

	return scanner.Err()
}
