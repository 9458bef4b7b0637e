// SPDX-License-Identifier: Apache-2.0

package filedialog

import (
	"context"
	"errors"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/akihiro/portal-filedialog/internal/handle"
)

// stubConn is a fake session bus: it records installed match rules and
// outgoing method calls, answers FileChooser calls with a request object
// path, and feeds canned Response signals to the registered channels —
// immediately after the call when autoRespond is set, or when the test
// calls respond().
type stubConn struct {
	mu sync.Mutex

	unique      string
	autoRespond bool

	// canned response
	code    uint32
	results map[string]dbus.Variant

	// replyPath, when set, is returned from FileChooser calls instead of
	// the predicted handle path (the rebind case).
	replyPath dbus.ObjectPath

	added   [][]dbus.MatchOption
	removed [][]dbus.MatchOption
	chans   []chan<- *dbus.Signal
	calls   []stubCall
	closed  bool

	// responsePath is where the last FileChooser call promised to emit
	// its Response.
	responsePath dbus.ObjectPath
}

type stubCall struct {
	Dest   string
	Path   dbus.ObjectPath
	Method string
	Args   []interface{}
}

func newStub(code uint32, results map[string]dbus.Variant) *stubConn {
	return &stubConn{
		unique:      ":1.42",
		autoRespond: true,
		code:        code,
		results:     results,
	}
}

func uriResults(uris ...string) map[string]dbus.Variant {
	return map[string]dbus.Variant{"uris": dbus.MakeVariant(uris)}
}

func (c *stubConn) UniqueName() string { return c.unique }

func (c *stubConn) AddMatchSignal(options ...dbus.MatchOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.added = append(c.added, options)
	return nil
}

func (c *stubConn) RemoveMatchSignal(options ...dbus.MatchOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, options)
	return nil
}

func (c *stubConn) Signal(ch chan<- *dbus.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chans = append(c.chans, ch)
}

func (c *stubConn) RemoveSignal(ch chan<- *dbus.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, have := range c.chans {
		if have == ch {
			c.chans = append(c.chans[:i], c.chans[i+1:]...)
			return
		}
	}
}

func (c *stubConn) Object(dest string, path dbus.ObjectPath) dbus.BusObject {
	return stubObject{conn: c, dest: dest, path: path}
}

// Close closes every registered signal channel, as godbus does when the
// connection goes away.
func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("already closed")
	}
	c.closed = true
	for _, ch := range c.chans {
		close(ch)
	}
	c.chans = nil
	return nil
}

// respond emits the canned Response signal on the last promised path.
func (c *stubConn) respond() {
	c.mu.Lock()
	sig := &dbus.Signal{
		Sender: portalBusName,
		Path:   c.responsePath,
		Name:   responseSignal,
		Body:   []interface{}{c.code, c.results},
	}
	chans := append([]chan<- *dbus.Signal(nil), c.chans...)
	c.mu.Unlock()
	for _, ch := range chans {
		select {
		case ch <- sig:
		default:
		}
	}
}

func (c *stubConn) handleCall(dest string, path dbus.ObjectPath, method string, args []interface{}) *dbus.Call {
	c.mu.Lock()
	c.calls = append(c.calls, stubCall{Dest: dest, Path: path, Method: method, Args: args})
	c.mu.Unlock()

	switch method {
	case methodOpenFile, methodSaveFile:
		opts, _ := args[2].(map[string]dbus.Variant)
		token, _ := opts["handle_token"].Value().(string)
		reply := handle.RequestPath(c.unique, token)
		if c.replyPath != "" {
			reply = c.replyPath
		}
		c.mu.Lock()
		c.responsePath = reply
		auto := c.autoRespond
		c.mu.Unlock()
		if auto {
			c.respond()
		}
		return &dbus.Call{Body: []interface{}{reply}}
	default:
		return &dbus.Call{}
	}
}

func (c *stubConn) recordedCalls() []stubCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]stubCall(nil), c.calls...)
}

func (c *stubConn) matchState() (added, removed [][]dbus.MatchOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]dbus.MatchOption(nil), c.added...),
		append([][]dbus.MatchOption(nil), c.removed...)
}

// stubObject implements dbus.BusObject over the stub connection. Only Call
// is meaningful for the bridge.
type stubObject struct {
	conn *stubConn
	dest string
	path dbus.ObjectPath
}

func (o stubObject) Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	return o.conn.handleCall(o.dest, o.path, method, args)
}

func (o stubObject) CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	return o.Call(method, flags, args...)
}

func (o stubObject) Go(method string, flags dbus.Flags, ch chan *dbus.Call, args ...interface{}) *dbus.Call {
	panic("stubObject.Go not implemented")
}

func (o stubObject) GoWithContext(ctx context.Context, method string, flags dbus.Flags, ch chan *dbus.Call, args ...interface{}) *dbus.Call {
	panic("stubObject.GoWithContext not implemented")
}

func (o stubObject) AddMatchSignal(iface, member string, options ...dbus.MatchOption) *dbus.Call {
	return &dbus.Call{}
}

func (o stubObject) RemoveMatchSignal(iface, member string, options ...dbus.MatchOption) *dbus.Call {
	return &dbus.Call{}
}

func (o stubObject) GetProperty(p string) (dbus.Variant, error) {
	return dbus.Variant{}, errors.New("stubObject.GetProperty not implemented")
}

func (o stubObject) StoreProperty(p string, value interface{}) error {
	return errors.New("stubObject.StoreProperty not implemented")
}

func (o stubObject) SetProperty(p string, v interface{}) error {
	return errors.New("stubObject.SetProperty not implemented")
}

func (o stubObject) Destination() string   { return o.dest }
func (o stubObject) Path() dbus.ObjectPath { return o.path }
