// SPDX-License-Identifier: Apache-2.0

package filedialog

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/akihiro/portal-filedialog/internal/handle"
)

const (
	portalBusName    = "org.freedesktop.portal.Desktop"
	portalObjectPath = dbus.ObjectPath("/org/freedesktop/portal/desktop")

	fileChooserIface = "org.freedesktop.portal.FileChooser"
	methodOpenFile   = fileChooserIface + ".OpenFile"
	methodSaveFile   = fileChooserIface + ".SaveFile"

	responseSignal = "org.freedesktop.portal.Request.Response"

	// signalBuffer must be large enough that signals arriving while the
	// driver is blocked in the method call are not discarded by godbus.
	signalBuffer = 16
)

// Conn is the slice of a session-bus connection the dialog driver needs.
// *dbus.Conn satisfies it through the sessionConn adapter; tests substitute
// a stub bus.
type Conn interface {
	UniqueName() string
	AddMatchSignal(options ...dbus.MatchOption) error
	RemoveMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	Close() error
}

// sessionConn adapts *dbus.Conn to Conn.
type sessionConn struct {
	*dbus.Conn
	unique string
}

func (c sessionConn) UniqueName() string { return c.unique }

// request is one in-flight portal call: the predicted handle path, the
// installed match rules, and the signal channel the response arrives on.
type request struct {
	conn    Conn
	path    dbus.ObjectPath
	token   string
	rules   []handle.MatchRule
	signals chan *dbus.Signal
}

// newRequest generates the handle and installs the Response subscription.
// The signal channel is registered before anything is sent so that a
// response emitted during the method call is queued, not lost.
func newRequest(conn Conn) (*request, error) {
	token, err := handle.Token()
	if err != nil {
		return nil, fmt.Errorf("generate handle token: %w", err)
	}
	r := &request{
		conn:    conn,
		token:   token,
		path:    handle.RequestPath(conn.UniqueName(), token),
		signals: make(chan *dbus.Signal, signalBuffer),
	}
	rule := handle.ResponseRule(r.path, conn.UniqueName())
	if err := conn.AddMatchSignal(rule.Options()...); err != nil {
		return nil, fmt.Errorf("subscribe to portal response: %w", err)
	}
	r.rules = append(r.rules, rule)
	conn.Signal(r.signals)
	return r, nil
}

// send issues the method call and blocks for its reply. If the portal
// allocated a request object under a different path than predicted, a
// second subscription is installed on it; the original stays in place until
// teardown.
func (r *request) send(method, parent, title string, options map[string]dbus.Variant) error {
	call := r.conn.Object(portalBusName, portalObjectPath).Call(method, 0, parent, title, options)
	if call.Err != nil {
		return fmt.Errorf("portal call %s: %w", method, call.Err)
	}
	var replyPath dbus.ObjectPath
	if err := call.Store(&replyPath); err != nil {
		return fmt.Errorf("portal reply is not an object path: %w", err)
	}
	if replyPath != r.path {
		rule := handle.ResponseRule(replyPath, r.conn.UniqueName())
		if err := r.conn.AddMatchSignal(rule.Options()...); err != nil {
			return fmt.Errorf("rebind portal response subscription: %w", err)
		}
		r.rules = append(r.rules, rule)
	}
	return nil
}

// wait pumps queued signals until the Response arrives. A closed channel
// means the bus went away without answering.
func (r *request) wait() (*dbus.Signal, error) {
	for sig := range r.signals {
		if sig.Name == responseSignal {
			return sig, nil
		}
	}
	return nil, ErrNoReply
}

// close removes the signal channel and every installed match rule. Removal
// failures are suppressed: this is cleanup.
func (r *request) close() {
	r.conn.RemoveSignal(r.signals)
	for _, rule := range r.rules {
		_ = r.conn.RemoveMatchSignal(rule.Options()...)
	}
}
