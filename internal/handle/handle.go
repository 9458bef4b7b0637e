// SPDX-License-Identifier: Apache-2.0

// Package handle generates portal request object paths and the match rules
// that capture their Response signals.
//
// The flatpak portal convention is that a request made with option
// handle_token=TOKEN emits its Response on the object path
// /org/freedesktop/portal/desktop/request/SENDER/TOKEN, where SENDER is the
// caller's unique bus name with the leading ':' stripped and every '.'
// replaced by '_'. Predicting the path lets us subscribe before the call so
// no signal is lost.
package handle

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"
)

const (
	requestPathPrefix = "/org/freedesktop/portal/desktop/request/"

	portalBusName = "org.freedesktop.portal.Desktop"
	requestIface  = "org.freedesktop.portal.Request"
	responseName  = "Response"
)

// Token returns 64 characters drawn from 'A'..'P', two per byte of OS
// randomness (low nibble first). Reads retry on EINTR until 32 bytes have
// been gathered.
func Token() (string, error) {
	buf := make([]byte, 32)
	for n := 0; n < len(buf); {
		m, err := unix.Getrandom(buf[n:], 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("getrandom: %w", err)
		}
		n += m
	}
	out := make([]byte, 2*len(buf))
	for i, b := range buf {
		out[2*i] = 'A' + b&15
		out[2*i+1] = 'A' + b>>4
	}
	return string(out), nil
}

// RequestPath builds the request object path for this connection and token.
func RequestPath(uniqueName, token string) dbus.ObjectPath {
	sender := strings.TrimPrefix(uniqueName, ":")
	sender = strings.ReplaceAll(sender, ".", "_")
	return dbus.ObjectPath(requestPathPrefix + sender + "/" + token)
}

// MatchRule describes one signal subscription installed on the bus.
type MatchRule struct {
	Sender      string
	Path        dbus.ObjectPath
	Interface   string
	Member      string
	Destination string
}

// ResponseRule is the subscription for a portal Response signal on path,
// addressed to our connection.
func ResponseRule(path dbus.ObjectPath, destination string) MatchRule {
	return MatchRule{
		Sender:      portalBusName,
		Path:        path,
		Interface:   requestIface,
		Member:      responseName,
		Destination: destination,
	}
}

// Options returns the rule in the form godbus AddMatchSignal expects.
func (r MatchRule) Options() []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchSender(r.Sender),
		dbus.WithMatchObjectPath(r.Path),
		dbus.WithMatchInterface(r.Interface),
		dbus.WithMatchMember(r.Member),
		dbus.WithMatchOption("destination", r.Destination),
	}
}

// String renders the canonical bus match-rule form.
func (r MatchRule) String() string {
	return fmt.Sprintf("type='signal',sender='%s',path='%s',interface='%s',member='%s',destination='%s'",
		r.Sender, r.Path, r.Interface, r.Member, r.Destination)
}
