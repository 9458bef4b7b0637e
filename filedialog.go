// SPDX-License-Identifier: Apache-2.0

// Package filedialog drives native file dialogs on Linux desktops through
// the XDG Desktop Portal (org.freedesktop.portal.FileChooser) over the
// session D-Bus. Applications see decoded filesystem paths, never D-Bus.
//
// A Bridge owns one private bus connection and the last-error slot. Most
// programs use the package-level surface backed by a default bridge:
//
//	if err := filedialog.Init(); err != nil {
//		log.Fatal(err)
//	}
//	defer filedialog.Teardown()
//
//	path, err := filedialog.OpenDialog(&filedialog.DialogParams{
//		Filters: []filedialog.FilterItem{{Name: "Source", Spec: "c,cpp"}},
//	})
//
// A user dismissing the dialog surfaces as ErrCancelled, distinct from
// every failure condition.
package filedialog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

// Bridge is the process-wide portal state: the session-bus connection and
// the last-error message slot. At most one dialog may be in flight per
// bridge; incoming messages are pulled from a single queue.
type Bridge struct {
	conn      Conn
	appendExt bool

	mu      sync.Mutex
	lastErr string
}

// Connect opens a private session-bus connection and captures its unique
// name, which the portal request handles are derived from.
func Connect() (*Bridge, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}
	names := conn.Names()
	if len(names) == 0 || names[0] == "" {
		_ = conn.Close()
		return nil, errors.New("unable to get the unique name of the bus connection")
	}
	return newBridge(sessionConn{Conn: conn, unique: names[0]}), nil
}

func newBridge(conn Conn) *Bridge {
	return &Bridge{conn: conn}
}

// Close tears the bus connection down. Outstanding async monitors observe
// it as ErrNoReply.
func (b *Bridge) Close() error {
	return b.conn.Close()
}

// SetAppendExtension makes save dialogs append the selected filter's
// extension when the chosen filename has none. Desktop convention on Linux
// is to not append; enable this for consistency with other platforms.
func (b *Bridge) SetAppendExtension(on bool) {
	b.appendExt = on
}

// LastError returns the message of the most recent failure, or "" if none
// occurred since the last ClearError. Cancelled dialogs do not touch it.
func (b *Bridge) LastError() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// ClearError empties the last-error slot.
func (b *Bridge) ClearError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastErr = ""
}

// fail records err in the last-error slot and passes it through. Cancel is
// a terminal, not a failure, and leaves the slot alone.
func (b *Bridge) fail(err error) error {
	if err != nil && !errors.Is(err, ErrCancelled) {
		b.mu.Lock()
		b.lastErr = err.Error()
		b.mu.Unlock()
	}
	return err
}

// --- package-level surface over a default bridge ---

var (
	defaultMu     sync.Mutex
	defaultBridge *Bridge
	initErr       string
)

// Init connects the default bridge. Calling Init on an initialized package
// is a no-op.
func Init() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBridge != nil {
		return nil
	}
	b, err := Connect()
	if err != nil {
		initErr = err.Error()
		return err
	}
	initErr = ""
	defaultBridge = b
	return nil
}

// Teardown closes the default bridge. Always succeeds; close errors are
// discarded.
func Teardown() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBridge != nil {
		_ = defaultBridge.Close()
		defaultBridge = nil
	}
}

var errNotInitialized = errors.New("filedialog: Init has not been called")

func bridge() (*Bridge, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBridge == nil {
		return nil, errNotInitialized
	}
	return defaultBridge, nil
}

// GetError returns the default bridge's last error message, or the Init
// failure when no bridge exists.
func GetError() string {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBridge == nil {
		return initErr
	}
	return defaultBridge.LastError()
}

// ClearError empties the default bridge's last-error slot.
func ClearError() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	initErr = ""
	if defaultBridge != nil {
		defaultBridge.ClearError()
	}
}

// OpenDialog shows a single-file open dialog on the default bridge.
func OpenDialog(p *DialogParams) (string, error) {
	b, err := bridge()
	if err != nil {
		return "", err
	}
	return b.OpenDialog(p)
}

// OpenDialogMultiple shows a multi-select open dialog on the default bridge.
func OpenDialogMultiple(p *DialogParams) (*PathSet, error) {
	b, err := bridge()
	if err != nil {
		return nil, err
	}
	return b.OpenDialogMultiple(p)
}

// OpenDialogMultiplePacked is OpenDialogMultiple returning the flat packed
// buffer format.
func OpenDialogMultiplePacked(p *DialogParams) ([]byte, error) {
	b, err := bridge()
	if err != nil {
		return nil, err
	}
	return b.OpenDialogMultiplePacked(p)
}

// SaveDialog shows a save dialog on the default bridge.
func SaveDialog(p *DialogParams) (string, error) {
	b, err := bridge()
	if err != nil {
		return "", err
	}
	return b.SaveDialog(p)
}

// PickFolder shows a folder-selection dialog on the default bridge.
func PickFolder(p *DialogParams) (string, error) {
	b, err := bridge()
	if err != nil {
		return "", err
	}
	return b.PickFolder(p)
}

// ShowInFileManager reveals a path in the desktop file manager via the
// default bridge.
func ShowInFileManager(path string, mode FileManagerMode, resolveSymlinks bool) error {
	b, err := bridge()
	if err != nil {
		return err
	}
	return b.ShowInFileManager(path, mode, resolveSymlinks)
}

// OpenDialogAsync is the asynchronous form of OpenDialog.
func OpenDialogAsync(p *DialogParams) (*DialogMonitor, error) {
	b, err := bridge()
	if err != nil {
		return nil, err
	}
	return b.OpenDialogAsync(p)
}

// OpenDialogMultipleAsync is the asynchronous form of OpenDialogMultiplePacked.
func OpenDialogMultipleAsync(p *DialogParams) (*DialogMonitor, error) {
	b, err := bridge()
	if err != nil {
		return nil, err
	}
	return b.OpenDialogMultipleAsync(p)
}

// SaveDialogAsync is the asynchronous form of SaveDialog.
func SaveDialogAsync(p *DialogParams) (*DialogMonitor, error) {
	b, err := bridge()
	if err != nil {
		return nil, err
	}
	return b.SaveDialogAsync(p)
}

// PickFolderAsync is the asynchronous form of PickFolder.
func PickFolderAsync(p *DialogParams) (*DialogMonitor, error) {
	b, err := bridge()
	if err != nil {
		return nil, err
	}
	return b.PickFolderAsync(p)
}
