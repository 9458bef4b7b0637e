// SPDX-License-Identifier: Apache-2.0

package filedialog

import (
	"fmt"
	"path/filepath"

	"github.com/godbus/dbus/v5"

	"github.com/akihiro/portal-filedialog/internal/uri"
)

// FileManagerMode selects how a path is revealed in the desktop file
// manager.
type FileManagerMode int

const (
	// RevealFolder opens the path itself as a folder.
	RevealFolder FileManagerMode = iota
	// RevealItem opens the containing folder with the item selected.
	RevealItem
)

const (
	fileManagerBusName    = "org.freedesktop.FileManager1"
	fileManagerObjectPath = dbus.ObjectPath("/org/freedesktop/FileManager1")
	fileManagerIface      = "org.freedesktop.FileManager1"

	methodShowFolders = fileManagerIface + ".ShowFolders"
	methodShowItems   = fileManagerIface + ".ShowItems"
)

// ShowInFileManager reveals path in the desktop file manager through
// org.freedesktop.FileManager1. With resolveSymlinks the path is first
// canonicalized the way realpath(3) would.
func (b *Bridge) ShowInFileManager(path string, mode FileManagerMode, resolveSymlinks bool) error {
	var method string
	switch mode {
	case RevealFolder:
		method = methodShowFolders
	case RevealItem:
		method = methodShowItems
	default:
		return b.fail(fmt.Errorf("unknown file manager mode %d", mode))
	}

	if resolveSymlinks {
		abs, err := filepath.Abs(path)
		if err != nil {
			return b.fail(fmt.Errorf("resolve path %q: %w", path, err))
		}
		path, err = filepath.EvalSymlinks(abs)
		if err != nil {
			return b.fail(fmt.Errorf("resolve path %q: %w", abs, err))
		}
	}

	// The second argument is the startup notification id; we have none.
	call := b.conn.Object(fileManagerBusName, fileManagerObjectPath).
		Call(method, 0, []string{uri.ToFileURI(path)}, "")
	if call.Err != nil {
		return b.fail(fmt.Errorf("file manager call %s: %w", method, call.Err))
	}
	return nil
}
