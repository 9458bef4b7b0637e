// SPDX-License-Identifier: Apache-2.0

// Package query assembles the argument tuples for the portal's OpenFile and
// SaveFile calls: (parent_window s, title s, options a{sv}).
package query

import (
	"fmt"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/akihiro/portal-filedialog/internal/filter"
)

// Params carries everything a dialog request may specify. A Params value is
// treated as immutable once handed to a builder.
type Params struct {
	Title        string
	ParentWindow uint64 // X11 window id; 0 means none
	DefaultPath  string
	DefaultName  string
	Filters      []filter.Item // native shape
	WinFilter    string        // Windows shape; takes precedence when set
	FilterIndex  uint          // 1-based selection into WinFilter
	Multiple     bool
	Directory    bool
}

// Title resolves the dialog title, falling back to the portal-conventional
// defaults by dialog kind.
func Title(p *Params, save bool) string {
	if p.Title != "" {
		return p.Title
	}
	switch {
	case save:
		return "Save File"
	case p.Directory:
		return "Select Folder"
	case p.Multiple:
		return "Open Files"
	default:
		return "Open File"
	}
}

// ParentWindow formats the parent window identifier the way the portal
// expects, or returns the empty string when there is none.
func ParentWindow(id uint64) string {
	if id == 0 {
		return ""
	}
	return fmt.Sprintf("x11:%08x", id)
}

// OpenArgs builds the argument tuple for an OpenFile call.
func OpenArgs(handleToken string, p *Params) (parent, title string, opts map[string]dbus.Variant) {
	opts = map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(handleToken),
	}
	if p.Multiple {
		opts["multiple"] = dbus.MakeVariant(true)
	}
	if p.Directory {
		opts["directory"] = dbus.MakeVariant(true)
	} else {
		addFilters(opts, p, "")
	}
	return ParentWindow(p.ParentWindow), Title(p, false), opts
}

// SaveArgs builds the argument tuple for a SaveFile call.
func SaveArgs(handleToken string, p *Params) (parent, title string, opts map[string]dbus.Variant) {
	opts = map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(handleToken),
	}
	addFilters(opts, p, p.DefaultName)
	if p.DefaultName != "" {
		opts["current_name"] = dbus.MakeVariant(p.DefaultName)
	}
	if p.DefaultPath != "" {
		opts["current_folder"] = dbus.MakeVariant(nulTerminated(p.DefaultPath))
	}
	addCurrentFile(opts, p.DefaultPath, p.DefaultName)
	return ParentWindow(p.ParentWindow), Title(p, true), opts
}

// addFilters emits the filters and current_filter entries. defaultName is
// non-empty only for save dialogs, where the extension of the suggested
// filename selects the current filter among the native list.
func addFilters(opts map[string]dbus.Variant, p *Params, defaultName string) {
	if p.WinFilter != "" {
		addWinFilters(opts, p.WinFilter, p.FilterIndex)
		return
	}
	if len(p.Filters) == 0 {
		return
	}

	extn := filter.ExtensionOf(defaultName)
	matched := -1
	encoded := make([]filter.Filter, 0, len(p.Filters)+1)
	for i, it := range p.Filters {
		if matched < 0 && filter.MatchesExtension(it, extn) {
			matched = i
		}
		encoded = append(encoded, filter.FromItem(it))
	}
	encoded = append(encoded, filter.Wildcard(""))

	current := encoded[0]
	if defaultName != "" {
		// Save dialogs preselect the filter matching the suggested name's
		// extension, or the wildcard when nothing matches.
		if matched >= 0 {
			current = encoded[matched]
		} else {
			current = filter.Wildcard("")
		}
	}

	opts["filters"] = dbus.MakeVariant(encoded)
	opts["current_filter"] = dbus.MakeVariant(current)
}

// addWinFilters encodes a Windows-shape buffer. filterIndex is 1-based;
// zero or out-of-range selections fall back to the first entry.
func addWinFilters(opts map[string]dbus.Variant, buf string, filterIndex uint) {
	entries := filter.ParseWin(buf)
	if len(entries) == 0 {
		return
	}
	encoded := make([]filter.Filter, len(entries))
	for i, e := range entries {
		encoded[i] = filter.FromWinEntry(e.Name, e.Pattern)
	}
	sel := 0
	if filterIndex >= 1 && int(filterIndex) <= len(entries) {
		sel = int(filterIndex) - 1
	}
	opts["filters"] = dbus.MakeVariant(encoded)
	opts["current_filter"] = dbus.MakeVariant(encoded[sel])
}

// addCurrentFile points the save dialog at an existing file, but only when
// defaultPath joined with defaultName names one.
func addCurrentFile(opts map[string]dbus.Variant, dir, name string) {
	if dir == "" || name == "" {
		return
	}
	joined := dir
	if !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	joined += name
	if _, err := os.Stat(joined); err != nil {
		return
	}
	opts["current_file"] = dbus.MakeVariant(nulTerminated(joined))
}

// nulTerminated renders a path as the NUL-terminated byte array the portal
// requires for ay-typed entries.
func nulTerminated(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
