// SPDX-License-Identifier: Apache-2.0

package filedialog

import (
	"github.com/godbus/dbus/v5"

	"github.com/akihiro/portal-filedialog/internal/filter"
	"github.com/akihiro/portal-filedialog/internal/query"
	"github.com/akihiro/portal-filedialog/internal/response"
	"github.com/akihiro/portal-filedialog/internal/uri"
)

// FilterItem is one native-shape filter: a display name plus a
// comma-separated list of bare extensions, e.g. {"Source", "c,cpp"}.
// No wildcards, no dots.
type FilterItem struct {
	Name string
	Spec string
}

// DialogParams describes one dialog request. The zero value asks for an
// unfiltered dialog with the default title for its kind. A request is
// immutable once submitted.
//
// Filters and WinFilter are the two accepted filter shapes; WinFilter is
// the Windows-style "name\x00pattern\x00…\x00\x00" buffer and takes
// precedence when both are set. FilterIndex selects into WinFilter,
// 1-based; 0 or out-of-range falls back to the first entry.
type DialogParams struct {
	Title        string
	ParentWindow uint64 // X11 window id, passed through opaquely; 0 means none
	DefaultPath  string
	DefaultName  string // save dialogs only
	Filters      []FilterItem
	WinFilter    string
	FilterIndex  uint
}

func (p *DialogParams) queryParams(multiple, directory bool) *query.Params {
	qp := &query.Params{
		Multiple:  multiple,
		Directory: directory,
	}
	if p != nil {
		qp.Title = p.Title
		qp.ParentWindow = p.ParentWindow
		qp.DefaultPath = p.DefaultPath
		qp.DefaultName = p.DefaultName
		qp.WinFilter = p.WinFilter
		qp.FilterIndex = p.FilterIndex
		for _, it := range p.Filters {
			qp.Filters = append(qp.Filters, filter.Item{Name: it.Name, Spec: it.Spec})
		}
	}
	return qp
}

// roundTrip runs one complete synchronous dialog: subscribe, send, rebind
// if needed, pump until the Response signal arrives.
func (b *Bridge) roundTrip(method string, save bool, qp *query.Params) (*dbus.Signal, error) {
	r, err := newRequest(b.conn)
	if err != nil {
		return nil, err
	}
	defer r.close()

	var parent, title string
	var opts map[string]dbus.Variant
	if save {
		parent, title, opts = query.SaveArgs(r.token, qp)
	} else {
		parent, title, opts = query.OpenArgs(r.token, qp)
	}
	if err := r.send(method, parent, title, opts); err != nil {
		return nil, err
	}
	return r.wait()
}

func (b *Bridge) openSingle(p *DialogParams, directory bool) (string, error) {
	sig, err := b.roundTrip(methodOpenFile, false, p.queryParams(false, directory))
	if err != nil {
		return "", b.fail(err)
	}
	results, err := response.Results(sig.Body)
	if err != nil {
		return "", b.fail(err)
	}
	u, err := response.SingleURI(results)
	if err != nil {
		return "", b.fail(err)
	}
	path, err := uri.DecodePath(u)
	if err != nil {
		return "", b.fail(err)
	}
	return path, nil
}

// OpenDialog shows a single-file open dialog and returns the selected path.
func (b *Bridge) OpenDialog(p *DialogParams) (string, error) {
	return b.openSingle(p, false)
}

// PickFolder shows a folder-selection dialog. Filters never apply to
// folder picks.
func (b *Bridge) PickFolder(p *DialogParams) (string, error) {
	return b.openSingle(p, true)
}

// OpenDialogMultiple shows a multi-select open dialog and returns the
// selection as a PathSet view over the retained response.
func (b *Bridge) OpenDialogMultiple(p *DialogParams) (*PathSet, error) {
	sig, err := b.roundTrip(methodOpenFile, false, p.queryParams(true, false))
	if err != nil {
		return nil, b.fail(err)
	}
	results, err := response.Results(sig.Body)
	if err != nil {
		return nil, b.fail(err)
	}
	uris, err := response.URIs(results)
	if err != nil {
		return nil, b.fail(err)
	}
	return &PathSet{sig: sig, uris: uris}, nil
}

// OpenDialogMultiplePacked shows a multi-select open dialog and returns the
// selection in the flat packed format: for one selected file the full path,
// otherwise the first path's directory followed by every basename, each record
// NUL-terminated with a final extra NUL.
func (b *Bridge) OpenDialogMultiplePacked(p *DialogParams) ([]byte, error) {
	set, err := b.OpenDialogMultiple(p)
	if err != nil {
		return nil, err
	}
	out, err := packMultiPath(set.uris)
	if err != nil {
		return nil, b.fail(err)
	}
	return out, nil
}

// SaveDialog shows a save dialog and returns the chosen path. With
// SetAppendExtension enabled, the selected filter's extension is appended
// when the chosen name has none.
func (b *Bridge) SaveDialog(p *DialogParams) (string, error) {
	sig, err := b.roundTrip(methodSaveFile, true, p.queryParams(false, false))
	if err != nil {
		return "", b.fail(err)
	}
	results, err := response.Results(sig.Body)
	if err != nil {
		return "", b.fail(err)
	}
	u, err := response.SingleURI(results)
	if err != nil {
		return "", b.fail(err)
	}
	path, err := b.decodeSavePath(results, u)
	if err != nil {
		return "", b.fail(err)
	}
	return path, nil
}

func (b *Bridge) decodeSavePath(results map[string]dbus.Variant, u string) (string, error) {
	if !b.appendExt {
		return uri.DecodePath(u)
	}
	extn, _ := response.CurrentFilterExtension(results)
	return uri.DecodePathAppendExtension(u, extn)
}
