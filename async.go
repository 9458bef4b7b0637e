// SPDX-License-Identifier: Apache-2.0

package filedialog

import (
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/akihiro/portal-filedialog/internal/query"
	"github.com/akihiro/portal-filedialog/internal/response"
	"github.com/akihiro/portal-filedialog/internal/uri"
)

// DialogMonitor couples a background dialog worker to the caller's
// poll/retrieve protocol. The worker writes the result exactly once under
// the mutex and exits; after Done reports true no goroutine remains.
type DialogMonitor struct {
	bridge    *Bridge
	multiple  bool
	appendExt bool

	mu        sync.Mutex
	completed bool
	err       error
	out       []byte
}

// startAsync runs the subscribe/send/rebind stages synchronously so that
// immediately detectable failures surface on the caller, then hands the
// pump stage to a worker.
func (b *Bridge) startAsync(method string, save, multiple bool, qp *query.Params) (*DialogMonitor, error) {
	r, err := newRequest(b.conn)
	if err != nil {
		return nil, b.fail(err)
	}
	var parent, title string
	var opts map[string]dbus.Variant
	if save {
		parent, title, opts = query.SaveArgs(r.token, qp)
	} else {
		parent, title, opts = query.OpenArgs(r.token, qp)
	}
	if err := r.send(method, parent, title, opts); err != nil {
		r.close()
		return nil, b.fail(err)
	}
	m := &DialogMonitor{
		bridge:    b,
		multiple:  multiple,
		appendExt: save && b.appendExt,
	}
	go m.run(r)
	return m, nil
}

// run is the worker: pump until the response, decode, publish, tear down.
func (m *DialogMonitor) run(r *request) {
	out, err := m.collect(r)
	r.close()
	m.mu.Lock()
	m.out = out
	m.err = err
	m.completed = true
	m.mu.Unlock()
}

func (m *DialogMonitor) collect(r *request) ([]byte, error) {
	sig, err := r.wait()
	if err != nil {
		return nil, err
	}
	results, err := response.Results(sig.Body)
	if err != nil {
		return nil, err
	}
	if m.multiple {
		uris, err := response.URIs(results)
		if err != nil {
			return nil, err
		}
		return packMultiPath(uris)
	}
	u, err := response.SingleURI(results)
	if err != nil {
		return nil, err
	}
	var p string
	if m.appendExt {
		extn, _ := response.CurrentFilterExtension(results)
		p, err = uri.DecodePathAppendExtension(u, extn)
	} else {
		p, err = uri.DecodePath(u)
	}
	if err != nil {
		return nil, err
	}
	return append([]byte(p), 0), nil
}

// Done reports whether the worker has published its result.
func (m *DialogMonitor) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed
}

// Result hands the decoded output buffer to the caller. The first call
// after completion transfers ownership; later calls return a nil buffer
// with a nil error, so retrieval is idempotent. Calling before completion
// is an error. Cancelled dialogs surface as ErrCancelled.
func (m *DialogMonitor) Result() ([]byte, error) {
	m.mu.Lock()
	completed, err := m.completed, m.err
	var out []byte
	if completed && err == nil {
		out = m.out
		m.out = nil
	}
	m.mu.Unlock()

	if !completed {
		return nil, m.bridge.fail(ErrNotReady)
	}
	if err != nil {
		return nil, m.bridge.fail(err)
	}
	return out, nil
}

// OpenDialogAsync starts a single-file open dialog on a worker. The
// monitor's buffer holds the NUL-terminated selected path.
func (b *Bridge) OpenDialogAsync(p *DialogParams) (*DialogMonitor, error) {
	return b.startAsync(methodOpenFile, false, false, p.queryParams(false, false))
}

// OpenDialogMultipleAsync starts a multi-select open dialog on a worker.
// The monitor's buffer holds the packed multi-path format.
func (b *Bridge) OpenDialogMultipleAsync(p *DialogParams) (*DialogMonitor, error) {
	return b.startAsync(methodOpenFile, false, true, p.queryParams(true, false))
}

// SaveDialogAsync starts a save dialog on a worker.
func (b *Bridge) SaveDialogAsync(p *DialogParams) (*DialogMonitor, error) {
	return b.startAsync(methodSaveFile, true, false, p.queryParams(false, false))
}

// PickFolderAsync starts a folder-selection dialog on a worker.
func (b *Bridge) PickFolderAsync(p *DialogParams) (*DialogMonitor, error) {
	return b.startAsync(methodOpenFile, false, false, p.queryParams(false, true))
}
