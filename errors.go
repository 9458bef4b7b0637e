package filedialog

import (
	"errors"

	"github.com/akihiro/portal-filedialog/internal/response"
	"github.com/akihiro/portal-filedialog/internal/uri"
)

var (
	// ErrCancelled reports that the user dismissed the dialog. It is a
	// distinct terminal, not an error condition: the bridge's last-error
	// slot is left untouched.
	ErrCancelled = response.ErrCancelled

	// ErrAborted reports that the portal ended the interaction with a
	// response code above 1.
	ErrAborted = response.ErrAborted

	// ErrNoReply reports that the bus shut down before a Response signal
	// arrived.
	ErrNoReply = errors.New("freedesktop portal did not give us a reply")

	// ErrMalformedURI and ErrNotFileURI surface URI decoding failures.
	ErrMalformedURI = uri.ErrMalformed
	ErrNotFileURI   = uri.ErrNotFile

	// ErrNotReady is returned by DialogMonitor.Result before the worker
	// has finished.
	ErrNotReady = errors.New("dialog response is not ready")
)
