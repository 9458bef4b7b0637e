// SPDX-License-Identifier: Apache-2.0

// Package response decodes the portal's Response signal body:
// (uint32 response_code, a{sv} results).
package response

import (
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

var (
	// ErrCancelled is the terminal for response code 1: the user dismissed
	// the dialog.
	ErrCancelled = errors.New("file dialog cancelled by user")

	// ErrAborted is the terminal for response codes above 1.
	ErrAborted = errors.New("file dialog interaction was ended abruptly")
)

// Results validates the signal body and returns the results dictionary.
// Unknown keys in the dictionary are left for callers to ignore.
func Results(body []interface{}) (map[string]dbus.Variant, error) {
	if len(body) < 2 {
		return nil, errors.New("response signal is missing one or more arguments")
	}
	code, ok := body[0].(uint32)
	if !ok {
		return nil, fmt.Errorf("response signal argument is not a uint32: %T", body[0])
	}
	switch {
	case code == 1:
		return nil, ErrCancelled
	case code != 0:
		return nil, ErrAborted
	}
	results, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("response signal argument is not a dictionary: %T", body[1])
	}
	return results, nil
}

// URIs extracts the uris entry as an array of strings.
func URIs(results map[string]dbus.Variant) ([]string, error) {
	v, ok := results["uris"]
	if !ok {
		return nil, errors.New("response signal has no URI field")
	}
	uris, ok := v.Value().([]string)
	if !ok {
		return nil, fmt.Errorf("response signal URI field is not an array of strings: %T", v.Value())
	}
	return uris, nil
}

// SingleURI returns the first element of the URI array.
func SingleURI(results map[string]dbus.Variant) (string, error) {
	uris, err := URIs(results)
	if err != nil {
		return "", err
	}
	if len(uris) == 0 {
		return "", errors.New("response signal URI array is empty")
	}
	return uris[0], nil
}

// CurrentFilterExtension reads the extension selected by the dialog's
// current_filter entry, best-effort: any structural mismatch yields ok=false
// rather than an error. The entry must be a (name, patterns) struct whose
// first pattern is a glob of the form "*.ext"; the returned extension has
// the leading "*." trimmed.
func CurrentFilterExtension(results map[string]dbus.Variant) (extn string, ok bool) {
	v, present := results["current_filter"]
	if !present {
		return "", false
	}
	entry, ok := v.Value().([]interface{})
	if !ok || len(entry) != 2 {
		return "", false
	}
	rules, ok := entry[1].([][]interface{})
	if !ok || len(rules) == 0 || len(rules[0]) != 2 {
		return "", false
	}
	kind, ok := rules[0][0].(uint32)
	if !ok || kind != 0 {
		return "", false
	}
	pattern, ok := rules[0][1].(string)
	if !ok || !strings.HasPrefix(pattern, "*.") || len(pattern) == 2 {
		return "", false
	}
	return pattern[2:], true
}
