// SPDX-License-Identifier: Apache-2.0

package response

import (
	"errors"
	"reflect"
	"testing"

	"github.com/godbus/dbus/v5"
)

func okBody(results map[string]dbus.Variant) []interface{} {
	return []interface{}{uint32(0), results}
}

func TestResultsSuccess(t *testing.T) {
	want := map[string]dbus.Variant{"uris": dbus.MakeVariant([]string{"file:///x"})}
	got, err := Results(okBody(want))
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("results = %v", got)
	}
}

func TestResultsCancelled(t *testing.T) {
	_, err := Results([]interface{}{uint32(1), map[string]dbus.Variant{}})
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", err)
	}
}

func TestResultsAborted(t *testing.T) {
	for _, code := range []uint32{2, 3, 99} {
		_, err := Results([]interface{}{code, map[string]dbus.Variant{}})
		if !errors.Is(err, ErrAborted) {
			t.Errorf("code %d: err = %v, want ErrAborted", code, err)
		}
	}
}

func TestResultsShapeErrors(t *testing.T) {
	bodies := [][]interface{}{
		nil,
		{uint32(0)},
		{"not-a-code", map[string]dbus.Variant{}},
		{uint32(0), "not-a-dict"},
	}
	for _, body := range bodies {
		if _, err := Results(body); err == nil {
			t.Errorf("Results(%v) succeeded, want error", body)
		}
	}
}

func TestURIs(t *testing.T) {
	results := map[string]dbus.Variant{
		"uris":  dbus.MakeVariant([]string{"file:///a", "file:///b"}),
		"other": dbus.MakeVariant("ignored"),
	}
	uris, err := URIs(results)
	if err != nil {
		t.Fatalf("URIs: %v", err)
	}
	if !reflect.DeepEqual(uris, []string{"file:///a", "file:///b"}) {
		t.Errorf("uris = %v", uris)
	}
}

func TestURIsMissingOrWrongType(t *testing.T) {
	if _, err := URIs(map[string]dbus.Variant{}); err == nil {
		t.Error("missing uris key must fail")
	}
	if _, err := URIs(map[string]dbus.Variant{"uris": dbus.MakeVariant("x")}); err == nil {
		t.Error("non-array uris must fail")
	}
}

func TestSingleURI(t *testing.T) {
	results := map[string]dbus.Variant{"uris": dbus.MakeVariant([]string{"file:///a", "file:///b"})}
	uri, err := SingleURI(results)
	if err != nil {
		t.Fatalf("SingleURI: %v", err)
	}
	if uri != "file:///a" {
		t.Errorf("uri = %q", uri)
	}
	if _, err := SingleURI(map[string]dbus.Variant{"uris": dbus.MakeVariant([]string{})}); err == nil {
		t.Error("empty uris array must fail")
	}
}

func currentFilterResults(entry interface{}) map[string]dbus.Variant {
	return map[string]dbus.Variant{"current_filter": dbus.MakeVariant(entry)}
}

func TestCurrentFilterExtension(t *testing.T) {
	entry := []interface{}{"Text", [][]interface{}{{uint32(0), "*.txt"}}}
	extn, ok := CurrentFilterExtension(currentFilterResults(entry))
	if !ok || extn != "txt" {
		t.Errorf("got (%q, %v), want (txt, true)", extn, ok)
	}
}

func TestCurrentFilterExtensionBestEffort(t *testing.T) {
	malformed := []interface{}{
		"not-a-struct",
		[]interface{}{"Name"},
		[]interface{}{"Name", "not-rules"},
		[]interface{}{"Name", [][]interface{}{}},
		[]interface{}{"Name", [][]interface{}{{uint32(1), "*.txt"}}}, // MIME kind
		[]interface{}{"All", [][]interface{}{{uint32(0), "*"}}},     // no *. prefix
		[]interface{}{"Odd", [][]interface{}{{uint32(0), "*."}}},    // empty extension
	}
	for _, entry := range malformed {
		if extn, ok := CurrentFilterExtension(currentFilterResults(entry)); ok {
			t.Errorf("entry %v yielded (%q, true), want best-effort miss", entry, extn)
		}
	}
	if _, ok := CurrentFilterExtension(map[string]dbus.Variant{}); ok {
		t.Error("missing current_filter must miss")
	}
}
