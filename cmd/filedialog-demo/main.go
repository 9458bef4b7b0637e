// SPDX-License-Identifier: Apache-2.0

//go:build linux

// filedialog-demo drives the portal file-dialog bridge from the command
// line. It needs a running user-session bus with xdg-desktop-portal on it.
//
// Usage:
//
//	filedialog-demo [flags]
//
// Flags:
//
//	--mode         open | open-multi | save | folder | reveal | reveal-item
//	--title        dialog title (portal default if empty)
//	--default-path suggested folder (save) or path to reveal
//	--default-name suggested file name (save)
//	--filter       name:spec filter, e.g. "Source:c,cpp" (repeatable)
//	--win-filter   Windows-style filter with | for NUL, e.g. "Text|*.TXT"
//	--filter-index 1-based selection into --win-filter
//	--async        run the dialog on a worker and poll for completion
//	--realpath     canonicalize the path before revealing it
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	filedialog "github.com/akihiro/portal-filedialog"
)

func main() {
	mode := flag.String("mode", "open", "open | open-multi | save | folder | reveal | reveal-item")
	title := flag.String("title", "", "dialog title")
	defaultPath := flag.String("default-path", "", "suggested folder, or the path to reveal")
	defaultName := flag.String("default-name", "", "suggested file name (save)")
	winFilter := flag.String("win-filter", "", "Windows-style filter, | separated")
	filterIndex := flag.Uint("filter-index", 0, "1-based selection into --win-filter")
	async := flag.Bool("async", false, "run asynchronously and poll")
	realpath := flag.Bool("realpath", false, "canonicalize before revealing")

	var filters []filedialog.FilterItem
	flag.Func("filter", "name:spec filter, e.g. \"Source:c,cpp\" (repeatable)", func(v string) error {
		name, spec, ok := strings.Cut(v, ":")
		if !ok {
			return fmt.Errorf("filter %q is not in name:spec form", v)
		}
		filters = append(filters, filedialog.FilterItem{Name: name, Spec: spec})
		return nil
	})
	flag.Parse()

	log.SetPrefix("filedialog-demo: ")
	log.SetFlags(0)

	if err := filedialog.Init(); err != nil {
		log.Fatalf("connect to session bus: %v\n"+
			"hint: ensure DBUS_SESSION_BUS_ADDRESS is set and xdg-desktop-portal is running", err)
	}
	defer filedialog.Teardown()

	params := &filedialog.DialogParams{
		Title:       *title,
		DefaultPath: *defaultPath,
		DefaultName: *defaultName,
		Filters:     filters,
		WinFilter:   strings.ReplaceAll(*winFilter, "|", "\x00"),
		FilterIndex: *filterIndex,
	}

	switch *mode {
	case "open":
		if *async {
			runAsync(filedialog.OpenDialogAsync, params)
			return
		}
		report(filedialog.OpenDialog(params))

	case "open-multi":
		if *async {
			runAsync(filedialog.OpenDialogMultipleAsync, params)
			return
		}
		set, err := filedialog.OpenDialogMultiple(params)
		if err != nil {
			fail(err)
		}
		log.Printf("%d paths selected", set.Count())
		cur := set.Cursor()
		for cur.Next() {
			fmt.Println(cur.Path())
		}
		if err := cur.Err(); err != nil {
			fail(err)
		}

	case "save":
		if *async {
			runAsync(filedialog.SaveDialogAsync, params)
			return
		}
		report(filedialog.SaveDialog(params))

	case "folder":
		if *async {
			runAsync(filedialog.PickFolderAsync, params)
			return
		}
		report(filedialog.PickFolder(params))

	case "reveal", "reveal-item":
		fmMode := filedialog.RevealFolder
		if *mode == "reveal-item" {
			fmMode = filedialog.RevealItem
		}
		if *defaultPath == "" {
			log.Fatal("--default-path is required for reveal modes")
		}
		if err := filedialog.ShowInFileManager(*defaultPath, fmMode, *realpath); err != nil {
			fail(err)
		}
		log.Print("revealed")

	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func report(path string, err error) {
	if err != nil {
		fail(err)
	}
	fmt.Println(path)
}

func exitIfCancelled(err error) {
	if errors.Is(err, filedialog.ErrCancelled) {
		log.Print("cancelled")
		os.Exit(0)
	}
}

func runAsync(start func(*filedialog.DialogParams) (*filedialog.DialogMonitor, error), params *filedialog.DialogParams) {
	m, err := start(params)
	if err != nil {
		fail(err)
	}
	for !m.Done() {
		time.Sleep(100 * time.Millisecond)
	}
	buf, err := m.Result()
	if err != nil {
		fail(err)
	}
	for _, p := range filedialog.SplitPacked(buf) {
		fmt.Println(p)
	}
}

func fail(err error) {
	exitIfCancelled(err)
	if msg := filedialog.GetError(); msg != "" {
		log.Fatalf("%v (last error: %s)", err, msg)
	}
	log.Fatal(err)
}
