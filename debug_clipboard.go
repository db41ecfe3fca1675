//go:build !headless

// debug_clipboard.go - Host clipboard access for the monitor paste command

package main

import (
	"sync"

	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

func readClipboardText() ([]byte, error) {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return nil, clipboardErr
	}
	return clipboard.Read(clipboard.FmtText), nil
}
