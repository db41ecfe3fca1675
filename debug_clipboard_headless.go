//go:build headless

package main

import "errors"

func readClipboardText() ([]byte, error) {
	return nil, errors.New("clipboard not available in headless build")
}
