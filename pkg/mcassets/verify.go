// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
)

const hashBlockSize = 8 * 1024

// sha1Hex computes the SHA-1 digest of the file at path, streamed in
// 8 KiB blocks, rendered as lowercase hexadecimal. Hash errors are the
// caller's responsibility to treat as verification failures, never as
// fatal errors.
func sha1Hex(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	buf := make([]byte, hashBlockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// fileSatisfiesChecker reports whether the file at path already meets
// checker's size constraints, used by the Planner to decide whether a
// NetFile's download may be skipped.
func fileSatisfiesChecker(path string, checker FileChecker) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return checker.Satisfied(path, fi.Size())
}
