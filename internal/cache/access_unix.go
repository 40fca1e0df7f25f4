// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package cache

import "golang.org/x/sys/unix"

// checkAccess asks the kernel whether the current user may read and write
// dir.
func checkAccess(dir string) error {
	return unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK)
}
