// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// placectl is the main package for the placectl command line tool. It loads
// the configuration, wires the CLI and serves as the entry point.
package main
