// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws loads AWS SDK v2 configuration and builds the S3 client used by
// the bucket-backed response cache.
package aws
