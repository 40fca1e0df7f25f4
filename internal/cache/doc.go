// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache keeps raw API responses on disk, or in an S3 bucket, under
// names of the form <digest>_<timestamp>.txt. The digest identifies the query
// and the timestamp records when the response was fetched, so freshness is
// derived from the name alone and no index is needed.
package cache
