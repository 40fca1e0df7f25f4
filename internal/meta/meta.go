// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"

	"github.com/staranto/placectl/internal/config"
)

// Meta are the meta-options that are available on all commands.
type Meta struct {
	Args    []string
	Config  *config.Config
	Context context.Context
}
