// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package modules

import (
	"fmt"

	"github.com/jeranaias/replsh/internal/registry"
)

// RegisterBuiltins installs every built-in module into the registry: the
// core commands, the database module, and the lazy ssh declaration.
func RegisterBuiltins(reg *registry.Registry, version string) error {
	if err := registerCore(reg, version); err != nil {
		return fmt.Errorf("registering core commands: %w", err)
	}
	if err := reg.RegisterModule(DatabaseModule()); err != nil {
		return fmt.Errorf("registering database module: %w", err)
	}
	DeclareSSHModule(reg)
	return nil
}
