package app

import (
	"github.com/vk/proformagrid/internal/registry"
	"github.com/vk/proformagrid/modules/debt"
	"github.com/vk/proformagrid/modules/revolver"
)

// coreModules is the definitive list of all generator modules that are
// compiled into the proformagrid binary.
var coreModules = []registry.Module{
	&debt.Module{},
	&revolver.Module{},
}
