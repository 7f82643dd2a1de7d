// Package module is the contract every service module satisfies plus the
// bootstrap registry main uses to cross wire ports
package module

import (
	phttp "wikidomains/internal/platform/net/http"
)

// Module mounts routes and exposes a ports bundle for other modules
// it lives apart from modkit so a module can import it alongside its own ports type
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}

// Mount registers each module's ports under its name, then mounts its routes on r in order
func Mount(r phttp.Router, mods ...Module) {
	for _, m := range mods {
		if m == nil {
			continue
		}
		Register(m.Name(), m.Ports())
		m.MountRoutes(r)
	}
}
