// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle. app.Run calls them in
// order: config, DB setup, schema, one-time startup work, handler
// construction, and finally graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "stratasite",   // used only for logging/diagnostics
	LoadConfig:     LoadConfig,     // load core + app config
	ValidateConfig: ValidateConfig, // validate MongoDB URI, secrets, limits
	ConnectDB:      ConnectDB,      // connect to MongoDB, Redis, storage, mail
	EnsureSchema:   EnsureSchema,   // collections, validators, indexes
	Startup:        Startup,        // seed the admin account
	BuildHandler:   BuildHandler,   // build the HTTP router + middleware stack
	Shutdown:       Shutdown,       // close Redis, disconnect MongoDB
}
