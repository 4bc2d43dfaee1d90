// Package migrate assembles the migrate subcommand. It loads a migration
// manifest, wires the origin and destination adapters around a shared clone
// cache, and executes one workflow run.
package migrate
