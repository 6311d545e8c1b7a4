// Package core implements the placement/migration/power state-machine at the
// heart of an energy-aware cloud workload scheduler.
//
// # Reading Guide
//
// Start with these files to understand the control flow:
//   - types.go: Machine, VM, Task and the enums the rest of the package shares.
//   - oracle.go: the Oracle port the core queries and actuates; the simulator
//     that owns the clock and the machine/VM/task catalogue lives behind it.
//   - clusterview.go: the single in-memory index every engine reads and writes.
//   - placement.go, migration.go, power.go: the three engines (C2, C3, C4).
//   - scheduler.go: the event adapter that wires the engines to the callback
//     surface a host simulator drives.
//
// # Architecture
//
// The package is a pure, synchronous state machine: every callback runs to
// completion before the next begins (see Scheduler's doc comment). Long-running
// operations — machine state changes, VM migrations — are split-phase: a
// callback initiates one and a later callback (StateChangeComplete,
// MigrationDone) completes it. In between, the affected machine or VM sits in
// a transient state tracked by ClusterView's pending queues and flags.
//
// # Key Interfaces
//
// The extension points are small, single-purpose interfaces:
//   - Oracle: everything the core needs to observe and actuate in the host simulator.
//   - PlacementStrategy: how Place picks among feasible machines.
//   - FatalHandler: how the adapter reports invariant violations.
package core
