/*
Package log provides structured logging for cachecore using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("store")                   │          │
	│  │  - WithDataID("4")                          │          │
	│  │  - WithOperationName("UserQuery")            │          │
	│  │  - WithToken(op.Token())                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  {"level":"info","component":"store",       │          │
	│  │   "time":"2026-07-31T10:30:00Z",            │          │
	│  │   "message":"published payload"}            │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all cachecore packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information (e.g. per-field normalization writes)
  - Info: General informational messages (publish completed, GC ran)
  - Warn: Warning messages (potential issues, e.g. unresolved @match branch)
  - Error: Error messages (operation failed, e.g. rebase of an optimistic update failed)
  - Fatal: Critical errors (process exits)

Context Loggers:
  - WithComponent: add a component name to all logs
  - WithDataID: add the record DataID under discussion
  - WithOperationName: add the operation's request name
  - WithToken: add an OperationDescriptor's process-unique token

# Usage

	import "github.com/cuemby/cachecore/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	storeLog := log.WithComponent("store")
	storeLog.Info().Str("data_id", "4").Msg("published payload")

	gcLog := log.WithComponent("gc")
	gcLog.Debug().Int("retained_roots", 3).Msg("mark phase complete")

# Integration Points

This package integrates with:

  - pkg/store: logs a debug line for each GC sweep that frees records
  - pkg/scheduler: logs a debug line for each coalesced GC sweep
  - pkg/publishqueue: logs optimistic updates that fail to rebase

pkg/normalize and pkg/handle report programmer errors (missing __typename
on narrowing, unregistered handle names) as returned errors and do not log.

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance initialized once at startup
  - Accessible from all packages without being passed explicitly

Context Logger Pattern:
  - Create child loggers carrying fixed context fields
  - Long-lived components either hold a child logger (Scheduler) or create
    one with WithComponent where they log (Store, PublishQueue)

Error Logging Pattern:
  - Always use .Err(err) for error values, never string interpolation
*/
package log
