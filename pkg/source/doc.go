/*
Package source implements the keyed record mapping (DataID -> record |
tombstone | absent) and the copy-on-write mutator/proxy pair used to stage
writes against it.

# Architecture

	┌───────────────────────── SOURCE LAYERS ─────────────────────────┐
	│                                                                   │
	│   base (read-only)         the canonical store's current state  │
	│        │                                                         │
	│        ▼                                                         │
	│   Mutator                  reads fall through sink then base;   │
	│        │                   writes land on sink only, copying a  │
	│        ▼                   base record into the sink on first   │
	│   sink (mutable)           write and saving its old value into  │
	│        │                   backup for exact undo                │
	│        ▼                                                         │
	│   backup (mutable, optional)                                    │
	└───────────────────────────────────────────────────────────────────┘

Proxy and SelectorProxy are the capability-restricted handles handed to
user-supplied updater closures; they never expose the underlying Mutator
directly so updaters cannot bypass the copy-on-write/backup bookkeeping.
*/
package source
