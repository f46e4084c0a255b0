/*
Package handle implements the handler side of the @__clientField
mechanism: a registry mapping a handle name (e.g. "connection") to a
Handler that recomputes a derived value from the raw field payload the
normalizer staged under the field's storage key, and writes the result
under the field's handle key.

The registry runs after normalization: the publish queue first publishes
the normalized sink to the canonical store, then runs the staged payloads
through the registry on a mutator over that store and publishes the
mutator's sink as a second merge.
*/
package handle
