/*
Package fixture loads the YAML documents cachetool and the package test
suites use to describe an operation's selection shape and the response
payloads normalized against it, without hand-building ir.Node literals
for every scenario.

A fixture file holds two things: a selection tree (the shape a real
GraphQL compiler would produce from a query document) and, for reader
fixtures, the root DataID and variables to read it with. The same
selection tree serves as both a ReaderSelector and a NormalizationSelector
since ir.Node is reused for both forms (see package ir).

Example:

	rootId: client:root
	selections:
	  - name: viewer
	    linked: true
	    selections:
	      - name: name
	      - name: address
	        linked: true
	        selections:
	          - name: city

This mirrors the shape WarrenResource gave cmd/warren's apply command:
a small typed YAML envelope, unmarshaled with gopkg.in/yaml.v3, that
drives the rest of the command.
*/
package fixture
