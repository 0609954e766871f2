// Package app wires stores, services, and the relay pool into a running
// engine. Dependencies are injected explicitly at construction time; there
// is no globally reachable instance.
package app
