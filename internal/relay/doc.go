// Package relay maintains a pool of logical connections to relay endpoints.
// It multiplexes subscriptions across every endpoint, broadcasts signed
// events best-effort, and surfaces inbound events and end-of-stored-messages
// markers to the rest of the engine.
//
// The pool depends only on the Dialer and Transport interfaces; the
// production transport is a websocket connection. Connection establishment
// is optimistic: the pool reports connected once local initialization
// completes, and individual endpoint failures surface per-operation.
package relay
