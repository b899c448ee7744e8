// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

/*
Package supervisor runs Trinity's long-lived goroutines under a suture v4
tree.

	trinity (root)
	├── data-layer       badger value-log GC
	├── messaging-layer  websocket hub, tally consumer, consensus relay
	└── api-layer        HTTP server

A service that returns an error or panics is restarted with suture's
backoff; repeated failures in one layer do not take the others down.
Supervisor events are logged through sutureslog into the zerolog-backed
slog handler.

The NATS connections and the embedded server are not services. They are
opened before the tree starts and closed after it returns, so no consumer
is still acking when the connection goes away.
*/
package supervisor
