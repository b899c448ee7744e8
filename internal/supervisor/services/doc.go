// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package services adapts components that do not already implement
// suture.Service. The badger GC, the tally consumer and the consensus relay
// implement it themselves and are added to the tree directly.
package services
