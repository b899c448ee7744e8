// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Command trinityctl is an operator CLI for a running Trinity server.
//
//	trinityctl breaker status
//	trinityctl breaker reset
//	trinityctl content get g1 --media-type TV --genre 28 --genre 12 --count 10
//	trinityctl events replay events.json
//	trinityctl group create g1 --members 4
//	trinityctl group show g1
//	trinityctl vote g1 --item 603 --voter u1 --choice YES
//
// The server URL comes from --server or TRINITY_URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
