// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package wsconf

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// readMessage reads the next message from the connection. If ctx is done
// before a message arrives, the read deadline is moved to now, which makes
// the connection unusable.
func readMessage(ctx context.Context, conn *websocket.Conn) (messageType int, p []byte, err error) {
	err = watch(ctx, conn.SetReadDeadline, func() error {
		var err error
		messageType, p, err = conn.ReadMessage()
		return err
	})
	if err != nil {
		return 0, nil, fmt.Errorf("read websocket message: %w", err)
	}
	return messageType, p, nil
}

// writeMessage writes a message to the connection, abandoning the write if
// ctx is done first.
func writeMessage(ctx context.Context, conn *websocket.Conn, messageType int, data []byte) error {
	// XXX This is racy because WriteMessage will unconditionally call
	// SetWriteDeadline.
	err := watch(ctx, conn.UnderlyingConn().SetWriteDeadline, func() error {
		return conn.WriteMessage(messageType, data)
	})
	if err != nil {
		return fmt.Errorf("write websocket message: %w", err)
	}
	return nil
}

// watch runs op. If ctx is done before op returns, watch calls setDeadline
// with the current time to unblock op and reports the context's error.
func watch(ctx context.Context, setDeadline func(time.Time) error, op func() error) error {
	ctxDone := ctx.Done()
	if ctxDone == nil {
		return op()
	}
	select {
	case <-ctxDone:
		return ctx.Err()
	default:
	}
	finished := make(chan struct{})
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		select {
		case <-finished:
		case <-ctxDone:
			setDeadline(time.Now())
		}
	}()
	err := op()
	close(finished)
	<-watchDone
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w (%v)", ctx.Err(), err)
	}
	return err
}
