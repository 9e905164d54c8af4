// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// Package wsconf transfers configurations over WebSocket connections.
//
// A configuration travels as a single binary message holding its binary
// encoding. Receivers also accept a text message holding the text format.
package wsconf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourbase/confkit/ini"
	"github.com/yourbase/confkit/retry"
	"zombiezen.com/go/log"
)

// ErrMalformed is returned when a message does not hold a valid
// configuration.
var ErrMalformed = errors.New("malformed configuration message")

// Send writes cfg to the connection as one binary message. opts selects the
// comment character stored in the encoding.
func Send(ctx context.Context, conn *websocket.Conn, cfg *ini.Configuration, opts *ini.Options) error {
	buf := new(bytes.Buffer)
	if err := cfg.EncodeBinary(buf, opts); err != nil {
		return fmt.Errorf("send configuration: %w", err)
	}
	if err := writeMessage(ctx, conn, websocket.BinaryMessage, buf.Bytes()); err != nil {
		return fmt.Errorf("send configuration: %w", err)
	}
	return nil
}

// Receive reads one configuration message from the connection. Text messages
// are parsed with opts; binary messages are decoded.
func Receive(ctx context.Context, conn *websocket.Conn, opts *ini.Options) (*ini.Configuration, error) {
	typ, data, err := readMessage(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("receive configuration: %w", err)
	}
	cfg, err := decodeMessage(typ, data, opts)
	if err != nil {
		return nil, fmt.Errorf("receive configuration: %w", err)
	}
	return cfg, nil
}

func decodeMessage(typ int, data []byte, opts *ini.Options) (*ini.Configuration, error) {
	var cfg *ini.Configuration
	var err error
	switch typ {
	case websocket.BinaryMessage:
		cfg, err = ini.DecodeBinary(bytes.NewReader(data))
	case websocket.TextMessage:
		cfg, err = ini.Parse(bytes.NewReader(data), opts)
	default:
		err = fmt.Errorf("unexpected message type %d", typ)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return cfg, nil
}

// Handler is an http.Handler that upgrades each request to a WebSocket,
// sends one configuration and closes the connection.
type Handler struct {
	// Config returns the configuration to send for a request. It is called
	// before the upgrade; if it fails, the request receives a 500 response.
	Config func(r *http.Request) (*ini.Configuration, error)

	// Options is passed to Send.
	Options *ini.Options

	// Upgrader is used to upgrade requests.
	Upgrader websocket.Upgrader
}

// ServeHTTP serves a configuration over a new WebSocket connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg, err := h.Config(r)
	if err != nil {
		log.Errorf(ctx, "Loading configuration for %s: %v", r.RemoteAddr, err)
		http.Error(w, "configuration unavailable", http.StatusInternalServerError)
		return
	}
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an error.
		log.Warnf(ctx, "Upgrading connection from %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()
	if err := Send(ctx, conn, cfg, h.Options); err != nil {
		log.Warnf(ctx, "Serving %s: %v", r.RemoteAddr, err)
		return
	}
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second)); err != nil {
		log.Debugf(ctx, "Closing connection to %s: %v", r.RemoteAddr, err)
		return
	}
	log.Debugf(ctx, "Sent configuration with %d sections to %s", cfg.Len(), r.RemoteAddr)
}

// Fetch dials the WebSocket URL and receives one configuration. Failed
// attempts are retried with the given strategy until ctx is done; a nil
// strategy uses retry.Exponential defaults. Responses with a 4xx status and
// malformed messages are not retried.
func Fetch(ctx context.Context, url string, strategy retry.BackoffStrategy, opts *ini.Options) (*ini.Configuration, error) {
	if strategy == nil {
		strategy = new(retry.Exponential)
	}
	var cfg *ini.Configuration
	err := retry.Do(ctx, "fetching configuration from "+url, strategy, func() error {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			if resp != nil {
				err = fmt.Errorf("%w (HTTP %s)", err, resp.Status)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return retry.Permanent(err)
				}
			}
			return err
		}
		defer conn.Close()
		typ, data, err := readMessage(ctx, conn)
		if err != nil {
			return err
		}
		cfg, err = decodeMessage(typ, data, opts)
		if err != nil {
			return retry.Permanent(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch configuration from %s: %w", url, err)
	}
	return cfg, nil
}
