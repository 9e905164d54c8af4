// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package wsconf

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourbase/confkit/ini"
	"zombiezen.com/go/log/testlog"
)

const testDocument = `# Served remotely.
name = demo

[Net] # network
Host = example.com
Ports = {80, 443}
`

func testConfig(tb testing.TB) *ini.Configuration {
	tb.Helper()
	cfg, err := ini.ParseString(testDocument, nil)
	if err != nil {
		tb.Fatal(err)
	}
	return cfg
}

func TestSendReceive(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	c1, c2, err := pipe(t)
	if err != nil {
		t.Fatal(err)
	}
	want := testConfig(t)
	if err := Send(ctx, c1, want, nil); err != nil {
		t.Fatal("Send:", err)
	}
	got, err := Receive(ctx, c2, nil)
	if err != nil {
		t.Fatal("Receive:", err)
	}
	if got.Format(nil) != want.Format(nil) {
		t.Errorf("Receive(...) =\n%s\nwant:\n%s", got.Format(nil), want.Format(nil))
	}
}

func TestReceiveText(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	c1, c2, err := pipe(t)
	if err != nil {
		t.Fatal(err)
	}
	if err := c1.WriteMessage(websocket.TextMessage, []byte(testDocument)); err != nil {
		t.Fatal(err)
	}
	got, err := Receive(ctx, c2, nil)
	if err != nil {
		t.Fatal("Receive:", err)
	}
	if want := testConfig(t).Format(nil); got.Format(nil) != want {
		t.Errorf("Receive(...) =\n%s\nwant:\n%s", got.Format(nil), want)
	}
}

func TestReceiveMalformed(t *testing.T) {
	tests := []struct {
		name string
		typ  int
		data string
	}{
		{name: "TruncatedBinary", typ: websocket.BinaryMessage, data: "\x01\x00"},
		{name: "BadText", typ: websocket.TextMessage, data: "[unterminated\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := testlog.WithTB(context.Background(), t)
			c1, c2, err := pipe(t)
			if err != nil {
				t.Fatal(err)
			}
			if err := c1.WriteMessage(test.typ, []byte(test.data)); err != nil {
				t.Fatal(err)
			}
			if _, err := Receive(ctx, c2, nil); !errors.Is(err, ErrMalformed) {
				t.Errorf("Receive(...) = _, %v; want %v", err, ErrMalformed)
			}
		})
	}
}

func TestReceiveCanceled(t *testing.T) {
	t.Run("BeforeStart", func(t *testing.T) {
		c, _, err := pipe(t)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Receive(canceledContext(), c, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("Receive(...) = _, %v; want %v", err, context.Canceled)
		}
	})
	t.Run("WhileBlocked", func(t *testing.T) {
		c, _, err := pipe(t)
		if err != nil {
			t.Fatal(err)
		}
		ctx, cancel := context.WithTimeout(testlog.WithTB(context.Background(), t), 10*time.Millisecond)
		defer cancel()
		if _, err := Receive(ctx, c, nil); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Receive(...) = _, %v; want %v", err, context.DeadlineExceeded)
		}
	})
}

func TestSendCanceled(t *testing.T) {
	c, _, err := pipe(t)
	if err != nil {
		t.Fatal(err)
	}
	if err := Send(canceledContext(), c, testConfig(t), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Send(...) = %v; want %v", err, context.Canceled)
	}
}

func TestFetch(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	want := testConfig(t)
	srv := httptest.NewServer(&Handler{
		Config: func(*http.Request) (*ini.Configuration, error) {
			return want, nil
		},
	})
	defer srv.Close()

	got, err := Fetch(ctx, wsURL(srv), constBackoff(time.Millisecond), nil)
	if err != nil {
		t.Fatal("Fetch:", err)
	}
	if got.Format(nil) != want.Format(nil) {
		t.Errorf("Fetch(...) =\n%s\nwant:\n%s", got.Format(nil), want.Format(nil))
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	var calls int32
	srv := httptest.NewServer(&Handler{
		Config: func(*http.Request) (*ini.Configuration, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return nil, errors.New("not ready")
			}
			return testConfig(t), nil
		},
	})
	defer srv.Close()

	if _, err := Fetch(ctx, wsURL(srv), constBackoff(time.Millisecond), nil); err != nil {
		t.Fatal("Fetch:", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("server called %d times; want 2", n)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	ctx := testlog.WithTB(context.Background(), t)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := Fetch(ctx, wsURL(srv), constBackoff(time.Millisecond), nil); err == nil {
		t.Error("Fetch did not return an error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server called %d times; want 1", n)
	}
}

func TestFetchCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(testlog.WithTB(context.Background(), t), 20*time.Millisecond)
	defer cancel()
	srv := httptest.NewServer(&Handler{
		Config: func(*http.Request) (*ini.Configuration, error) {
			return nil, errors.New("never ready")
		},
	})
	defer srv.Close()

	if _, err := Fetch(ctx, wsURL(srv), constBackoff(time.Millisecond), nil); err == nil {
		t.Error("Fetch did not return an error")
	}
}

func pipe(c cleanuper) (conn1, conn2 *websocket.Conn, err error) {
	type upgradeResult struct {
		conn *websocket.Conn
		err  error
	}
	ch := make(chan upgradeResult, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := new(websocket.Upgrader).Upgrade(w, r, nil)
		ch <- upgradeResult{conn, err}
	}))
	conn1, _, err = websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		srv.Close()
		return nil, nil, err
	}
	result := <-ch
	if result.err != nil {
		conn1.Close()
		srv.Close()
		return nil, nil, result.err
	}
	c.Cleanup(func() {
		conn1.Close()
		result.conn.Close()
		srv.Close()
	})
	return conn1, result.conn, nil
}

type cleanuper interface {
	Cleanup(f func())
}

func wsURL(srv *httptest.Server) string {
	return "ws" + srv.URL[len("http"):]
}

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

type constBackoff time.Duration

func (b constBackoff) Duration() time.Duration {
	return time.Duration(b)
}

func TestMain(m *testing.M) {
	testlog.Main(nil)
	os.Exit(m.Run())
}
