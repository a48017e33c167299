package oxidb_test

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/parisxmas/OxiEnroll/internal/oxidb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer speaks the length-prefixed protocol and answers every request
// with handle.
type fakeServer struct {
	ln     net.Listener
	handle func(req map[string]any) map[string]any

	mu   sync.Mutex
	reqs []map[string]any
}

func newFakeServer(t *testing.T, handle func(req map[string]any) map[string]any) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeServer{ln: ln, handle: handle}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.conn(conn)
	}
}

func (s *fakeServer) conn(conn net.Conn) {
	defer conn.Close()
	for {
		var lenBuf [4]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		body := make([]byte, binary.LittleEndian.Uint32(lenBuf[:]))
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			return
		}
		s.mu.Lock()
		s.reqs = append(s.reqs, req)
		s.mu.Unlock()

		resp := s.handle(req)
		if resp == nil {
			continue // never answer
		}
		out, _ := json.Marshal(resp)
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(out)))
		if _, err := conn.Write(append(lenBuf[:], out...)); err != nil {
			return
		}
	}
}

func (s *fakeServer) last() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1]
}

func ok(data any) map[string]any { return map[string]any{"ok": true, "data": data} }

func connect(t *testing.T, s *fakeServer) *oxidb.Client {
	t.Helper()
	c, err := oxidb.Connect(context.Background(), s.ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPing(t *testing.T) {
	s := newFakeServer(t, func(map[string]any) map[string]any { return ok("pong") })
	c := connect(t, s)

	pong, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", pong)
	assert.Equal(t, "ping", s.last()["cmd"])
}

func TestInsertAndFind(t *testing.T) {
	s := newFakeServer(t, func(req map[string]any) map[string]any {
		switch req["cmd"] {
		case "insert":
			return ok(map[string]any{"id": 7.0})
		case "find":
			return ok([]any{map[string]any{"_id": 7.0, "name": "Alice"}, "junk"})
		case "find_one":
			return ok(nil)
		case "count":
			return ok(map[string]any{"count": 3.0})
		}
		return map[string]any{"ok": false, "error": "unexpected"}
	})
	c := connect(t, s)
	ctx := context.Background()

	id, err := c.Insert(ctx, "people", map[string]any{"name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "7", id)

	skip, limit := 5, 10
	docs, err := c.Find(ctx, "people", map[string]any{"name": "Alice"}, &oxidb.FindOptions{
		Sort: map[string]any{"createdAt": -1}, Skip: &skip, Limit: &limit,
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Alice", docs[0]["name"])
	req := s.last()
	assert.Equal(t, 5.0, req["skip"])
	assert.Equal(t, 10.0, req["limit"])
	assert.Equal(t, map[string]any{"createdAt": -1.0}, req["sort"])

	doc, err := c.FindOne(ctx, "people", map[string]any{"name": "Bob"})
	require.NoError(t, err)
	assert.Nil(t, doc)

	n, err := c.Count(ctx, "people", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUpdateOneSendsSet(t *testing.T) {
	s := newFakeServer(t, func(map[string]any) map[string]any { return ok(map[string]any{"modified": 1.0}) })
	c := connect(t, s)

	err := c.UpdateOne(context.Background(), "cfg", map[string]any{"key": "main"},
		map[string]any{"$set": map[string]any{"openingMessage": "hi"}})
	require.NoError(t, err)
	req := s.last()
	assert.Equal(t, "update_one", req["cmd"])
	assert.Equal(t, map[string]any{"$set": map[string]any{"openingMessage": "hi"}}, req["update"])
}

func TestServerErrors(t *testing.T) {
	s := newFakeServer(t, func(req map[string]any) map[string]any {
		switch req["cmd"] {
		case "create_bucket":
			return map[string]any{"ok": false, "error": "bucket already exists"}
		case "get_object":
			return map[string]any{"ok": false, "error": "object not found"}
		}
		return map[string]any{"ok": false, "error": "write conflict"}
	})
	c := connect(t, s)
	ctx := context.Background()

	err := c.CreateBucket(ctx, "files")
	assert.True(t, oxidb.IsExists(err))

	_, _, err = c.GetObject(ctx, "files", "nope")
	assert.True(t, oxidb.IsNotFound(err))
	assert.False(t, oxidb.IsExists(err))

	err = c.CreateIndex(ctx, "x", "y")
	var conflict *oxidb.TransactionConflictError
	assert.True(t, errors.As(err, &conflict))

	// Server-side errors leave the connection usable.
	assert.False(t, c.Broken())
}

func TestBlobRoundTrip(t *testing.T) {
	var stored string
	s := newFakeServer(t, func(req map[string]any) map[string]any {
		switch req["cmd"] {
		case "put_object":
			stored, _ = req["data"].(string)
			return ok(map[string]any{"key": req["key"]})
		case "get_object":
			return ok(map[string]any{"content": stored, "metadata": map[string]any{"content_type": "application/pdf"}})
		}
		return ok(nil)
	})
	c := connect(t, s)
	ctx := context.Background()

	require.NoError(t, c.PutObject(ctx, "files", "k1", []byte("%PDF-1.4"), ""))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")), stored)
	assert.Equal(t, "application/octet-stream", s.last()["content_type"])

	data, meta, err := c.GetObject(ctx, "files", "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)
	assert.Equal(t, "application/pdf", meta["content_type"])
}

func TestContextDeadlineBreaksConnection(t *testing.T) {
	s := newFakeServer(t, func(map[string]any) map[string]any { return nil })
	c := connect(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Ping(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, c.Broken())

	_, err = c.Ping(context.Background())
	assert.Error(t, err)
}

func TestContextCancelAbortsRead(t *testing.T) {
	s := newFakeServer(t, func(map[string]any) map[string]any { return nil })
	c := connect(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Ping(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCancelAfterExchangeKeepsConnection(t *testing.T) {
	s := newFakeServer(t, func(map[string]any) map[string]any { return ok("pong") })
	c := connect(t, s)

	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		_, err := c.Ping(ctx)
		require.NoError(t, err)
		cancel()

		_, err = c.Ping(context.Background())
		require.NoError(t, err, "iteration %d", i)
		require.False(t, c.Broken())
	}
}
