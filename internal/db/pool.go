package db

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/parisxmas/OxiEnroll/internal/oxidb"
	"go.uber.org/zap"
)

const dialTimeout = 5 * time.Second

// Pool is a round-robin connection pool for OxiDB with auto-reconnect.
type Pool struct {
	addr    string
	log     *zap.Logger
	clients []*oxidb.Client
	mu      []sync.Mutex
	idx     uint64
	stop    chan struct{}
	done    chan struct{}
}

var _ Store = (*Pool)(nil)

// NewPool creates a pool of size OxiDB connections.
func NewPool(ctx context.Context, host string, port, size int, log *zap.Logger) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		log:     log,
		clients: make([]*oxidb.Client, size),
		mu:      make([]sync.Mutex, size),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		c, err := p.dial(ctx)
		if err != nil {
			p.closeClients()
			return nil, fmt.Errorf("pool: connect client %d: %w", i, err)
		}
		p.clients[i] = c
	}
	// Keepalive pings every 10 seconds prevent the server's idle timeout.
	go p.keepalive()
	return p, nil
}

func (p *Pool) dial(ctx context.Context) (*oxidb.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	return oxidb.Connect(ctx, p.addr)
}

// get returns the next client in round-robin order. A client whose stream
// broke on an earlier request is replaced first.
func (p *Pool) get(ctx context.Context) (*oxidb.Client, error) {
	n := atomic.AddUint64(&p.idx, 1)
	i := int(n % uint64(len(p.clients)))

	p.mu[i].Lock()
	defer p.mu[i].Unlock()
	if c := p.clients[i]; c != nil && !c.Broken() {
		return c, nil
	}
	if err := p.reconnectLocked(ctx, i); err != nil {
		return nil, err
	}
	return p.clients[i], nil
}

func (p *Pool) reconnectLocked(ctx context.Context, i int) error {
	if p.clients[i] != nil {
		p.clients[i].Close()
		p.clients[i] = nil
	}
	c, err := p.dial(ctx)
	if err != nil {
		p.log.Warn("pool: reconnect failed", zap.Int("client", i), zap.Error(err))
		return fmt.Errorf("pool: reconnect client %d: %w", i, err)
	}
	p.clients[i] = c
	return nil
}

func (p *Pool) keepalive() {
	defer close(p.done)
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			for i := range p.clients {
				p.pingOne(i)
			}
		}
	}
}

func (p *Pool) pingOne(i int) {
	p.mu[i].Lock()
	defer p.mu[i].Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if c := p.clients[i]; c != nil {
		_, err := c.Ping(ctx)
		if err == nil {
			return
		}
		p.log.Warn("pool: ping failed, reconnecting", zap.Int("client", i), zap.Error(err))
	}
	_ = p.reconnectLocked(ctx, i)
}

// Close stops the keepalive loop and closes all connections.
func (p *Pool) Close() error {
	close(p.stop)
	<-p.done
	p.closeClients()
	return nil
}

func (p *Pool) closeClients() {
	for _, c := range p.clients {
		if c != nil {
			c.Close()
		}
	}
}

// ------------------------------------------------------------------
// Store
// ------------------------------------------------------------------

func (p *Pool) Insert(ctx context.Context, collection string, doc map[string]any) (string, error) {
	c, err := p.get(ctx)
	if err != nil {
		return "", err
	}
	id, err := c.Insert(ctx, collection, doc)
	return id, mapErr(err)
}

func (p *Pool) FindOne(ctx context.Context, collection string, query map[string]any) (map[string]any, error) {
	c, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return c.FindOne(ctx, collection, query)
}

func (p *Pool) Find(ctx context.Context, collection string, query map[string]any, opts *FindOptions) ([]map[string]any, error) {
	c, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return c.Find(ctx, collection, query, toClientOptions(opts))
}

func (p *Pool) Count(ctx context.Context, collection string, query map[string]any) (int, error) {
	c, err := p.get(ctx)
	if err != nil {
		return 0, err
	}
	return c.Count(ctx, collection, query)
}

func (p *Pool) UpdateOne(ctx context.Context, collection string, query, set map[string]any) error {
	c, err := p.get(ctx)
	if err != nil {
		return err
	}
	return mapErr(c.UpdateOne(ctx, collection, query, map[string]any{"$set": set}))
}

func (p *Pool) CreateIndex(ctx context.Context, collection, field string) error {
	c, err := p.get(ctx)
	if err != nil {
		return err
	}
	return ignoreExists(c.CreateIndex(ctx, collection, field))
}

func (p *Pool) CreateUniqueIndex(ctx context.Context, collection, field string) error {
	c, err := p.get(ctx)
	if err != nil {
		return err
	}
	return ignoreExists(c.CreateUniqueIndex(ctx, collection, field))
}

func (p *Pool) EnsureBucket(ctx context.Context, bucket string) error {
	c, err := p.get(ctx)
	if err != nil {
		return err
	}
	return ignoreExists(c.CreateBucket(ctx, bucket))
}

func (p *Pool) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	c, err := p.get(ctx)
	if err != nil {
		return err
	}
	return mapErr(c.PutObject(ctx, bucket, key, data, contentType))
}

func (p *Pool) GetObject(ctx context.Context, bucket, key string) ([]byte, string, error) {
	c, err := p.get(ctx)
	if err != nil {
		return nil, "", err
	}
	data, meta, err := c.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, "", mapErr(err)
	}
	ct, _ := meta["content_type"].(string)
	return data, ct, nil
}

func (p *Pool) DeleteObject(ctx context.Context, bucket, key string) error {
	c, err := p.get(ctx)
	if err != nil {
		return err
	}
	return mapErr(c.DeleteObject(ctx, bucket, key))
}

func (p *Pool) Ping(ctx context.Context) error {
	c, err := p.get(ctx)
	if err != nil {
		return err
	}
	_, err = c.Ping(ctx)
	return err
}

func toClientOptions(opts *FindOptions) *oxidb.FindOptions {
	if opts == nil {
		return nil
	}
	out := &oxidb.FindOptions{}
	if opts.Sort != "" {
		field, dir := strings.TrimPrefix(opts.Sort, "-"), 1
		if strings.HasPrefix(opts.Sort, "-") {
			dir = -1
		}
		out.Sort = map[string]any{field: dir}
	}
	if opts.Skip > 0 {
		skip := opts.Skip
		out.Skip = &skip
	}
	if opts.Limit > 0 {
		limit := opts.Limit
		out.Limit = &limit
	}
	return out
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case oxidb.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case oxidb.IsExists(err), isUniqueViolation(err.Error()):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func ignoreExists(err error) error {
	if oxidb.IsExists(err) {
		return nil
	}
	return err
}

func isUniqueViolation(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
