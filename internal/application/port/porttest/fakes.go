package porttest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/internal/domain/event"
)

// Clock is a settable clock
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts at t
func NewClock(t time.Time) *Clock { return &Clock{now: t} }

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Tokens returns a fixed sequence of tokens, then fails
type Tokens struct {
	mu     sync.Mutex
	tokens []string
}

// NewTokens queues the given tokens
func NewTokens(tokens ...string) *Tokens { return &Tokens{tokens: tokens} }

// NewToken pops the next token
func (g *Tokens) NewToken() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.tokens) == 0 {
		return "", fmt.Errorf("token source exhausted")
	}
	t := g.tokens[0]
	g.tokens = g.tokens[1:]
	return t, nil
}

// QREncoder returns the content itself as the image bytes
type QREncoder struct {
	Err error
}

// Encode echoes content
func (e QREncoder) Encode(content string) ([]byte, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return []byte(content), nil
}

// Storage is an in-memory file storage
type Storage struct {
	mu    sync.Mutex
	Files map[string][]byte
}

// NewStorage creates an empty storage
func NewStorage() *Storage { return &Storage{Files: make(map[string][]byte)} }

func (s *Storage) Save(ctx context.Context, path string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Files[path] = bytes.Clone(content)
	return nil
}

func (s *Storage) Read(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.Files[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	return b, nil
}

func (s *Storage) Exists(ctx context.Context, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Files[path]
	return ok
}

func (s *Storage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Files, path)
	return nil
}

func (s *Storage) GetFullPath(relativePath string) string { return "/mem/" + relativePath }

// Publisher records published events
type Publisher struct {
	mu     sync.Mutex
	Events []*event.Event
	Err    error
}

func (p *Publisher) Publish(ctx context.Context, evt *event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, evt)
	return nil
}

func (p *Publisher) Close() error { return nil }

// Published returns a copy of the recorded events
func (p *Publisher) Published() []*event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*event.Event(nil), p.Events...)
}

// PlainHasher stores passwords with a visible prefix
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (PlainHasher) Compare(hash, password string) error {
	if hash != "plain:"+password {
		return fmt.Errorf("password mismatch")
	}
	return nil
}

// Principal returns a principal of the given tenant
func Principal(userID, tenantID string) entity.Principal {
	return entity.Principal{UserID: userID, Username: userID, TenantID: tenantID}
}
