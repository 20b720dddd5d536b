// Package testserver runs the full HTTP stack against an in-memory database.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rpggio/groupbite/internal/auth"
	"github.com/rpggio/groupbite/internal/domain/candidate"
	"github.com/rpggio/groupbite/internal/domain/group"
	"github.com/rpggio/groupbite/internal/domain/session"
	"github.com/rpggio/groupbite/internal/domain/swipe"
	"github.com/rpggio/groupbite/internal/mcp"
	"github.com/rpggio/groupbite/internal/metrics"
	"github.com/rpggio/groupbite/internal/places"
	"github.com/rpggio/groupbite/internal/redisstore"
	"github.com/rpggio/groupbite/internal/sqlite"
	"github.com/rpggio/groupbite/internal/transport"
	"github.com/rpggio/groupbite/internal/watch"
	"github.com/stretchr/testify/require"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// JWTSecret signs tokens issued by TestServer.JWT.
const JWTSecret = "test-secret"

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Hub      *watch.Hub
	Metrics  *metrics.Metrics
	Sessions *session.Service
	JWT      *auth.JWTManager
	Token    string
	MemberID string
}

type options struct {
	source candidate.Source
	redis  bool
}

// Option configures New.
type Option func(*options)

// WithSource replaces the places adapter (which serves its fallback pool
// when no API key is set).
func WithSource(src candidate.Source) Option {
	return func(o *options) { o.source = src }
}

// WithRedisVotes stores vote tables in an in-process Redis.
func WithRedisVotes() Option {
	return func(o *options) { o.redis = true }
}

func New(t *testing.T, token, memberID string, opts ...Option) *TestServer {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	m := metrics.New()
	hub := watch.NewHub(nil, watch.WithDropHook(m.Dropped))

	var votes session.VoteStore = sqlite.NewVoteRepository(db)
	if o.redis {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		votes = redisstore.NewVoteStore(rdb, redisstore.WithPrefix("test:"))
	}

	source := o.source
	if source == nil {
		source = places.NewAdapter(places.Config{}, nil, places.WithFallbackHook(m.Fallback))
	}

	groupRepo := sqlite.NewGroupRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	apiKeys := sqlite.NewAPIKeyRepository(db)

	groupSvc := group.NewService(groupRepo, nil)
	sessionSvc := session.NewService(sessionRepo, votes, groupSvc, source, nil,
		session.WithPublisher(hub), session.WithObserver(m))
	swipeSvc := swipe.NewService(sqlite.NewSwipeRepository(db), sessionRepo, nil)

	jwtManager := auth.NewJWTManager(JWTSecret, time.Hour)
	resolver := auth.Chain{apiKeys, jwtManager}

	services := mcp.Services{Groups: groupSvc, Sessions: sessionSvc, Swipes: swipeSvc}
	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      resolver,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer }, nil)

	router := transport.NewServer(mcp.NewHandler(groupSvc, sessionSvc, swipeSvc), transport.Options{
		Auth:    transport.AuthMiddleware(resolver),
		MCP:     mcpHandler,
		Metrics: m.Handler(),
		Watch:   transport.NewWatchHandler(sessionSvc, hub, nil, nil),
	})
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Hub:      hub,
		Metrics:  m,
		Sessions: sessionSvc,
		JWT:      jwtManager,
		Token:    token,
		MemberID: memberID,
	}

	require.NoError(t, ts.AddAPIKey(token, memberID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers another member's bearer token.
func (ts *TestServer) AddAPIKey(token, memberID string) error {
	return sqlite.NewAPIKeyRepository(ts.DB).Create(context.Background(), token, memberID, "test")
}
