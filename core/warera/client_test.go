package warera

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type recorded struct {
	path    string
	input   map[string]map[string]any
	headers map[string]string
}

// newTestClient serves handler from an in-memory listener and returns a client
// with pacing disabled.
func newTestClient(t *testing.T, token string, handler fasthttp.RequestHandler) (*Client, *[]recorded) {
	t.Helper()

	var calls []recorded
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		rec := recorded{path: string(ctx.Path()), headers: map[string]string{}}
		if raw := ctx.QueryArgs().Peek("input"); len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.input)
		}
		for _, h := range []string{"Authorization", "User-Agent", "Accept", "Content-Type"} {
			rec.headers[h] = string(ctx.Request.Header.Peek(h))
		}
		calls = append(calls, rec)
		handler(ctx)
	}}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	cfg := Config{BaseURL: "http://warera.test/", Token: token, UserAgent: "test-agent", TimeoutSeconds: 5}
	c := NewClient(cfg, nil, WithDial(func(addr string) (net.Conn, error) { return ln.Dial() }))
	return c, &calls
}

func TestRankingPage(t *testing.T) {
	c, calls := newTestClient(t, "tok", func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`[{"result":{"data":{"items":[{"user":"u1","value":1500.0,"rank":1},{"user":"u2","value":"900","rank":2}],"nextCursor":"abc"}}}]`)
	})

	page, err := c.RankingPage(context.Background(), "weeklyUserDamages", "")
	require.NoError(t, err)
	assert.Equal(t, "abc", page.NextCursor)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "u1", page.Items[0].UserID)
	assert.Equal(t, int64(1500), page.Items[0].Damage)
	assert.Equal(t, int64(900), page.Items[1].Damage)
	assert.Equal(t, 2, page.Items[1].Rank)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/trpc/ranking.getRanking", call.path)
	assert.Equal(t, "weeklyUserDamages", call.input["0"]["rankingType"])
	assert.NotContains(t, call.input["0"], "cursor")
	assert.Equal(t, "tok", call.headers["Authorization"])
	assert.Equal(t, "test-agent", call.headers["User-Agent"])
	assert.Equal(t, "*/*", call.headers["Accept"])
	assert.Equal(t, "application/json", call.headers["Content-Type"])

	_, err = c.RankingPage(context.Background(), "weeklyUserDamages", "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", (*calls)[1].input["0"]["cursor"])
}

func TestRosterPage(t *testing.T) {
	c, calls := newTestClient(t, "tok", func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`[{"result":{"data":{"items":[{"_id":"u1"},{"_id":""},{"_id":"u3"}],"nextCursor":null}}}]`)
	})

	page, err := c.RosterPage(context.Background(), "c-ar", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u3"}, page.UserIDs)
	assert.Empty(t, page.NextCursor)

	call := (*calls)[0]
	assert.Equal(t, "/trpc/user.getUsersByCountry", call.path)
	assert.Equal(t, "c-ar", call.input["0"]["countryId"])
	assert.Equal(t, "forward", call.input["0"]["direction"])
}

func TestUserDetails(t *testing.T) {
	c, calls := newTestClient(t, "tok", func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`[
			{"result":{"data":{"_id":"u1","username":"Alice","leveling":{"level":23},"avatarUrl":"https://a/1.png"}}},
			{"error":{"message":"not found"}},
			{"result":{"data":{"_id":"u3","username":"Carol","leveling":{"level":"7"}}}}
		]`)
	})

	details, err := c.UserDetails(context.Background(), []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "Alice", details[0].Username)
	assert.Equal(t, 23, details[0].Level)
	assert.Equal(t, "https://a/1.png", details[0].AvatarURL)
	assert.Equal(t, 7, details[1].Level)

	call := (*calls)[0]
	assert.Equal(t, "/trpc/user.getUserLite,user.getUserLite,user.getUserLite", call.path)
	assert.Equal(t, "u2", call.input["1"]["userId"])

	none, err := c.UserDetails(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, none)
	assert.Len(t, *calls, 1)
}

func TestCountries(t *testing.T) {
	c, calls := newTestClient(t, "tok", func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`[{"_id":"c-ar","name":"Argentina","rankings":{"weeklyCountryDamages":{"value":5000000,"rank":3},"countryActivePopulation":{"value":420,"rank":9}}},{"_id":"c-x","name":"Nowhere"}]`)
	})

	countries, err := c.Countries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "c-ar", countries[0].ID)
	assert.Equal(t, int64(5_000_000), countries[0].WeeklyDamage)
	assert.Equal(t, 3, countries[0].WeeklyRank)
	assert.Equal(t, int64(420), countries[0].ActivePopulation)
	assert.Equal(t, 9, countries[0].PopulationRank)
	assert.Zero(t, countries[1].WeeklyDamage)
	assert.Equal(t, "/countries", (*calls)[0].path)
}

func TestClient_Errors(t *testing.T) {
	t.Run("MissingToken", func(t *testing.T) {
		c, calls := newTestClient(t, "", func(ctx *fasthttp.RequestCtx) {})
		_, err := c.Countries(context.Background())
		assert.ErrorIs(t, err, ErrMissingCredential)
		assert.Empty(t, *calls)

		c.SetToken("  fresh  ")
		assert.True(t, c.HasToken())
		_, err = c.Countries(context.Background())
		assert.Error(t, err) // empty body is not valid JSON
		assert.Equal(t, "fresh", (*calls)[0].headers["Authorization"])
	})

	t.Run("Non200", func(t *testing.T) {
		c, _ := newTestClient(t, "tok", func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
		})
		_, err := c.RankingPage(context.Background(), "weeklyUserDamages", "")
		assert.ErrorContains(t, err, "API error: 429")
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		c, _ := newTestClient(t, "tok", func(ctx *fasthttp.RequestCtx) {
			ctx.SetBodyString(`{"not":"an array"}`)
		})
		_, err := c.RosterPage(context.Background(), "c", "")
		assert.ErrorContains(t, err, "decode user.getUsersByCountry")
	})

	t.Run("ProcedureError", func(t *testing.T) {
		c, _ := newTestClient(t, "tok", func(ctx *fasthttp.RequestCtx) {
			ctx.SetBodyString(`[{"error":{"message":"UNAUTHORIZED"}}]`)
		})
		_, err := c.RankingPage(context.Background(), "weeklyUserDamages", "")
		assert.ErrorIs(t, err, ErrProcedure)
	})
}

func TestClient_Pacing(t *testing.T) {
	c, calls := newTestClient(t, "tok", func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`[]`)
	})
	c.cfg.MinDelayMs = 2000
	c.cfg.MaxDelayMs = 8000

	var waited []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}

	_, err := c.Countries(context.Background())
	require.NoError(t, err)
	require.Len(t, waited, 1)
	assert.GreaterOrEqual(t, waited[0], 2*time.Second)
	assert.LessOrEqual(t, waited[0], 8*time.Second)

	t.Run("CancelledWhileWaiting", func(t *testing.T) {
		c.sleep = sleepContext
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Countries(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, *calls, 1)
	})
}

func TestUniformDelay(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := uniformDelay(2*time.Second, 8*time.Second)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 8*time.Second)
	}
	assert.Equal(t, time.Second, uniformDelay(time.Second, 0))
}
