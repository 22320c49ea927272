package geolocation

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(
		Config{BaseURL: srv.URL, APIKey: "secret"},
		NewLRUCache(16, time.Minute),
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	require.NoError(t, err)
	return c, &calls
}

func TestClient_Locate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    *geo.Point
		wantErr bool
	}{
		{name: "numeric coordinates", status: 200, body: `{"ip":"8.8.8.8","latitude":37.42,"longitude":-122.08}`, want: &geo.Point{Lat: 37.42, Lng: -122.08}},
		{name: "string coordinates", status: 200, body: `{"ip":"8.8.8.8","latitude":"37.42","longitude":"-122.08"}`, want: &geo.Point{Lat: 37.42, Lng: -122.08}},
		{name: "missing coordinates", status: 200, body: `{"ip":"8.8.8.8"}`},
		{name: "unknown address", status: 423, body: `{"message":"bogon"}`},
		{name: "server error", status: 500, body: `oops`, wantErr: true},
		{name: "bad key", status: 401, body: `{"message":"invalid key"}`, wantErr: true},
		{name: "out of range", status: 200, body: `{"latitude":123,"longitude":0}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/ipgeo", r.URL.Path)
				assert.Equal(t, "secret", r.URL.Query().Get("apiKey"))
				assert.Equal(t, "8.8.8.8", r.URL.Query().Get("ip"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := c.Locate(context.Background(), "8.8.8.8")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_LocateCachesHits(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude":51.5,"longitude":-0.12}`))
	})

	for range 3 {
		p, err := c.Locate(context.Background(), "81.2.69.142")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, geo.Point{Lat: 51.5, Lng: -0.12}, *p)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_LocateSurvivesCancelledPeer(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{}, 4)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`{"latitude":48.85,"longitude":2.35}`))
	})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Locate(ctxA, "81.2.69.160")
		errA <- err
	}()
	<-arrived

	type result struct {
		p   *geo.Point
		err error
	}
	resB := make(chan result, 1)
	go func() {
		p, err := c.Locate(context.Background(), "81.2.69.160")
		resB <- result{p, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)
	close(release)

	got := <-resB
	require.NoError(t, got.err)
	require.NotNil(t, got.p)
	assert.Equal(t, geo.Point{Lat: 48.85, Lng: 2.35}, *got.p)
}

func TestClient_LocateSkipsNonPublicAddresses(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call for %s", r.URL.Query().Get("ip"))
	})

	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "::1", "not-an-ip", ""} {
		p, err := c.Locate(context.Background(), ip)
		require.NoError(t, err, ip)
		assert.Nil(t, p, ip)
	}
	assert.Zero(t, calls.Load())
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "::nope"}, nil, nil, slog.Default())
	assert.Error(t, err)
}

func TestLRUCache_Expires(t *testing.T) {
	c := NewLRUCache(2, 20*time.Millisecond)
	c.Add("a", geo.Point{Lat: 1})
	_, ok := c.Get("a")
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestLRUCache_Bounded(t *testing.T) {
	c := NewLRUCache(2, time.Minute)
	c.Add("a", geo.Point{Lat: 1})
	c.Add("b", geo.Point{Lat: 2})
	c.Add("c", geo.Point{Lat: 3})
	_, ok := c.Get("a")
	assert.False(t, ok)
	p, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3.0, p.Lat)
}
