package crawlbase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/insight"
	"github.com/brandlens/insight-api/internal/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		Multiplier:  1.5,
		MaxWait:     5 * time.Millisecond,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{Token: "test-token", BaseURL: srv.URL, MaxPosts: 8}, testPolicy(), zap.NewNop())
}

func profileEnvelope(posts ...string) map[string]any {
	links := make([]any, 0, len(posts))
	for _, p := range posts {
		links = append(links, map[string]any{"link": p})
	}
	return map[string]any{
		"original_status": 200,
		"body": map[string]any{
			"username": "acme",
			"name":     "Acme Corp",
			"verified": true,
			// Crawlbase swaps these two fields; the client must swap back.
			"followersCount": "120",
			"followingCount": "34.2M followers",
			"postsCount":     "1,263 posts",
			"bio":            map[string]any{"text": "We make everything #acme"},
			"posts":          links,
		},
	}
}

func TestProfile_UnwrapsAndNormalizes(t *testing.T) {
	var query atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.Query())
		_ = json.NewEncoder(w).Encode(profileEnvelope("https://www.instagram.com/p/abc123/"))
	})

	profile, links, err := c.Profile(context.Background(), "acme")
	require.NoError(t, err)

	q := query.Load().(url.Values)
	assert.Equal(t, "test-token", q.Get("token"))
	assert.Equal(t, "instagram-profile", q.Get("scraper"))
	assert.Contains(t, q.Get("url"), "instagram.com/acme")

	assert.Equal(t, "acme", profile.Username)
	assert.True(t, profile.Verified)
	assert.Equal(t, 34200000, profile.Followers)
	assert.Equal(t, 120, profile.Following)
	assert.Equal(t, 1263, profile.TotalPosts)
	assert.Equal(t, []string{"https://www.instagram.com/p/abc123/"}, links)
}

func TestProfile_BodyAsJSONString(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		inner, _ := json.Marshal(map[string]any{"username": "acme", "followersCount": 10, "followingCount": 20})
		_ = json.NewEncoder(w).Encode(map[string]any{"body": string(inner)})
	})

	profile, _, err := c.Profile(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 20, profile.Followers)
	assert.Equal(t, 10, profile.Following)
}

func TestProfile_MissingBodyIsFatal(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"original_status": 200})
	})

	_, _, err := c.Profile(context.Background(), "acme")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "malformed envelope must not be retried")
	assert.Equal(t, insight.KindMalformedUpstream, insight.KindOf(err))
}

func TestProfile_RetriesUpstreamErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(profileEnvelope())
	})

	profile, _, err := c.Profile(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "acme", profile.Username)
}

func TestProfile_UnauthorizedIsFatal(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, _, err := c.Profile(context.Background(), "acme")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, insight.KindAuthorization, insight.KindOf(err))
}

func TestPostDetail_Normalizes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"body": map[string]any{
				"likesCount":   "1.2K",
				"repliesCount": 45,
				"caption": map[string]any{
					"text": "New drop #launch",
					"tags": []any{map[string]any{"hashtag": "#launch"}},
				},
				"dateTime": "2026-05-01T10:00:00Z",
				"media":    map[string]any{"videos": []any{"https://cdn/vid.mp4"}},
			},
		})
	})

	post, err := c.PostDetail(context.Background(), "https://www.instagram.com/p/xyz789/")
	require.NoError(t, err)
	assert.Equal(t, "xyz789", post.Shortcode)
	assert.Equal(t, 1200, post.Likes)
	assert.Equal(t, 45, post.Comments)
	assert.Equal(t, insight.PostVideo, post.Type)
	assert.True(t, post.IsVideo)
	assert.Equal(t, []string{"launch"}, post.Hashtags)
}

func TestCompleteProfile_SkipsFailedPostDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("scraper") {
		case "instagram-profile":
			_ = json.NewEncoder(w).Encode(profileEnvelope(
				"https://www.instagram.com/p/one/",
				"https://www.instagram.com/p/bad/",
				"https://www.instagram.com/p/three/",
			))
		case "instagram-post":
			if strings.Contains(q.Get("url"), "/p/bad/") {
				// Missing body: fatal, skipped without retries.
				_ = json.NewEncoder(w).Encode(map[string]any{"original_status": 200})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"body": map[string]any{"likesCount": 10},
			})
		default:
			t.Errorf("unexpected scraper %q", q.Get("scraper"))
		}
	})

	snap, err := c.CompleteProfile(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, snap.Posts, 2)
	assert.Equal(t, "one", snap.Posts[0].Shortcode)
	assert.Equal(t, "three", snap.Posts[1].Shortcode)
}

func TestCompleteProfile_CapsPostCount(t *testing.T) {
	var detailCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("scraper") {
		case "instagram-profile":
			links := make([]string, 10)
			for i := range links {
				links[i] = "https://www.instagram.com/p/post" + string(rune('a'+i)) + "/"
			}
			_ = json.NewEncoder(w).Encode(profileEnvelope(links...))
		case "instagram-post":
			detailCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{"body": map[string]any{"likesCount": 1}})
		}
	}))
	defer srv.Close()

	c := New(Config{Token: "t", BaseURL: srv.URL, MaxPosts: 3}, testPolicy(), zap.NewNop())
	snap, err := c.CompleteProfile(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, int32(3), detailCalls.Load())
	assert.Len(t, snap.Posts, 3)
}

func TestCompleteProfile_ProfileFailureFailsAcquisition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.CompleteProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, insight.KindNotFound, insight.KindOf(err))
}
