package twitch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(baseURL string) *API {
	client := NewClient(testEndpoints(baseURL), 5*time.Second, nil)
	return NewAPI(client, fakeCreds{token: "tok", clientID: "cid"})
}

func TestLatestVOD_PicksFirstOfTimeOrderedList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "141981764", r.URL.Query().Get("user_id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "cid", r.Header.Get("Client-Id"))

		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
			{"id": "335921245", "title": "newest", "duration": "3h8m33s"},
			{"id": "335921111", "title": "older"},
		}})
	}))
	defer srv.Close()

	vod, err := newAPI(srv.URL).LatestVOD(context.Background(), "141981764")
	require.NoError(t, err)
	require.NotNil(t, vod)
	assert.Equal(t, "335921245", vod.ID)
	assert.Equal(t, "3h8m33s", vod.Duration)
}

func TestLatestVOD_NoVodsYieldsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	vod, err := newAPI(srv.URL).LatestVOD(context.Background(), "141981764")
	require.NoError(t, err)
	assert.Nil(t, vod)
}

func TestVODByID_Rejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()

	vod, err := newAPI(srv.URL).VODByID(context.Background(), "335921245")
	assert.Nil(t, vod)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Body, "Unauthorized")
}

func TestGameByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games", r.URL.Path)
		assert.Equal(t, "33214", r.URL.Query().Get("id"))
		w.Write([]byte(`{"data":[{"id":"33214","name":"Fortnite"}]}`))
	}))
	defer srv.Close()

	game, err := newAPI(srv.URL).GameByID(context.Background(), "33214")
	require.NoError(t, err)
	require.NotNil(t, game)
	assert.Equal(t, "Fortnite", game.Name)
}

func TestIsLive(t *testing.T) {
	live := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streams", r.URL.Path)
		if live {
			w.Write([]byte(`{"data":[{"id":"1","type":"live"}]}`))
		} else {
			w.Write([]byte(`{"data":[]}`))
		}
	}))
	defer srv.Close()

	api := newAPI(srv.URL)

	got, err := api.IsLive(context.Background(), "141981764")
	require.NoError(t, err)
	assert.True(t, got)

	live = false
	got, err = api.IsLive(context.Background(), "141981764")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestCommentsAt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos/1337/comments", r.URL.Path)
		assert.Equal(t, "90", r.URL.Query().Get("content_offset_seconds"))
		// v5 answers to the web player's client id, not ours.
		assert.Equal(t, webClientID, r.Header.Get("Client-Id"))

		w.Write([]byte(`{"comments":[{"_id":"c1","content_offset_seconds":91.5,"message":{"body":"PogChamp"}}],"_next":"cursor-a"}`))
	}))
	defer srv.Close()

	page, err := newAPI(srv.URL).CommentsAt(context.Background(), "1337", 90)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, "PogChamp", page.Comments[0].Message.Body)
	assert.Equal(t, "cursor-a", page.Next)
}

func TestCommentsAfter_RetriesServerFailures(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "cursor-a", r.URL.Query().Get("cursor"))
		w.Write([]byte(`{"comments":[],"_next":""}`))
	}))
	defer srv.Close()

	page, err := newAPI(srv.URL).CommentsAfter(context.Background(), "1337", "cursor-a")
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Equal(t, 2, requests)
}

func TestCommentsAfter_ClientRejectionNotRetried(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newAPI(srv.URL).CommentsAfter(context.Background(), "1337", "cursor-a")
	require.Error(t, err)
	assert.Equal(t, 1, requests)
}

func TestMoments_UnknownVodYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"video":null}}`))
	}))
	defer srv.Close()

	api := NewAPI(NewClient(Endpoints{GQL: srv.URL}, 5*time.Second, nil), fakeCreds{})
	moments, err := api.Moments(context.Background(), "1337")
	require.NoError(t, err)
	assert.Empty(t, moments)
}

func TestMoments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "VideoPreviewCard__VideoMoments", req["operationName"])

		w.Write([]byte(`{"data":{"video":{"moments":{"edges":[
			{"node":{"id":"m1","description":"Fortnite","positionMilliseconds":0}},
			{"node":{"id":"m2","description":"Just Chatting","positionMilliseconds":3600000}}
		]}}}}`))
	}))
	defer srv.Close()

	api := NewAPI(NewClient(Endpoints{GQL: srv.URL}, 5*time.Second, nil), fakeCreds{})
	moments, err := api.Moments(context.Background(), "1337")
	require.NoError(t, err)
	require.Len(t, moments, 2)
	assert.Equal(t, "Fortnite", moments[0].Description)
}
