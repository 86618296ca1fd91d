package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasforge/gamevault/pkg/gamevault"
	"github.com/canvasforge/gamevault/pkg/gamevault/api"
	"github.com/canvasforge/gamevault/pkg/gamevault/repo/memory"
	memorystore "github.com/canvasforge/gamevault/pkg/gamevault/store/memory"
)

const (
	walletAlice = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	walletBob   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc, err := gamevault.New(
		gamevault.WithRepository(memory.New()),
		gamevault.WithContentStore(memorystore.New()),
	)
	require.NoError(t, err)

	server := httptest.NewServer(api.NewGamesHandler(svc).Routes())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeGame(t *testing.T, resp *http.Response) *gamevault.Game {
	t.Helper()
	defer resp.Body.Close()

	var game gamevault.Game
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&game))
	return &game
}

func decodeError(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func saveGame(t *testing.T, server *httptest.Server, wallet, title, html string) *gamevault.Game {
	t.Helper()

	resp := postJSON(t, server.URL+"/", api.SaveGameRequest{
		WalletAddress: wallet,
		HTML:          html,
		Title:         title,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeGame(t, resp)
}

func TestSaveGameEndpoint(t *testing.T) {
	t.Run("create returns 201", func(t *testing.T) {
		server := setupTestServer(t)

		resp := postJSON(t, server.URL+"/", api.SaveGameRequest{
			WalletAddress: walletAlice,
			HTML:          "<html>pong</html>",
			Title:         "Pong",
			Tags:          []string{"arcade"},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		game := decodeGame(t, resp)
		assert.Equal(t, walletAlice, game.OwnerID)
		assert.Equal(t, 1, game.CurrentVersion)
	})

	t.Run("update returns 200", func(t *testing.T) {
		server := setupTestServer(t)
		game := saveGame(t, server, walletAlice, "Pong", "<html>v1</html>")

		resp := postJSON(t, server.URL+"/", api.SaveGameRequest{
			GameID:        game.ID.String(),
			WalletAddress: walletAlice,
			HTML:          "<html>v2</html>",
			Title:         "Pong Deluxe",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		updated := decodeGame(t, resp)
		assert.Equal(t, 2, updated.CurrentVersion)
	})

	t.Run("invalid wallet returns 400 with validation kind", func(t *testing.T) {
		server := setupTestServer(t)

		resp := postJSON(t, server.URL+"/", api.SaveGameRequest{
			WalletAddress: "not-a-wallet",
			HTML:          "<html></html>",
			Title:         "Pong",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "validation", decodeError(t, resp)["kind"])
	})

	t.Run("wrong owner returns 403", func(t *testing.T) {
		server := setupTestServer(t)
		game := saveGame(t, server, walletAlice, "Pong", "<html>v1</html>")

		resp := postJSON(t, server.URL+"/", api.SaveGameRequest{
			GameID:        game.ID.String(),
			WalletAddress: walletBob,
			HTML:          "<html>hijack</html>",
			Title:         "Pwned",
		})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "authorization", decodeError(t, resp)["kind"])
	})

	t.Run("malformed game ID returns 400", func(t *testing.T) {
		server := setupTestServer(t)

		resp := postJSON(t, server.URL+"/", api.SaveGameRequest{
			GameID:        "not-a-uuid",
			WalletAddress: walletAlice,
			HTML:          "<html></html>",
			Title:         "Pong",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetGameEndpoint(t *testing.T) {
	server := setupTestServer(t)
	game := saveGame(t, server, walletAlice, "Pong", "<html>v1</html>")

	resp, err := http.Get(server.URL + "/" + game.ID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeGame(t, resp)
	assert.Equal(t, game.ID, got.ID)

	resp, err = http.Get(server.URL + "/00000000-0000-0000-0000-000000000001")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decodeError(t, resp)["kind"])
}

func TestForkGameEndpoint(t *testing.T) {
	server := setupTestServer(t)
	source := saveGame(t, server, walletAlice, "Pong", "<html>v1</html>")

	resp := postJSON(t, server.URL+"/fork", api.ForkGameRequest{
		OriginalGameID: source.ID.String(),
		WalletAddress:  walletBob,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	fork := decodeGame(t, resp)
	assert.Equal(t, walletBob, fork.OwnerID)
	assert.Equal(t, "Pong (Fork)", fork.Title)
	require.NotNil(t, fork.OriginalGameID)
	assert.Equal(t, source.ID, *fork.OriginalGameID)

	// The source's fork count is visible on a fresh read.
	getResp, err := http.Get(server.URL + "/" + source.ID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, 1, decodeGame(t, getResp).ForkCount)
}

func TestSetPublicationEndpoint(t *testing.T) {
	server := setupTestServer(t)
	game := saveGame(t, server, walletAlice, "Pong", "<html>v1</html>")

	resp := postJSON(t, server.URL+"/publish", api.SetPublicationRequest{
		GameID:        game.ID.String(),
		Channel:       "community",
		WalletAddress: walletAlice,
		Published:     true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	published := decodeGame(t, resp)
	assert.True(t, published.PublishedToCommunity)
	assert.NotNil(t, published.CommunityPublishedAt)
	assert.False(t, published.PublishedToMarketplace)

	t.Run("invalid channel returns 400", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/publish", api.SetPublicationRequest{
			GameID:        game.ID.String(),
			Channel:       "featured",
			WalletAddress: walletAlice,
			Published:     true,
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "validation", decodeError(t, resp)["kind"])
	})

	t.Run("non-owner returns 403", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/publish", api.SetPublicationRequest{
			GameID:        game.ID.String(),
			Channel:       "community",
			WalletAddress: walletBob,
			Published:     false,
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestListGamesEndpoint(t *testing.T) {
	server := setupTestServer(t)
	saveGame(t, server, walletAlice, "Pong", "<html>a</html>")
	snake := saveGame(t, server, walletAlice, "Snake", "<html>b</html>")
	saveGame(t, server, walletBob, "Tetris", "<html>c</html>")

	resp := postJSON(t, server.URL+"/publish", api.SetPublicationRequest{
		GameID:        snake.ID.String(),
		Channel:       "community",
		WalletAddress: walletAlice,
		Published:     true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	t.Run("by wallet", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/?wallet=" + walletAlice)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var games []*gamevault.Game
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&games))
		assert.Len(t, games, 2)
	})

	t.Run("by channel", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/?channel=community")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var games []*gamevault.Game
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&games))
		require.Len(t, games, 1)
		assert.Equal(t, "Snake", games[0].Title)
	})

	t.Run("no filter returns 400", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad page returns 400", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/?wallet=" + walletAlice + "&page=abc")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDeleteGameEndpoint(t *testing.T) {
	server := setupTestServer(t)
	game := saveGame(t, server, walletAlice, "Pong", "<html>v1</html>")

	deleteGame := func(wallet string) *http.Response {
		req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/%s", server.URL, game.ID), nil)
		require.NoError(t, err)
		if wallet != "" {
			req.Header.Set("X-Wallet-Address", wallet)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("missing header returns 400", func(t *testing.T) {
		resp := deleteGame("")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("non-owner returns 403", func(t *testing.T) {
		resp := deleteGame(walletBob)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("owner deletes with 204", func(t *testing.T) {
		resp := deleteGame(walletAlice)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		getResp, err := http.Get(server.URL + "/" + game.ID.String())
		require.NoError(t, err)
		defer getResp.Body.Close()
		assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	})
}
