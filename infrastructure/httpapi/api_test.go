package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"messenger-lab/repositories"
	"messenger-lab/runtime"
	"messenger-lab/services"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	req := require.New(t)
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { writer.Close() })

	registry := runtime.NewRegistry(log)
	relay := runtime.NewRelay(registry, log)
	engine, err := runtime.NewEngine(log, repositories.NewConversationRepository(db, log), relay, nil, 5*time.Minute)
	req.NoError(err)

	chat := services.NewChatService(engine, registry, relay)
	auth := services.NewAuthService(repositories.NewUserRepository(db, writer, log), time.Hour)

	server := httptest.NewServer(NewRouter(NewHandler(log, chat, auth, registry, 64)))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	req := require.New(t)

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		req.NoError(err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	request, err := http.NewRequest(method, url, reader)
	req.NoError(err)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := http.DefaultClient.Do(request)
	req.NoError(err)
	defer response.Body.Close()

	var decoded map[string]any
	if strings.HasPrefix(response.Header.Get("Content-Type"), "application/json") {
		req.NoError(json.NewDecoder(response.Body).Decode(&decoded))
	}
	return response, decoded
}

func registerUser(t *testing.T, server *httptest.Server, username string) string {
	t.Helper()
	response, body := doJSON(t, http.MethodPost, server.URL+"/register", "",
		map[string]string{"username": username, "password": "ComplexPass123"})
	require.Equal(t, http.StatusCreated, response.StatusCode)
	return body["token"].(string)
}

func TestAPI_Full_Messaging_Scenario(t *testing.T) {
	req := require.New(t)
	server := setupServer(t)

	alice := registerUser(t, server, "alice")
	bob := registerUser(t, server, "bob")

	// Login works with the registered credentials
	response, body := doJSON(t, http.MethodPost, server.URL+"/login", "",
		map[string]string{"username": "alice", "password": "ComplexPass123"})
	req.Equal(http.StatusOK, response.StatusCode)
	req.NotEmpty(body["token"])

	// Alice sends bob a message
	response, sent := doJSON(t, http.MethodPost, server.URL+"/conversations/bob/messages", alice,
		map[string]string{"body": "hello bob"})
	req.Equal(http.StatusCreated, response.StatusCode)
	req.Equal("hello bob", sent["body"])
	ts, err := strconv.ParseInt(sent["ts"].(string), 10, 64)
	req.NoError(err)
	req.NotZero(ts)

	// Bob's inbox shows one unread conversation with alice
	response, body = doJSON(t, http.MethodGet, server.URL+"/inbox", bob, nil)
	req.Equal(http.StatusOK, response.StatusCode)
	inbox := body["inbox"].([]any)
	req.Len(inbox, 1)
	entry := inbox[0].(map[string]any)
	req.Equal("alice", entry["user"])
	req.Equal("hello bob", entry["last_message"])
	req.Equal(float64(1), entry["unread_count"])

	// Fetching history marks it read
	response, body = doJSON(t, http.MethodGet, server.URL+"/conversations/alice/messages", bob, nil)
	req.Equal(http.StatusOK, response.StatusCode)
	messages := body["messages"].([]any)
	req.Len(messages, 1)
	readBy := messages[0].(map[string]any)["read_by"].([]any)
	req.ElementsMatch([]any{"alice", "bob"}, readBy)

	_, body = doJSON(t, http.MethodGet, server.URL+"/inbox", bob, nil)
	req.Equal(float64(0), body["inbox"].([]any)[0].(map[string]any)["unread_count"])

	// Reacting twice with the same emoji applies only once
	reactionURL := fmt.Sprintf("%s/conversations/alice/messages/%d/reactions", server.URL, ts)
	response, body = doJSON(t, http.MethodPost, reactionURL, bob, map[string]string{"emoji": "👍"})
	req.Equal(http.StatusOK, response.StatusCode)
	req.Equal(true, body["applied"])

	_, body = doJSON(t, http.MethodPost, reactionURL, bob, map[string]string{"emoji": "👍"})
	req.Equal(false, body["applied"])

	// Only the author can delete; bob's attempt silently does nothing
	deleteURL := fmt.Sprintf("%s/conversations/alice/messages/%d", server.URL, ts)
	_, body = doJSON(t, http.MethodDelete, deleteURL, bob, nil)
	req.Equal(false, body["applied"])

	authorDeleteURL := fmt.Sprintf("%s/conversations/bob/messages/%d", server.URL, ts)
	_, body = doJSON(t, http.MethodDelete, authorDeleteURL, alice, nil)
	req.Equal(true, body["applied"])

	// The tombstone is gone from history
	_, body = doJSON(t, http.MethodGet, server.URL+"/conversations/alice/messages", bob, nil)
	req.Empty(body["messages"].([]any))
}

func TestAPI_Rejects_Missing_Or_Invalid_Tokens(t *testing.T) {
	req := require.New(t)
	server := setupServer(t)

	response, _ := doJSON(t, http.MethodGet, server.URL+"/inbox", "", nil)
	req.Equal(http.StatusUnauthorized, response.StatusCode)

	response, _ = doJSON(t, http.MethodGet, server.URL+"/inbox", "not-a-jwt", nil)
	req.Equal(http.StatusUnauthorized, response.StatusCode)
}

func TestAPI_Register_Conflicts_And_Weak_Passwords(t *testing.T) {
	req := require.New(t)
	server := setupServer(t)

	registerUser(t, server, "alice")

	response, _ := doJSON(t, http.MethodPost, server.URL+"/register", "",
		map[string]string{"username": "alice", "password": "ComplexPass123"})
	req.Equal(http.StatusConflict, response.StatusCode)

	response, _ = doJSON(t, http.MethodPost, server.URL+"/register", "",
		map[string]string{"username": "clara", "password": "weak"})
	req.Equal(http.StatusBadRequest, response.StatusCode)
}

func TestAPI_Send_Validation_Failures(t *testing.T) {
	req := require.New(t)
	server := setupServer(t)
	alice := registerUser(t, server, "alice")

	// Empty body
	response, _ := doJSON(t, http.MethodPost, server.URL+"/conversations/bob/messages", alice,
		map[string]string{"body": ""})
	req.Equal(http.StatusUnprocessableEntity, response.StatusCode)

	// Messaging yourself
	response, _ = doJSON(t, http.MethodPost, server.URL+"/conversations/alice/messages", alice,
		map[string]string{"body": "hi me"})
	req.Equal(http.StatusUnprocessableEntity, response.StatusCode)
}

func TestAPI_User_Search(t *testing.T) {
	req := require.New(t)
	server := setupServer(t)

	alice := registerUser(t, server, "alice")
	registerUser(t, server, "alicia")
	registerUser(t, server, "bob")

	response, body := doJSON(t, http.MethodGet, server.URL+"/users/search?q=ali", alice, nil)
	req.Equal(http.StatusOK, response.StatusCode)
	req.ElementsMatch([]any{"alice", "alicia"}, body["users"].([]any))

	_, body = doJSON(t, http.MethodGet, server.URL+"/users/search?q=", alice, nil)
	req.Empty(body["users"].([]any))
}

func TestAPI_Health_Is_Public(t *testing.T) {
	req := require.New(t)
	server := setupServer(t)

	response, body := doJSON(t, http.MethodGet, server.URL+"/healthz", "", nil)
	req.Equal(http.StatusOK, response.StatusCode)
	req.NotEmpty(body["status"])
}

func TestAPI_Event_Stream_Delivers_Messages(t *testing.T) {
	req := require.New(t)
	server := setupServer(t)

	alice := registerUser(t, server, "alice")
	bob := registerUser(t, server, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/events", nil)
	req.NoError(err)
	request.Header.Set("Authorization", "Bearer "+bob)

	response, err := http.DefaultClient.Do(request)
	req.NoError(err)
	defer response.Body.Close()
	req.Equal(http.StatusOK, response.StatusCode)
	req.Equal("text/event-stream", response.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(response.Body)

	// The stream opens with a comment line before any event
	req.True(scanner.Scan())
	req.Equal(": connected", scanner.Text())

	// A send from alice shows up as a message-sent event with its payload
	go func() {
		doJSON(t, http.MethodPost, server.URL+"/conversations/bob/messages", alice,
			map[string]string{"body": "realtime hello"})
	}()

	var eventLine, dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: message-sent") {
			eventLine = line
			req.True(scanner.Scan())
			dataLine = scanner.Text()
			break
		}
	}
	req.Equal("event: message-sent", eventLine)
	req.True(strings.HasPrefix(dataLine, "data: "))

	var payload map[string]any
	req.NoError(json.Unmarshal([]byte(strings.TrimPrefix(dataLine, "data: ")), &payload))
	req.Equal("realtime hello", payload["message"])
	req.Equal("alice", payload["from"])
}
