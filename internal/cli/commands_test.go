// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ece1786-2024/CourseCraft/internal/config"
	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/server"
	"github.com/ece1786-2024/CourseCraft/internal/session"
	"github.com/ece1786-2024/CourseCraft/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

// isolate points the data directory at a temp dir and clears environment
// overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("COURSECRAFT_HOME", dir)
	for _, k := range []string{"COURSECRAFT_SERVICE_URL", "COURSECRAFT_TIMEOUT", "COURSECRAFT_LOG_LEVEL", "COURSECRAFT_DB", "COURSECRAFT_SERVER_ADDR", "COURSECRAFT_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	t.Cleanup(config.ResetGlobalForTesting)
	return dir
}

// newTestApp builds an App against a stub advisor that ends the chat after
// minTurns student turns.
func newTestApp(t *testing.T, minTurns int) (*App, *bytes.Buffer) {
	t.Helper()
	isolate(t)

	srv := server.New(server.Options{MinTurns: minTurns}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	app, err := NewApp(Args{URL: ts.URL, Quiet: true}, AppOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	var out bytes.Buffer
	app.Out = &out
	return app, &out
}

func newTestSession(t *testing.T, app *App) (*ChatSession, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s := NewChatSession(app, &out, false)
	s.exportDir = t.TempDir()
	t.Cleanup(s.Close)
	return s, &out
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func sampleConversation(id, text string) *storage.StoredConversation {
	tr := model.Seed("Hello!").AppendUser(text).AppendBot("Tell me more.")
	return storage.NewStoredConversation(id, time.Now(), tr, true, []model.RecommendationItem{
		{CourseCode: "CSC108H1", Name: "Introduction to Computer Programming"},
	})
}

// =============================================================================
// APP
// =============================================================================

func TestNewApp_OpensStoresInDataDir(t *testing.T) {
	dir := isolate(t)

	app, err := NewApp(Args{URL: "http://127.0.0.1:1", Quiet: true}, AppOptions{})
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Favorites)
	assert.NotNil(t, app.Conversations)
	assert.Equal(t, "http://127.0.0.1:1", app.Client.BaseURL())
	assert.FileExists(t, filepath.Join(dir, "coursecraft.db"))
}

func TestNewApp_SkipStores(t *testing.T) {
	isolate(t)

	app, err := NewApp(Args{Quiet: true}, AppOptions{SkipStores: true})
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Favorites)
	assert.Nil(t, app.Conversations)
}

func TestLoadConfig_BadExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[service\nbase_url = "), 0o644))

	_, err := LoadConfig(Args{Config: path})
	assert.Error(t, err)
}

// =============================================================================
// LINE-MODE CHAT
// =============================================================================

func TestProcessLine_BlankAndExit(t *testing.T) {
	app, _ := newTestApp(t, 2)
	s, _ := newTestSession(t, app)
	ctx := testContext(t)

	cont, err := s.processLine(ctx, "   ")
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, 1, s.eng.Transcript().Len(), "blank input must not be sent")

	for _, line := range []string{"exit", "QUIT", "/q", "/quit"} {
		cont, err := s.processLine(ctx, line)
		require.NoError(t, err)
		assert.False(t, cont, line)
	}
}

func TestProcessLine_SendsAndPrintsReply(t *testing.T) {
	app, _ := newTestApp(t, 2)
	s, out := newTestSession(t, app)
	ctx := testContext(t)

	cont, err := s.processLine(ctx, "I like biology")
	require.NoError(t, err)
	assert.True(t, cont)

	turns := s.eng.Transcript().Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "I like biology", turns[1].Text)
	assert.False(t, turns[2].IsPlaceholder())
	assert.Contains(t, out.String(), "advisor>")
}

func TestProcessLine_DoubleSlashSendsLiteral(t *testing.T) {
	app, _ := newTestApp(t, 2)
	s, _ := newTestSession(t, app)

	_, err := s.processLine(testContext(t), "//help me pick")
	require.NoError(t, err)
	assert.Equal(t, "/help me pick", s.eng.Transcript().At(1).Text)
}

func TestProcessLine_NormalizesInput(t *testing.T) {
	app, _ := newTestApp(t, 2)
	s, _ := newTestSession(t, app)

	_, err := s.processLine(testContext(t), "  caf\u0065\u0301 ")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", s.eng.Transcript().At(1).Text)
}

func TestProcessLine_UnknownSlashCommand(t *testing.T) {
	app, _ := newTestApp(t, 2)
	s, _ := newTestSession(t, app)

	cont, err := s.processLine(testContext(t), "/dance")
	assert.True(t, cont)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dance")
	assert.Equal(t, 1, s.eng.Transcript().Len())
}

func TestProcessLine_FullConversation(t *testing.T) {
	app, _ := newTestApp(t, 2)
	s, out := newTestSession(t, app)
	ctx := testContext(t)

	_, err := s.processLine(ctx, "/courses")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No recommendations yet")

	_, err = s.processLine(ctx, "I want to build video games")
	require.NoError(t, err)
	_, err = s.processLine(ctx, "done")
	require.NoError(t, err)

	snap := s.eng.Snapshot()
	require.True(t, snap.Terminated)
	require.Len(t, snap.Recommendations, 3)
	assert.Contains(t, out.String(), "Recommended courses (3)")
	assert.Contains(t, out.String(), "CSC108H1")

	// /fav toggles.
	_, err = s.processLine(ctx, "/fav 1")
	require.NoError(t, err)
	favs, err := app.Favorites.List(ctx)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "CSC108H1", favs[0].Item.CourseCode)
	assert.Equal(t, s.eng.Session().ID(), favs[0].SessionID)

	_, err = s.processLine(ctx, "/fav 1")
	require.NoError(t, err)
	favs, err = app.Favorites.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, favs)

	_, err = s.processLine(ctx, "/fav 9")
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	// /export writes into the session's export directory.
	_, err = s.processLine(ctx, "/export json courses")
	require.NoError(t, err)
	files, err := os.ReadDir(s.exportDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ".json", filepath.Ext(files[0].Name()))

	_, err = s.processLine(ctx, "/reset")
	require.NoError(t, err)
	assert.False(t, s.eng.Snapshot().Terminated)
	assert.Equal(t, 1, s.eng.Transcript().Len())
}

func TestProcessLine_UploadRejectsExtension(t *testing.T) {
	app, _ := newTestApp(t, 2)
	s, _ := newTestSession(t, app)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	cont, err := s.processLine(testContext(t), "/upload "+path)
	assert.True(t, cont)
	assert.Error(t, err)
	assert.Equal(t, 1, s.eng.Transcript().Len())
}

func TestProcessLine_UploadResume(t *testing.T) {
	app, _ := newTestApp(t, 2)
	s, _ := newTestSession(t, app)

	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 resume"), 0o644))

	_, err := s.processLine(testContext(t), "/upload "+path)
	require.NoError(t, err)

	last, ok := s.eng.Transcript().Last()
	require.True(t, ok)
	assert.Equal(t, app.Config.Chat.UploadNotice, last.Text)
}

// =============================================================================
// ASK
// =============================================================================

func TestRunAsk(t *testing.T) {
	app, _ := newTestApp(t, 1)

	data, err := runAsk(testContext(t), app, session.New(), "thanks, that's all", "")
	require.NoError(t, err)
	assert.True(t, data.Terminated)
	assert.Len(t, data.Recommendations, 3)
	assert.NotEmpty(t, data.SessionID)
	assert.NotEmpty(t, data.Reply)
}

func TestRunAsk_ContinuesSession(t *testing.T) {
	app, _ := newTestApp(t, 2)
	ctx := testContext(t)

	first, err := runAsk(ctx, app, session.New(), "I like chemistry", "")
	require.NoError(t, err)
	assert.False(t, first.Terminated)

	sess, err := session.Parse(first.SessionID)
	require.NoError(t, err)

	// The advisor counted the first turn, so "done" now ends the chat.
	second, err := runAsk(ctx, app, sess, "done", "")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.True(t, second.Terminated)
}

func TestRunAsk_ServiceDown(t *testing.T) {
	isolate(t)
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	app, err := NewApp(Args{URL: url, Quiet: true}, AppOptions{SkipStores: true})
	require.NoError(t, err)
	defer app.Close()

	_, err = runAsk(testContext(t), app, session.New(), "hello", "")
	assert.Equal(t, ExitNetworkError, GetExitCode(err))
}

// =============================================================================
// HISTORY
// =============================================================================

func TestResolveConversation(t *testing.T) {
	app, _ := newTestApp(t, 2)
	store := app.Conversations
	for _, c := range []*storage.StoredConversation{
		sampleConversation("aaaa1111", "biology"),
		sampleConversation("aaaa2222", "chemistry"),
		sampleConversation("bbbb3333", "physics"),
	} {
		require.NoError(t, store.Save(c))
	}

	conv, err := resolveConversation(store, "bbbb3333")
	require.NoError(t, err)
	assert.Equal(t, "bbbb3333", conv.ID)

	conv, err = resolveConversation(store, "bb")
	require.NoError(t, err)
	assert.Equal(t, "bbbb3333", conv.ID)

	_, err = resolveConversation(store, "aaaa")
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, err = resolveConversation(store, "cccc")
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	_, err = resolveConversation(store, " ")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestRunHistory(t *testing.T) {
	app, out := newTestApp(t, 2)
	require.NoError(t, app.Conversations.Save(sampleConversation("aaaa1111", "I love marine biology")))
	require.NoError(t, app.Conversations.Save(sampleConversation("bbbb2222", "economics please")))

	require.NoError(t, runHistory(app, Args{Subcommand: "search", Raw: []string{"search", "marine"}, JSON: true}))
	var resp struct {
		Data []ConversationSummaryData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "aaaa1111", resp.Data[0].ID)

	outDir := t.TempDir()
	out.Reset()
	require.NoError(t, runHistory(app, Args{Subcommand: "export", Raw: []string{"export", "bbbb", "--format", "html", "--output", outDir}}))
	files, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ".html", filepath.Ext(files[0].Name()))

	out.Reset()
	require.NoError(t, runHistory(app, Args{Subcommand: "delete", Raw: []string{"delete", "aaaa1111"}}))
	_, err = app.Conversations.Load("aaaa1111")
	assert.ErrorIs(t, err, storage.ErrConversationNotFound)

	err = runHistory(app, Args{Subcommand: "frob", Raw: []string{"frob"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestSaveConversation_SkipsSilentChats(t *testing.T) {
	app, _ := newTestApp(t, 2)
	eng := app.NewEngine(nil)
	defer eng.Close()

	app.SaveConversation("silent", eng, nil)
	_, err := app.Conversations.Load("silent")
	assert.ErrorIs(t, err, storage.ErrConversationNotFound)
}

func TestArchiver_ConcurrentTerminations(t *testing.T) {
	app, _ := newTestApp(t, 5)
	eng := app.NewEngine(nil)
	defer eng.Close()

	_, err := eng.Submit(testContext(t), "I like math").Wait(testContext(t))
	require.NoError(t, err)

	arch := &archiver{app: app, eng: eng}
	const n = 6
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- arch.archive(nil)
		}()
	}
	wg.Wait()
	close(ids)

	base := eng.Session().ID()
	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate archive id %s", id)
		seen[id] = true
		_, err := app.Conversations.Load(id)
		assert.NoError(t, err, id)
	}
	assert.Len(t, seen, n)
	assert.True(t, seen[base])
	assert.True(t, seen[fmt.Sprintf("%s-%d", base, n)])
}

// =============================================================================
// FAVORITES
// =============================================================================

func TestRunFavorites(t *testing.T) {
	app, out := newTestApp(t, 2)
	ctx := testContext(t)

	item := model.RecommendationItem{CourseCode: "MAT135H1", Name: "Calculus I", Department: "Mathematics"}
	_, err := app.Favorites.Toggle(ctx, item, "session-1")
	require.NoError(t, err)

	require.NoError(t, runFavorites(ctx, app, Args{JSON: true}))
	var resp struct {
		Data []FavoriteData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "MAT135H1", resp.Data[0].CourseCode)
	assert.Equal(t, "session-1", resp.Data[0].SessionID)

	out.Reset()
	require.NoError(t, runFavorites(ctx, app, Args{Subcommand: "remove", Raw: []string{"remove", "mat135h1"}}))

	err = runFavorites(ctx, app, Args{Subcommand: "remove", Raw: []string{"remove", "MAT135H1"}})
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	err = runFavorites(ctx, app, Args{Subcommand: "show", Raw: []string{"show"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// CONFIG
// =============================================================================

func TestSetConfigValue(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := setConfigValue(path, "ui.word_wrap", "100")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.UI.WordWrap)

	cfg, err = setConfigValue(path, "upload.allowed_extensions", ".pdf, .docx")
	require.NoError(t, err)
	assert.Equal(t, []string{".pdf", ".docx"}, cfg.Upload.AllowedExtensions)

	reloaded, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 100, reloaded.UI.WordWrap)
	assert.Equal(t, []string{".pdf", ".docx"}, reloaded.Upload.AllowedExtensions)

	_, err = setConfigValue(path, "ui.no_such_key", "x")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestSetConfigValue_EnvNotPersisted(t *testing.T) {
	isolate(t)
	t.Setenv("COURSECRAFT_SERVICE_URL", "http://env.test:9999")
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := setConfigValue(path, "ui.theme", "light")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "env.test")
}

func TestFormatConfigValue(t *testing.T) {
	assert.Equal(t, ".pdf,.doc", formatConfigValue([]string{".pdf", ".doc"}))
	assert.Equal(t, `""`, formatConfigValue(""))
	assert.Equal(t, "42", formatConfigValue(42))
	assert.Equal(t, "true", formatConfigValue(true))
}
