// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat with the advisor.
//
// Command: chat
// Short:   Chat with the advisor one line at a time
//
// Used when the full-screen chat cannot run (piped input, dumb terminals)
// or when asked for explicitly.
//
// Examples:
//   coursecraft chat
//   coursecraft chat --url http://advisor.example.edu:5000
//
// Interactive commands (during chat):
//   /help, /h             Show available commands
//   /upload PATH          Send a resume to the advisor
//   /courses              Show the recommended courses again
//   /fav N                Save or unsave recommended course N
//   /favorites            List saved courses
//   /export [FMT] [courses]  Write the conversation to a file
//   /reset, /new          Start over
//   /quit, /q             Exit chat
//   //text                Send "/text" as a message
//   Ctrl+C                Cancel the request in flight, or exit at the prompt
//   Ctrl+D                Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/ece1786-2024/CourseCraft/internal/advisor"
	"github.com/ece1786-2024/CourseCraft/internal/config"
	"github.com/ece1786-2024/CourseCraft/internal/engine"
	"github.com/ece1786-2024/CourseCraft/internal/export"
	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/storage"
	"github.com/ece1786-2024/CourseCraft/internal/ui/components"
	"github.com/ece1786-2024/CourseCraft/internal/ui/styles"
	"github.com/ece1786-2024/CourseCraft/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatInput provides line editing and persistent history for the chat.
type ChatInput struct {
	line        *liner.State
	historyFile string
}

// NewChatInput opens the terminal for line editing and loads history from
// the config directory.
func NewChatInput() *ChatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	in := &ChatInput{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	if f, err := os.Open(in.historyFile); err == nil {
		_, _ = in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// ReadLine reads a line; non-blank lines are added to history.
func (c *ChatInput) ReadLine(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history (owner read/write only) and restores the terminal.
func (c *ChatInput) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// ChatSession is one line-mode conversation. It prints to out and never
// reads the terminal itself, so tests drive it through processLine.
type ChatSession struct {
	app   *App
	eng   *engine.Engine
	md    *components.Markdown
	theme *styles.Theme
	out   io.Writer
	width int
	quiet bool

	// exportDir is where /export writes.
	exportDir string
}

// NewChatSession starts a conversation on app.
func NewChatSession(app *App, out io.Writer, quiet bool) *ChatSession {
	theme := styles.NewTheme(app.Config.UI.Theme)
	return &ChatSession{
		app:       app,
		eng:       app.NewEngine(nil),
		md:        components.NewMarkdown(app.Config.UI.MarkdownStyle),
		theme:     theme,
		out:       out,
		width:     RenderWidth(app.Config.UI.WordWrap),
		quiet:     quiet,
		exportDir: ".",
	}
}

// Engine returns the conversation engine.
func (s *ChatSession) Engine() *engine.Engine {
	return s.eng
}

// Close waits for background requests.
func (s *ChatSession) Close() {
	s.eng.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the line-mode chat until the user quits.
func HandleChat(ctx context.Context, args Args) error {
	app, err := NewApp(args, AppOptions{LogToFile: !args.Verbose})
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Client.IsConfigured() {
		return advisor.ErrNotConfigured
	}

	sess := NewChatSession(app, os.Stdout, args.Quiet)
	defer sess.Close()

	if !args.Quiet {
		sess.printWelcome()
	}

	input := NewChatInput()
	defer input.Close()

	for {
		line, err := input.ReadLine(PromptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or a closed stdin all end the chat.
			fmt.Fprintln(sess.out)
			sess.printGoodbye()
			return nil
		}

		cont, err := sess.processLine(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		if !cont {
			sess.printGoodbye()
			return nil
		}
	}
}

// processLine handles one line of input. It returns false when the chat
// should end.
func (s *ChatSession) processLine(ctx context.Context, line string) (bool, error) {
	text := strings.TrimSpace(line)
	if text == "" {
		return true, nil
	}

	if isSlashCommand(text) {
		return s.handleSlashCommand(ctx, text)
	}
	if strings.EqualFold(text, "exit") || strings.EqualFold(text, "quit") {
		return false, nil
	}
	// "//text" sends "/text".
	if strings.HasPrefix(text, "//") {
		text = text[1:]
	}
	return true, s.send(ctx, text)
}

// send submits text and prints everything the advisor added in reply.
func (s *ChatSession) send(ctx context.Context, text string) error {
	before := s.eng.Transcript().Len()

	// Ctrl+C while waiting cancels the request, not the chat.
	reqCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	task := s.eng.Submit(reqCtx, util.NormalizeInput(text))
	if task == nil {
		return nil
	}
	if !s.quiet {
		fmt.Fprintln(s.out, DimStyle.Render(s.eng.Texts().Placeholder))
	}

	outcome, err := task.Wait(ctx)
	if outcome == engine.OutcomePending {
		return err
	}

	// The user turn sits at index before; the reply replaced the placeholder
	// right after it.
	turns := s.eng.Transcript().Turns()
	for i := before + 1; i < len(turns); i++ {
		if turns[i].IsBot() {
			s.printAdvisor(turns[i].Text)
		}
	}
	if outcome == engine.OutcomeFailed && err != nil {
		s.app.Logger.Debug("query failed", "error", err)
		if !s.quiet {
			fmt.Fprintln(s.out, DimStyle.Render("("+err.Error()+")"))
		}
	}

	if snap := s.eng.Snapshot(); snap.Terminated {
		s.printCourses(snap.Recommendations)
	}
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

type slashHandler func(s *ChatSession, ctx context.Context, args []string) (bool, error)

var slashCommands = map[string]slashHandler{
	"help":      (*ChatSession).cmdHelp,
	"h":         (*ChatSession).cmdHelp,
	"?":         (*ChatSession).cmdHelp,
	"quit":      (*ChatSession).cmdQuit,
	"q":         (*ChatSession).cmdQuit,
	"exit":      (*ChatSession).cmdQuit,
	"reset":     (*ChatSession).cmdReset,
	"new":       (*ChatSession).cmdReset,
	"upload":    (*ChatSession).cmdUpload,
	"resume":    (*ChatSession).cmdUpload,
	"courses":   (*ChatSession).cmdCourses,
	"fav":       (*ChatSession).cmdFav,
	"favorites": (*ChatSession).cmdFavorites,
	"export":    (*ChatSession).cmdExport,
}

func isSlashCommand(s string) bool {
	return strings.HasPrefix(s, "/") && len(s) > 1 && s[1] != '/'
}

func (s *ChatSession) handleSlashCommand(ctx context.Context, text string) (bool, error) {
	parts := strings.Fields(text)
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	handler, ok := slashCommands[name]
	if !ok {
		return true, fmt.Errorf("unknown command /%s (try /help)", name)
	}
	return handler(s, ctx, parts[1:])
}

func (s *ChatSession) cmdHelp(_ context.Context, _ []string) (bool, error) {
	fmt.Fprintln(s.out, TitleStyle.Render("Commands"))
	rows := [][2]string{
		{"/upload PATH", "Send a resume (" + strings.Join(s.app.Config.Upload.AllowedExtensions, ", ") + ")"},
		{"/courses", "Show the recommended courses"},
		{"/fav N", "Save or unsave course N"},
		{"/favorites", "List saved courses"},
		{"/export [FMT] [courses]", "Write to a file (json, markdown, yaml, html)"},
		{"/reset", "Start a new conversation"},
		{"/quit", "Exit"},
	}
	for _, r := range rows {
		fmt.Fprintf(s.out, "  %s %s\n", CourseCodeStyle.Render(util.PadRight(r[0], 24)), r[1])
	}
	return true, nil
}

func (s *ChatSession) cmdQuit(_ context.Context, _ []string) (bool, error) {
	return false, nil
}

func (s *ChatSession) cmdReset(ctx context.Context, _ []string) (bool, error) {
	task := s.eng.Reset(ctx)
	fmt.Fprintln(s.out, SuccessStyle.Render("[OK]")+" Started a new conversation")
	s.printAdvisor(s.eng.Texts().Greeting)
	if _, err := task.Wait(ctx); err != nil {
		// The local reset already happened.
		s.app.Logger.Warn("advisor reset failed", "error", err)
	}
	return true, nil
}

func (s *ChatSession) cmdUpload(ctx context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return true, ErrMissingArgument("path", "/upload ~/resume.pdf")
	}
	path := expandHome(strings.Join(args, " "))
	att, err := advisor.LoadAttachment(path, s.app.Config.Upload.MaxBytes)
	if err != nil {
		return true, err
	}

	before := s.eng.Transcript().Len()
	outcome, err := s.eng.Upload(ctx, att).Wait(ctx)
	if err != nil {
		return true, err
	}
	if outcome == engine.OutcomeUploaded {
		turns := s.eng.Transcript().Turns()
		for i := before; i < len(turns); i++ {
			if turns[i].IsBot() && !turns[i].IsPlaceholder() {
				s.printAdvisor(turns[i].Text)
			}
		}
	}
	return true, nil
}

func (s *ChatSession) cmdCourses(_ context.Context, _ []string) (bool, error) {
	snap := s.eng.Snapshot()
	if !snap.Terminated {
		fmt.Fprintln(s.out, DimStyle.Render("No recommendations yet. Keep chatting, then say \"done\"."))
		return true, nil
	}
	s.printCourses(snap.Recommendations)
	return true, nil
}

func (s *ChatSession) cmdFav(ctx context.Context, args []string) (bool, error) {
	if s.app.Favorites == nil {
		return true, errors.New("favorites are not available")
	}
	recs := s.eng.Recommendations()
	if len(args) == 0 {
		return true, ErrMissingArgument("course number", "/fav 1")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(recs) {
		return true, NewValidationError("course number", args[0], fmt.Sprintf("must be between 1 and %d", len(recs)))
	}
	item := recs[n-1]
	added, err := s.app.Favorites.Toggle(ctx, item, s.eng.Session().ID())
	if err != nil {
		return true, err
	}
	if added {
		fmt.Fprintf(s.out, "%s Saved %s\n", SuccessStyle.Render("[*]"), item.CourseCode)
	} else {
		fmt.Fprintf(s.out, "%s Removed %s from favorites\n", DimStyle.Render("[ ]"), item.CourseCode)
	}
	return true, nil
}

func (s *ChatSession) cmdFavorites(ctx context.Context, _ []string) (bool, error) {
	if s.app.Favorites == nil {
		return true, errors.New("favorites are not available")
	}
	favs, err := s.app.Favorites.List(ctx)
	if err != nil {
		return true, err
	}
	printFavorites(s.out, favs)
	return true, nil
}

func (s *ChatSession) cmdExport(_ context.Context, args []string) (bool, error) {
	format := export.FormatMarkdown
	opts := export.DefaultOptions()
	opts.OutputDir = s.exportDir
	for _, a := range args {
		if strings.EqualFold(a, "courses") {
			opts.RecommendationsOnly = true
			continue
		}
		f, err := export.ParseFormat(a)
		if err != nil {
			return true, err
		}
		format = f
	}

	snap := s.eng.Snapshot()
	if opts.RecommendationsOnly && len(snap.Recommendations) == 0 {
		return true, errors.New("no recommendations to export yet")
	}
	sess := s.eng.Session()
	conv := storage.NewStoredConversation(sess.ID(), sess.StartedAt(), snap.Transcript, snap.Terminated, snap.Recommendations)

	exporter, err := export.New(format, opts)
	if err != nil {
		return true, err
	}
	path, err := export.ExportToFile(conv, exporter, opts)
	if err != nil {
		return true, err
	}
	fmt.Fprintf(s.out, "%s Exported to %s\n", SuccessStyle.Render("[OK]"), path)
	return true, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func (s *ChatSession) printWelcome() {
	fmt.Fprintln(s.out, TitleStyle.Render("CourseCraft")+" "+DimStyle.Render("session "+s.eng.Session().ShortID()))
	fmt.Fprintln(s.out, DimStyle.Render("Type /help for commands, /quit to leave."))
	fmt.Fprintln(s.out)
	s.printAdvisor(s.eng.Texts().Greeting)
}

func (s *ChatSession) printGoodbye() {
	if s.quiet {
		return
	}
	user := s.eng.Transcript().CountByOrigin(model.OriginUser)
	fmt.Fprintln(s.out, DimStyle.Render(fmt.Sprintf("Goodbye. %s this session.", util.Plural(user, "message"))))
}

func (s *ChatSession) printAdvisor(text string) {
	fmt.Fprintln(s.out, AdvisorStyle.Render("advisor>"))
	fmt.Fprintln(s.out, s.md.Render(text, s.width))
	fmt.Fprintln(s.out)
}

func (s *ChatSession) printCourses(items []model.RecommendationItem) {
	printCourses(s.out, s.theme, items, s.width)
	if len(items) > 0 {
		fmt.Fprintln(s.out, DimStyle.Render("Use /fav N to save a course, /export courses to keep the list."))
	}
}

func printCourses(w io.Writer, theme *styles.Theme, items []model.RecommendationItem, width int) {
	if len(items) == 0 {
		fmt.Fprintln(w, WarningStyle.Render("[!]")+" The advisor finished but sent no course list.")
		return
	}
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Recommended courses (%d)", len(items))))
	fmt.Fprintln(w, RenderSeparator(width))
	for i, item := range items {
		fmt.Fprintln(w, DimStyle.Render(strconv.Itoa(i+1)+"."))
		fmt.Fprintln(w, components.RenderCourseCard(theme, item, false, false, true, width))
	}
}

func printFavorites(w io.Writer, favs []storage.Favorite) {
	if len(favs) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No favorite courses yet."))
		return
	}
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Favorite courses (%d)", len(favs))))
	for _, f := range favs {
		fmt.Fprintf(w, "  %s %s %s\n",
			CourseCodeStyle.Render(util.PadRight(f.Item.CourseCode, 10)),
			util.TruncateWidth(f.Item.Name, 48),
			DimStyle.Render(f.AddedAt.Format("2006-01-02")))
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
