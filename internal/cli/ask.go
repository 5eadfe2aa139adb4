// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question to the advisor.
//
// Command: ask [message]
// Short:   Send one message and print the reply
//
// Each invocation is a new conversation. The message is read from stdin
// when none is given and stdin is a pipe.
//
// Examples:
//   coursecraft ask "I like math and want to try programming"
//   coursecraft ask --file ~/resume.pdf "What should I take in first year?"
//   echo "done" | coursecraft ask --json
//   coursecraft ask --session 0b3c4a1e-... "done"
//
// Flags:
//   -f, --file FILE     Upload a resume before asking
//   --session ID        Continue an earlier ask (the ID is in its --json output)
//   --json              Output the reply (and any courses) as JSON

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ece1786-2024/CourseCraft/internal/advisor"
	"github.com/ece1786-2024/CourseCraft/internal/engine"
	"github.com/ece1786-2024/CourseCraft/internal/export"
	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/session"
	"github.com/ece1786-2024/CourseCraft/internal/ui/components"
	"github.com/ece1786-2024/CourseCraft/internal/ui/styles"
	"github.com/ece1786-2024/CourseCraft/internal/util"
)

// HandleAsk sends one message and prints the reply.
func HandleAsk(ctx context.Context, args Args) error {
	if args.Query == "" && !IsTTY() {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err == nil {
			args.Query = strings.TrimSpace(string(data))
		}
	}
	if args.Query == "" {
		return ErrMissingArgument("message", `coursecraft ask "I want to study biology"`)
	}

	app, err := NewApp(args, AppOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Client.IsConfigured() {
		return advisor.ErrNotConfigured
	}

	sess := session.New()
	if id := args.Options["session"]; id != "" {
		if sess, err = session.Parse(id); err != nil {
			return NewValidationError("session", id, "not a session ID")
		}
	}

	data, err := runAsk(ctx, app, sess, args.Query, args.Options["file"])
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("ask", data).Write(app.Out)
	}

	if args.Quiet {
		fmt.Fprintln(app.Out, data.Reply)
		if data.Terminated {
			fmt.Fprint(app.Out, export.FormatCourseList(data.Recommendations))
		}
		return nil
	}

	width := RenderWidth(app.Config.UI.WordWrap)
	md := components.NewMarkdown(app.Config.UI.MarkdownStyle)
	fmt.Fprintln(app.Out, md.Render(data.Reply, width))
	if data.Terminated {
		printCourses(app.Out, styles.NewTheme(app.Config.UI.Theme), data.Recommendations, width)
	}
	return nil
}

// runAsk uploads file (if set), sends question in sess and collects the
// reply. A failed query is an error here even though the engine shows the
// fallback text in the transcript.
func runAsk(ctx context.Context, app *App, sess session.Session, question, file string) (*AskData, error) {
	eng := app.NewEngineForSession(sess, nil)
	defer eng.Close()

	if file != "" {
		att, err := advisor.LoadAttachment(expandHome(file), app.Config.Upload.MaxBytes)
		if err != nil {
			return nil, err
		}
		if _, err := eng.Upload(ctx, att).Wait(ctx); err != nil {
			return nil, err
		}
	}

	before := eng.Transcript().Len()
	task := eng.Submit(ctx, util.NormalizeInput(question))
	if task == nil {
		return nil, ErrMissingArgument("message", `coursecraft ask "I want to study biology"`)
	}
	outcome, err := task.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if outcome != engine.OutcomeResolved {
		return nil, fmt.Errorf("query %s", outcome)
	}

	snap := eng.Snapshot()
	data := &AskData{
		SessionID:       eng.Session().ID(),
		Reply:           replyText(snap.Transcript, before),
		Terminated:      snap.Terminated,
		Recommendations: snap.Recommendations,
	}
	return data, nil
}

// replyText joins the bot turns after the user turn at index userIdx.
func replyText(t model.Transcript, userIdx int) string {
	var parts []string
	turns := t.Turns()
	for i := userIdx + 1; i < len(turns); i++ {
		if turns[i].IsBot() && !turns[i].IsPlaceholder() {
			parts = append(parts, turns[i].Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
