// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Finished conversations saved on this machine.
//
// Command: history [subcommand]
// Short:   Browse, search and export past conversations
//
// Subcommands:
//   list (default)       List saved conversations, newest first
//   search QUERY         Find conversations mentioning QUERY
//   show ID              Print a conversation
//   delete ID            Delete a conversation
//   export ID            Write a conversation to a file
//
// IDs may be abbreviated to any unique prefix (the list shows 8 characters).
//
// Flags:
//   --limit N            Show at most N conversations (list, search)
//   --format FMT         json, markdown, yaml or html (export; default markdown)
//   --output DIR         Directory for exported files (default ".")
//   --courses            Export only the recommended courses
//   --open               Open the exported file

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ece1786-2024/CourseCraft/internal/export"
	"github.com/ece1786-2024/CourseCraft/internal/storage"
	"github.com/ece1786-2024/CourseCraft/internal/ui/components"
	"github.com/ece1786-2024/CourseCraft/internal/ui/styles"
)

const historyUsage = "coursecraft history [list|search QUERY|show ID|delete ID|export ID]"

// historyBoolFlags never take a value.
var historyBoolFlags = []string{"courses", "open", "json"}

// HandleHistory runs the history command.
func HandleHistory(args Args) error {
	app, err := NewApp(args, AppOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Conversations == nil {
		return NewCommandError("history", args.Subcommand, "history directory unavailable", nil)
	}
	return runHistory(app, args)
}

func runHistory(app *App, args Args) error {
	parser := NewArgParser(args.Raw, historyBoolFlags...)
	limit := parser.FlagIntOrDefault("limit", 0)

	switch strings.ToLower(args.Subcommand) {
	case "", "list", "ls":
		metas, err := app.Conversations.List()
		if err != nil {
			return NewCommandError("history", "list", "could not read history", err)
		}
		return printHistoryList(app, "history list", metas, limit, args.JSON)

	case "search", "find":
		query := JoinPositionalArgs(parser, 1)
		if query == "" {
			return ErrMissingArgument("query", "coursecraft history search calculus")
		}
		metas, err := app.Conversations.Search(query)
		if err != nil {
			return NewCommandError("history", "search", "could not read history", err)
		}
		return printHistoryList(app, "history search", metas, limit, args.JSON)

	case "show", "view":
		conv, err := resolveConversation(app.Conversations, parser.Positional(1))
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("history show", conv).Write(app.Out)
		}
		printConversation(app, conv)
		return nil

	case "delete", "rm":
		conv, err := resolveConversation(app.Conversations, parser.Positional(1))
		if err != nil {
			return err
		}
		if err := app.Conversations.Delete(conv.ID); err != nil {
			return NewCommandError("history", "delete", "could not delete "+shortID(conv.ID), err)
		}
		if args.JSON {
			return NewJSONResponse("history delete", map[string]string{"deleted": conv.ID}).Write(app.Out)
		}
		fmt.Fprintf(app.Out, "%s Deleted conversation %s\n", SuccessStyle.Render("[OK]"), shortID(conv.ID))
		return nil

	case "export":
		conv, err := resolveConversation(app.Conversations, parser.Positional(1))
		if err != nil {
			return err
		}
		path, err := exportConversation(conv, parser)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("history export", map[string]string{"path": path}).Write(app.Out)
		}
		fmt.Fprintf(app.Out, "%s Exported to %s\n", SuccessStyle.Render("[OK]"), path)
		return nil

	default:
		return ErrUnknownSubcommand("history", args.Subcommand, historyUsage)
	}
}

// resolveConversation loads the conversation whose ID is id or starts with
// it. An ambiguous prefix is a usage error.
func resolveConversation(store *storage.ConversationStore, id string) (*storage.StoredConversation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingArgument("conversation id", "coursecraft history show 3f2a9c1e")
	}

	conv, err := store.Load(id)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, storage.ErrConversationNotFound) {
		return nil, err
	}

	metas, err := store.List()
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, m := range metas {
		if strings.HasPrefix(m.ID, id) {
			matches = append(matches, m.ID)
		}
	}
	switch len(matches) {
	case 0:
		return nil, NewNotFoundError("conversation", id)
	case 1:
		return store.Load(matches[0])
	default:
		return nil, NewValidationError("conversation id", id, fmt.Sprintf("matches %d conversations", len(matches)))
	}
}

func exportConversation(conv *storage.StoredConversation, parser *ArgParser) (string, error) {
	format, err := export.ParseFormat(parser.FlagOrDefault("format", string(export.FormatMarkdown)))
	if err != nil {
		return "", NewValidationError("format", parser.Flag("format"), err.Error())
	}
	opts := export.DefaultOptions()
	opts.OutputDir = expandHome(parser.FlagOrDefault("output", opts.OutputDir))
	opts.RecommendationsOnly = parser.BoolFlag("courses")
	opts.OpenAfterExport = parser.BoolFlag("open")

	exporter, err := export.New(format, opts)
	if err != nil {
		return "", err
	}
	return export.ExportToFile(conv, exporter, opts)
}

// =============================================================================
// OUTPUT
// =============================================================================

func printHistoryList(app *App, command string, metas []storage.ConversationMeta, limit int, jsonMode bool) error {
	if limit > 0 && len(metas) > limit {
		metas = metas[:limit]
	}
	if jsonMode {
		data := make([]ConversationSummaryData, 0, len(metas))
		for _, m := range metas {
			data = append(data, ConversationSummaryData{
				ID:              m.ID,
				Summary:         m.Summary,
				Preview:         m.Preview,
				Turns:           m.TurnCount,
				Recommendations: m.RecommendationCount,
				UpdatedAt:       m.UpdatedAt,
			})
		}
		return NewJSONResponse(command, data).Write(app.Out)
	}
	fmt.Fprint(app.Out, storage.FormatSessionList(metas))
	if len(metas) == 0 {
		fmt.Fprintln(app.Out)
	}
	return nil
}

func printConversation(app *App, conv *storage.StoredConversation) {
	w := app.Out
	width := RenderWidth(app.Config.UI.WordWrap)
	md := components.NewMarkdown(app.Config.UI.MarkdownStyle)

	fmt.Fprintln(w, TitleStyle.Render("Conversation "+shortID(conv.ID)))
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Started"), ValueStyle.Render(conv.CreatedAt.Format("2006-01-02 15:04")))
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Summary"), ValueStyle.Render(conv.Summary))
	fmt.Fprintln(w, RenderSeparator(width))

	for _, turn := range conv.Turns {
		printStoredTurn(w, md, turn.IsUser(), turn.Text, width)
	}
	if len(conv.Recommendations) > 0 {
		printCourses(w, styles.NewTheme(app.Config.UI.Theme), conv.Recommendations, width)
	}
}

func printStoredTurn(w io.Writer, md *components.Markdown, user bool, text string, width int) {
	if user {
		fmt.Fprintln(w, PromptStyle.Render("you>")+" "+text)
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, AdvisorStyle.Render("advisor>"))
	fmt.Fprintln(w, md.Render(text, width))
	fmt.Fprintln(w)
}
