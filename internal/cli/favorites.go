// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// favorites.go - Saved courses.
//
// Command: favorites [subcommand]
// Short:   List or remove saved courses
// Aliases: fav
//
// Subcommands:
//   list (default)      List saved courses, newest first
//   show CODE           Show one saved course in full
//   remove CODE         Remove a saved course
//
// Courses are saved from the chat (f in the full-screen chat, /fav N in
// line mode).

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ece1786-2024/CourseCraft/internal/storage"
	"github.com/ece1786-2024/CourseCraft/internal/ui/components"
	"github.com/ece1786-2024/CourseCraft/internal/ui/styles"
)

const favoritesUsage = "coursecraft favorites [list|show CODE|remove CODE]"

// HandleFavorites runs the favorites command.
func HandleFavorites(ctx context.Context, args Args) error {
	app, err := NewApp(args, AppOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Favorites == nil {
		return NewCommandError("favorites", args.Subcommand, "favorites database unavailable", nil)
	}
	return runFavorites(ctx, app, args)
}

func runFavorites(ctx context.Context, app *App, args Args) error {
	parser := NewArgParser(args.Raw)
	switch strings.ToLower(args.Subcommand) {
	case "", "list", "ls":
		return favoritesList(ctx, app, args.JSON)
	case "show":
		code := parser.Positional(1)
		if code == "" {
			return ErrMissingArgument("course code", "coursecraft favorites show CSC108H1")
		}
		return favoritesShow(ctx, app, code, args.JSON)
	case "remove", "rm", "delete":
		code := parser.Positional(1)
		if code == "" {
			return ErrMissingArgument("course code", "coursecraft favorites remove CSC108H1")
		}
		return favoritesRemove(ctx, app, code, args.JSON)
	default:
		return ErrUnknownSubcommand("favorites", args.Subcommand, favoritesUsage)
	}
}

func favoritesList(ctx context.Context, app *App, jsonMode bool) error {
	favs, err := app.Favorites.List(ctx)
	if err != nil {
		return NewCommandError("favorites", "list", "could not read favorites", err)
	}
	if jsonMode {
		data := make([]FavoriteData, 0, len(favs))
		for _, f := range favs {
			data = append(data, favoriteData(f))
		}
		return NewJSONResponse("favorites list", data).Write(app.Out)
	}
	printFavorites(app.Out, favs)
	return nil
}

func favoritesShow(ctx context.Context, app *App, code string, jsonMode bool) error {
	fav, err := findFavorite(ctx, app.Favorites, code)
	if err != nil {
		return err
	}
	if jsonMode {
		return NewJSONResponse("favorites show", fav.Item).Write(app.Out)
	}
	width := RenderWidth(app.Config.UI.WordWrap)
	fmt.Fprintln(app.Out, components.RenderCourseCard(styles.NewTheme(app.Config.UI.Theme), fav.Item, false, true, true, width))
	printFavoriteMeta(app.Out, fav)
	return nil
}

func favoritesRemove(ctx context.Context, app *App, code string, jsonMode bool) error {
	if err := app.Favorites.Remove(ctx, code); err != nil {
		if errors.Is(err, storage.ErrFavoriteNotFound) {
			return NewNotFoundError("favorite", code)
		}
		return NewCommandError("favorites", "remove", "could not remove "+code, err)
	}
	if jsonMode {
		return NewJSONResponse("favorites remove", map[string]string{"removed": strings.ToUpper(code)}).Write(app.Out)
	}
	fmt.Fprintf(app.Out, "%s Removed %s\n", SuccessStyle.Render("[OK]"), strings.ToUpper(code))
	return nil
}

func findFavorite(ctx context.Context, store *storage.FavoritesStore, code string) (storage.Favorite, error) {
	favs, err := store.List(ctx)
	if err != nil {
		return storage.Favorite{}, err
	}
	for _, f := range favs {
		if strings.EqualFold(f.Item.CourseCode, strings.TrimSpace(code)) {
			return f, nil
		}
	}
	return storage.Favorite{}, NewNotFoundError("favorite", code)
}

func favoriteData(f storage.Favorite) FavoriteData {
	return FavoriteData{
		CourseCode: f.Item.CourseCode,
		Name:       f.Item.Name,
		Department: f.Item.Department,
		SessionID:  f.SessionID,
		AddedAt:    f.AddedAt,
	}
}

func printFavoriteMeta(w io.Writer, f storage.Favorite) {
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Saved"), ValueStyle.Render(f.AddedAt.Format("2006-01-02 15:04")))
	if f.SessionID != "" {
		fmt.Fprintf(w, "%s %s\n", RenderLabel("From session"), ValueStyle.Render(shortID(f.SessionID)))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
