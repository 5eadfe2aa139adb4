// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for CourseCraft.
//
// # Key Types
//
//   - FavoritesStore: Saved courses in SQLite, keyed by course code
//   - ConversationStore: Finished conversations as JSON files
//   - StoredConversation: A transcript plus its recommendations
//
// # Usage
//
//	favs, err := storage.OpenFavorites(cfg.DatabasePath())
//	err = favs.Add(ctx, item, sess.ID())
//
//	history, err := storage.NewConversationStore(dir)
//	err = history.Save(storage.NewStoredConversation(id, started, transcript, true, recs))
//
// # Storage Location
//
// The database lives at ~/.coursecraft/coursecraft.db and conversations in
// ~/.coursecraft/conversations/.
package storage
