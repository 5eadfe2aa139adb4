// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for CourseCraft.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, a .env file, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServiceConfig: Where the advisor service lives and how hard to call it
//   - ChatConfig: The fixed texts of the conversation
//   - ServerConfig: The bundled stub advisor service
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (COURSECRAFT_*), including those from ./.env
//   - ~/.coursecraft/config.toml
//   - ~/.coursecraft/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := advisor.NewClient(cfg.Service.BaseURL)
//
// Watch reloads a file as it changes:
//
//	go config.Watch(ctx, path, func(cfg *config.Config, err error) { ... })
package config
