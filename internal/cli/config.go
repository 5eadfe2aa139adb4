// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show the configuration file path
//   init [--force]      Write a configuration file with the defaults
//   get KEY             Print one value
//   set KEY VALUE       Change one value in the configuration file
//   reset               Overwrite the configuration file with the defaults
//   validate            Check the configuration file
//
// Keys use dot notation: service.base_url, service.timeout, ui.theme,
// ui.word_wrap, chat.greeting, upload.max_bytes, log.level, server.addr...
// List values (upload.allowed_extensions) are comma separated.
//
// Examples:
//   coursecraft config set service.base_url http://127.0.0.1:5000
//   coursecraft config set ui.theme light
//   coursecraft config get service.timeout --json

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ece1786-2024/CourseCraft/internal/config"
)

const configUsage = "coursecraft config [show|path|init|get KEY|set KEY VALUE|reset|validate]"

// HandleConfig runs the config command.
func HandleConfig(args Args) error {
	parser := NewArgParser(args.Raw, "force", "json")

	switch strings.ToLower(args.Subcommand) {
	case "", "show":
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config show", cfg).Write(os.Stdout)
		}
		path, _ := configFilePath(args)
		fmt.Println(TitleStyle.Render("CourseCraft configuration"))
		fmt.Println(DimStyle.Render("# " + path))
		fmt.Println()
		fmt.Print(cfg.String())
		return nil

	case "path":
		path, err := configFilePath(args)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": path}).Write(os.Stdout)
		}
		fmt.Println(path)
		return nil

	case "init":
		path, err := configFilePath(args)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !parser.BoolFlag("force") {
			return NewCommandError("config", "init", path+" already exists (use --force to overwrite)", nil)
		}
		return writeDefaultConfig(path, args.JSON, "config init")

	case "reset":
		path, err := configFilePath(args)
		if err != nil {
			return err
		}
		return writeDefaultConfig(path, args.JSON, "config reset")

	case "get":
		key := parser.Positional(1)
		if key == "" {
			return ErrMissingArgument("key", "coursecraft config get service.base_url")
		}
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		val, err := cfg.Get(key)
		if err != nil {
			return NewNotFoundError("config key", key)
		}
		if args.JSON {
			return NewJSONResponse("config get", ConfigValueData{Key: key, Value: val}).Write(os.Stdout)
		}
		fmt.Println(formatConfigValue(val))
		return nil

	case "set":
		key, value := parser.Positional(1), JoinPositionalArgs(parser, 2)
		if key == "" || parser.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "coursecraft config set ui.theme dark")
		}
		path, err := configFilePath(args)
		if err != nil {
			return err
		}
		cfg, err := setConfigValue(path, key, value)
		if err != nil {
			return err
		}
		newVal, _ := cfg.Get(key)
		if args.JSON {
			return NewJSONResponse("config set", ConfigValueData{Key: key, Value: newVal}).Write(os.Stdout)
		}
		fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), key, formatConfigValue(newVal))
		return nil

	case "validate":
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config validate", map[string]bool{"valid": cfg != nil}).Write(os.Stdout)
		}
		fmt.Printf("%s Configuration is valid\n", SuccessStyle.Render("[OK]"))
		return nil

	default:
		return ErrUnknownSubcommand("config", args.Subcommand, configUsage)
	}
}

// configFilePath is --config when given, else the default TOML file.
func configFilePath(args Args) (string, error) {
	if args.Config != "" {
		return args.Config, nil
	}
	return config.ConfigPathTOML()
}

// setConfigValue changes one key in the file at path. Environment overrides
// are not applied, so they never end up in the file.
func setConfigValue(path, key, value string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Set(key, value); err != nil {
		return nil, NewValidationError("key", key, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := saveConfigFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeDefaultConfig(path string, jsonMode bool, command string) error {
	if err := saveConfigFile(config.Default(), path); err != nil {
		return err
	}
	if jsonMode {
		return NewJSONResponse(command, map[string]string{"path": path}).Write(os.Stdout)
	}
	fmt.Printf("%s Wrote %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func loadConfigFile(cfg *config.Config, path string) error {
	if isJSONPath(path) {
		return config.LoadJSON(cfg, path)
	}
	return config.LoadTOML(cfg, path)
}

func saveConfigFile(cfg *config.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if isJSONPath(path) {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func formatConfigValue(v interface{}) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ",")
	case string:
		if val == "" {
			return `""`
		}
		return val
	default:
		return fmt.Sprint(val)
	}
}
