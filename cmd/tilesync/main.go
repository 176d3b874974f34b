// Tilesync Core
// Copyright (c) 2025 The Tilesync Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Tilesync Core.
//
// Tilesync Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Tilesync Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Tilesync Core.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/TilesyncProject/tilesync-core/pkg/config"
	"github.com/TilesyncProject/tilesync-core/pkg/helpers"
	"github.com/TilesyncProject/tilesync-core/pkg/library"
	"github.com/TilesyncProject/tilesync-core/pkg/sync"
	"github.com/TilesyncProject/tilesync-core/pkg/tiles"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	dataDir := flag.String(
		"data",
		"",
		"data directory for config, logs and launch scripts",
	)
	catalogPath := flag.String(
		"catalog",
		"",
		"path to the game catalog export (catalog.json)",
	)
	once := flag.Bool(
		"once",
		false,
		"run a single full sync and exit",
	)
	showVersion := flag.Bool(
		"version",
		false,
		"print version and exit",
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", config.AppName, config.AppVersion)
		return nil
	}

	dir := *dataDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("could not resolve config directory: %w", err)
		}
		dir = filepath.Join(base, config.AppName)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("could not create data directory: %w", err)
	}

	if err := helpers.InitLogging(dir, []io.Writer{os.Stderr}); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(dir, config.BaseDefaults)
	if err != nil {
		log.Error().Err(err).Msg("error loading config")
		return fmt.Errorf("error loading config: %w", err)
	}
	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if cfg.RootDir() == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not resolve home directory: %w", err)
		}
		cfg.SetRootDir(filepath.Join(home, "Desktop", "Game Shortcuts"))
		if err := cfg.Save(); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	catalog := *catalogPath
	if catalog == "" {
		catalog = filepath.Join(dir, "catalog.json")
	}

	fsys := afero.NewOsFs()
	cat, err := library.NewFileCatalog(fsys, catalog)
	if err != nil {
		log.Error().Err(err).Msg("error loading catalog")
		return fmt.Errorf("error loading catalog: %w", err)
	}

	deps := &tiles.Deps{
		Fs:       fsys,
		Clock:    clockwork.NewRealClock(),
		IconPath: cat.IconPath,
		RenderScript: func(g *library.Game) string {
			if cfg.Snapshot().UsePlayAction(g.SourceName()) {
				return tiles.PlayActionScript(g)
			}
			return tiles.DeepLinkScript(g)
		},
		FadeEdge: cfg.ShortcutSettings().FadeTopEdge,
	}

	svc := sync.NewService(cfg, cat, deps, dir)
	if err := svc.Start(); err != nil {
		log.Error().Err(err).Msg("error starting service")
		return fmt.Errorf("error starting service: %w", err)
	}
	defer svc.Stop()

	svc.SyncAll()
	if *once {
		return nil
	}

	stopWatch, err := cat.Watch()
	if err != nil {
		log.Warn().Err(err).Msg("catalog watcher unavailable, changes need a restart")
	} else {
		defer stopWatch()
	}

	log.Info().Msgf("%s v%s running, shortcuts in %s", config.AppName, config.AppVersion, cfg.RootDir())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info().Msg("shutting down")
	return nil
}
