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

package tiles

import (
	"fmt"

	"github.com/TilesyncProject/tilesync-core/pkg/library"
)

// ScriptRenderer produces the launch script body for a game. The bundle does
// not know which launch strategy is in effect; the caller picks a renderer
// per source.
type ScriptRenderer func(g *library.Game) string

// DeepLinkScript launches the game through the host application's protocol
// handler, so play time tracking and emulator profiles stay in effect.
func DeepLinkScript(g *library.Game) string {
	return "Dim prefix, id\n" +
		"prefix = \"playnite://playnite/start/\"\n" +
		fmt.Sprintf("id = \"%s\"\n", g.ID) +
		"Set WshShell = WScript.CreateObject(\"WScript.Shell\")\n" +
		"WshShell.Run prefix & id, 1\n" +
		"Set WshShell=Nothing"
}

// PlayActionScript launches the game directly through its own play action,
// bypassing the host. Games without a usable action fall back to the deep
// link, as do store-managed sources whose actions only work in-host.
func PlayActionScript(g *library.Game) string {
	if g.SourceName() == "Xbox" {
		// UWP apps have no launchable executable path; explorer resolves
		// the shell application identity passed in the arguments.
		return "Set WshShell = WScript.CreateObject(\"WScript.Shell\")\n" +
			fmt.Sprintf("WshShell.Run \"explorer.exe\" & \" \" & \"%s\", 1\n", g.Action.Arguments) +
			"Set WshShell=Nothing"
	}

	switch g.Action.Kind {
	case library.ActionURL:
		return "Set WshShell = WScript.CreateObject(\"WScript.Shell\")\n" +
			fmt.Sprintf("WshShell.Run \"%s\", 1\n", g.Action.Path) +
			"Set WshShell=Nothing"
	case library.ActionFile:
		return "Set WshShell = WScript.CreateObject(\"WScript.Shell\")\n" +
			fmt.Sprintf("WshShell.CurrentDirectory = \"%s\"\n", g.Action.WorkingDir) +
			fmt.Sprintf("Call WshShell.Run (\"%s\" & \" \" & \"%s\", 1, false)\n",
				g.Action.Path, g.Action.Arguments) +
			"Set WshShell=Nothing"
	default:
		return DeepLinkScript(g)
	}
}
