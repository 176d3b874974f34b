package tiles_test

import (
	"testing"

	"github.com/TilesyncProject/tilesync-core/pkg/library"
	"github.com/TilesyncProject/tilesync-core/pkg/tiles"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDeepLinkScript(t *testing.T) {
	t.Parallel()

	g := &library.Game{
		ID:   uuid.MustParse("8b34e2ab-1f19-4b79-9769-f44f41dfee5a"),
		Name: "Outer Wilds",
	}
	body := tiles.DeepLinkScript(g)
	assert.Contains(t, body, `prefix = "playnite://playnite/start/"`)
	assert.Contains(t, body, `id = "8b34e2ab-1f19-4b79-9769-f44f41dfee5a"`)
	assert.Contains(t, body, "WshShell.Run prefix & id, 1")
}

func TestPlayActionScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		game     library.Game
		contains []string
	}{
		{
			name: "file action sets working directory",
			game: library.Game{
				Name:   "Quake",
				Source: "GOG",
				Action: library.LaunchAction{
					Kind:       library.ActionFile,
					Path:       `C:\Games\Quake\quake.exe`,
					WorkingDir: `C:\Games\Quake`,
					Arguments:  "-window",
				},
			},
			contains: []string{
				`WshShell.CurrentDirectory = "C:\Games\Quake"`,
				"Call WshShell.Run",
				"-window",
			},
		},
		{
			name: "url action runs the url",
			game: library.Game{
				Name:   "Hades",
				Source: "Epic",
				Action: library.LaunchAction{
					Kind: library.ActionURL,
					Path: "com.epicgames.launcher://apps/Min?action=launch",
				},
			},
			contains: []string{
				`WshShell.Run "com.epicgames.launcher://apps/Min?action=launch", 1`,
			},
		},
		{
			name: "xbox goes through explorer",
			game: library.Game{
				Name:   "Sea of Thieves",
				Source: "Xbox",
				Action: library.LaunchAction{
					Kind:      library.ActionFile,
					Arguments: `shell:AppsFolder\Microsoft.SeaofThieves_8wekyb3d8bbwe!App`,
				},
			},
			contains: []string{
				`WshShell.Run "explorer.exe"`,
				"SeaofThieves",
			},
		},
		{
			name: "no action falls back to deep link",
			game: library.Game{
				ID:   uuid.MustParse("11111111-2222-4333-8444-555555555555"),
				Name: "Mystery",
			},
			contains: []string{"playnite://playnite/start/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			body := tiles.PlayActionScript(&tt.game)
			for _, want := range tt.contains {
				assert.Contains(t, body, want)
			}
		})
	}
}
