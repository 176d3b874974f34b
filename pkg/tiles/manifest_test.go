package tiles_test

import (
	"path/filepath"
	"testing"

	"github.com/TilesyncProject/tilesync-core/pkg/tiles"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var manifestGameID = uuid.MustParse("3f1a2b3c-4d5e-4f60-8172-839405a6b7c8")

func TestEnsureManifestCreatesFreshFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	path := filepath.Join("scripts", manifestGameID.String()+".visualelementsmanifest.xml")

	style := tiles.TileStyle{BackgroundHex: "#336699", ForegroundText: tiles.ForegroundLight}
	require.NoError(t, tiles.EnsureManifest(fs, path, "scripts", manifestGameID, style))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `BackgroundColor="#336699"`)
	assert.Contains(t, content, `ShowNameOnSquare150x150Logo="on"`)
	assert.Contains(t, content, `ForegroundText="light"`)
	assert.Contains(t, content, manifestGameID.String()+".png")
	assert.Contains(t, content, manifestGameID.String()+"_70.png")
	assert.True(t, tiles.ValidManifest(fs, path))
}

func TestEnsureManifestPreservesUserEdits(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	path := filepath.Join("scripts", manifestGameID.String()+".visualelementsmanifest.xml")

	// Logo targets exist, so a patch pass has nothing to change.
	logo := filepath.Join("icons", "custom.png")
	require.NoError(t, afero.WriteFile(fs, filepath.Join("scripts", logo), []byte("png"), 0o644))

	user := `<Application xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<VisualElements BackgroundColor="#123456" ShowNameOnSquare150x150Logo="off"` +
		` ForegroundText="dark" Square150x150Logo="icons/custom.png"` +
		` Square70x70Logo="icons/custom.png"/></Application>`
	require.NoError(t, afero.WriteFile(fs, path, []byte(user), 0o644))

	style := tiles.TileStyle{BackgroundHex: "#ffffff", ForegroundText: tiles.ForegroundLight}
	require.NoError(t, tiles.EnsureManifest(fs, path, "scripts", manifestGameID, style))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "#123456", "user background color must survive")
	assert.NotContains(t, content, "#ffffff")
	assert.False(t, tiles.ManifestShowsName(fs, path))
}

func TestEnsureManifestRepointsDanglingLogos(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	path := filepath.Join("scripts", manifestGameID.String()+".visualelementsmanifest.xml")

	user := `<Application><VisualElements BackgroundColor="#123456"` +
		` ShowNameOnSquare150x150Logo="on" ForegroundText="dark"` +
		` Square150x150Logo="gone.png" Square70x70Logo="gone_70.png"/></Application>`
	require.NoError(t, afero.WriteFile(fs, path, []byte(user), 0o644))

	require.NoError(t, tiles.EnsureManifest(fs, path, "scripts", manifestGameID, tiles.DefaultTileStyle))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, manifestGameID.String()+".png")
	assert.Contains(t, content, manifestGameID.String()+"_70.png")
	assert.NotContains(t, content, "gone.png")
	assert.Contains(t, content, "#123456", "only logo references may change")
}

func TestEnsureManifestReplacesInvalidFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	path := filepath.Join("scripts", manifestGameID.String()+".visualelementsmanifest.xml")
	require.NoError(t, afero.WriteFile(fs, path, []byte("not xml at all <"), 0o644))

	require.NoError(t, tiles.EnsureManifest(fs, path, "scripts", manifestGameID, tiles.DefaultTileStyle))
	assert.True(t, tiles.ValidManifest(fs, path))
}

func TestManifestShowsNameDefaults(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	assert.True(t, tiles.ManifestShowsName(fs, "missing.xml"))
}

func TestSetManifestShowsName(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	path := filepath.Join("scripts", manifestGameID.String()+".visualelementsmanifest.xml")
	require.NoError(t, tiles.EnsureManifest(fs, path, "scripts", manifestGameID, tiles.DefaultTileStyle))

	require.NoError(t, tiles.SetManifestShowsName(fs, path, false))
	assert.False(t, tiles.ManifestShowsName(fs, path))

	require.NoError(t, tiles.SetManifestShowsName(fs, path, true))
	assert.True(t, tiles.ManifestShowsName(fs, path))
}
