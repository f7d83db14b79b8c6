package export

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetools/wet/internal/source"
)

const sampleChat = "13.04.19, 18:59 - Carolin: Hallo, schau mal kama.info\n" +
	"13.04.19, 19:00 - Stefan: <Anhang: IMG-0001.jpg>\n" +
	"14.04.19, 08:15 - Carolin: Guten Morgen\n"

func writeExportFolder(t *testing.T, base string) string {
	t.Helper()
	dir := filepath.Join(base, "WhatsApp Chat mit Carolin")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "WhatsApp Chat mit Carolin.txt"), []byte(sampleChat), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "IMG-0001.jpg"), []byte("jpegbytes"), 0o644))
	return dir
}

func zipFolder(t *testing.T, folder, archive string) {
	t.Helper()
	f, err := os.Create(archive)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	top := filepath.Base(folder)
	err = filepath.WalkDir(folder, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		fw, err := w.Create(top + "/" + filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(fw, in)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func allFormats() Formats {
	return Formats{Max: true, Mid: true, Mail: true, Markdown: true}
}

func TestRunProducesAllArtifacts(t *testing.T) {
	base := t.TempDir()
	input := writeExportFolder(t, base)
	dest := filepath.Join(base, "out")

	snap, err := source.Resolve(input)
	require.NoError(t, err)
	defer snap.Close()

	res, err := Run(context.Background(), snap, Options{
		DestDir:     dest,
		Formats:     allFormats(),
		Sidecar:     true,
		CopySources: true,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "WhatsApp-Chat-Carolin"), res.OutDir)
	assert.Equal(t, 3, res.Messages)
	assert.Equal(t, "Stefan", res.Me) // inferred from the partner label

	assert.FileExists(t, filepath.Join(res.OutDir, "WhatsApp-Chat-Carolin-MaxHTML.html"))
	assert.FileExists(t, filepath.Join(res.OutDir, "WhatsApp-Chat-Carolin-MidHTML.html"))
	assert.FileExists(t, filepath.Join(res.OutDir, "WhatsApp-Chat-Carolin-mailHTML.html"))
	assert.FileExists(t, filepath.Join(res.OutDir, "WhatsApp-Chat-Carolin.md"))
	assert.Equal(t, filepath.Join(res.OutDir, "WhatsApp-Chat-Carolin-MaxHTML.html"), res.PrimaryHTML())

	// verified copy of the input
	assert.FileExists(t, filepath.Join(res.SourcesDir, "WhatsApp Chat mit Carolin.txt"))
	assert.FileExists(t, filepath.Join(res.SourcesDir, "IMG-0001.jpg"))

	// sidecar
	require.NotNil(t, res.Sidecar)
	assert.Equal(t, 1, res.Sidecar.Copied)
	assert.FileExists(t, filepath.Join(res.OutDir,
		"WhatsApp-Chat-Carolin-Sidecar", "images", "2019-04-13-IMG-0001.jpg"))

	// no staging leftovers
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "WhatsApp-Chat-Carolin", entries[0].Name())
}

func TestRunEmbedsByVariantPolicy(t *testing.T) {
	base := t.TempDir()
	input := writeExportFolder(t, base)
	dest := filepath.Join(base, "out")

	snap, err := source.Resolve(input)
	require.NoError(t, err)
	defer snap.Close()

	res, err := Run(context.Background(), snap, Options{
		DestDir: dest,
		Formats: allFormats(),
	})
	require.NoError(t, err)

	maxDoc, err := os.ReadFile(filepath.Join(res.OutDir, "WhatsApp-Chat-Carolin-MaxHTML.html"))
	require.NoError(t, err)
	assert.Contains(t, string(maxDoc), "data:image/jpeg;base64,")

	mailDoc, err := os.ReadFile(filepath.Join(res.OutDir, "WhatsApp-Chat-Carolin-mailHTML.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(mailDoc), "data:image/jpeg")
	assert.Contains(t, string(mailDoc), "IMG-0001.jpg")
}

func TestRunRefusesExistingOutput(t *testing.T) {
	base := t.TempDir()
	input := writeExportFolder(t, base)
	dest := filepath.Join(base, "out")

	snap, err := source.Resolve(input)
	require.NoError(t, err)
	defer snap.Close()

	opts := Options{DestDir: dest, Formats: Formats{Markdown: true}}
	_, err = Run(context.Background(), snap, opts)
	require.NoError(t, err)

	_, err = Run(context.Background(), snap, opts)
	var exists *OutputExistsError
	require.ErrorAs(t, err, &exists)
	assert.Contains(t, exists.Names, "WhatsApp-Chat-Carolin.md")

	opts.Force = true
	_, err = Run(context.Background(), snap, opts)
	assert.NoError(t, err)
}

func TestRunForceReplacesLegacyArtifacts(t *testing.T) {
	base := t.TempDir()
	input := writeExportFolder(t, base)
	dest := filepath.Join(base, "out")
	outDir := filepath.Join(dest, "WhatsApp-Chat-Carolin")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	legacy := filepath.Join(outDir, "WhatsApp-Chat-Carolin-FullHTML.html")
	require.NoError(t, os.WriteFile(legacy, []byte("<html>old</html>"), 0o644))

	snap, err := source.Resolve(input)
	require.NoError(t, err)
	defer snap.Close()

	opts := Options{DestDir: dest, Formats: allFormats()}
	_, err = Run(context.Background(), snap, opts)
	var exists *OutputExistsError
	require.ErrorAs(t, err, &exists)
	assert.Contains(t, exists.Names, "WhatsApp-Chat-Carolin-FullHTML.html")

	opts.Force = true
	_, err = Run(context.Background(), snap, opts)
	require.NoError(t, err)
	assert.NoFileExists(t, legacy)
}

func TestRunDeterministicOutput(t *testing.T) {
	base := t.TempDir()
	input := writeExportFolder(t, base)

	render := func(dest string) []byte {
		snap, err := source.Resolve(input)
		require.NoError(t, err)
		defer snap.Close()
		res, err := Run(context.Background(), snap, Options{
			DestDir: dest,
			Formats: Formats{Max: true},
		})
		require.NoError(t, err)
		data, err := os.ReadFile(res.PrimaryHTML())
		require.NoError(t, err)
		return data
	}

	first := render(filepath.Join(base, "out1"))
	second := render(filepath.Join(base, "out2"))
	assert.Equal(t, first, second)
}

func TestRunZipInputCopiesArchive(t *testing.T) {
	base := t.TempDir()
	folder := writeExportFolder(t, base)
	archive := filepath.Join(base, "WhatsApp Chat - Carolin.zip")
	zipFolder(t, folder, archive)
	dest := filepath.Join(base, "out")

	snap, err := source.Resolve(archive)
	require.NoError(t, err)
	defer snap.Close()

	res, err := Run(context.Background(), snap, Options{
		DestDir:     dest,
		Formats:     Formats{Max: true},
		CopySources: true,
	})
	require.NoError(t, err)

	assert.FileExists(t, res.SourcesZip)
	assert.Equal(t, "WhatsApp Chat - Carolin.zip", filepath.Base(res.SourcesZip))
	assert.FileExists(t, filepath.Join(res.SourcesDir, "WhatsApp Chat mit Carolin.txt"))
}
