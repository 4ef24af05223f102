package commands_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelnotes/internal/commands"
	"travelnotes/internal/config"
	"travelnotes/internal/exitcode"
	"travelnotes/internal/notebook"
	"travelnotes/internal/service"
	"travelnotes/internal/store"
	"travelnotes/internal/testutil"
)

// runCommand runs a command against FakeService. When svc is nil the
// command gets an offline notebook, the way the dispatcher runs commands
// that do not need a session.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}

	ctx := context.Background()
	nb := notebook.NewOffline(store.New())
	if svc != nil {
		nb = notebook.New(svc, store.New())
		require.NoError(t, nb.Open(ctx))
	}

	code = cmd.Run(ctx, cfg, nb, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// parseFlags applies command-line flags to cmd the way the dispatcher does.
func parseFlags(t *testing.T, cmd commands.Command, args ...string) {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
}

// sampleService returns a backend with two notes, the first with a photo.
func sampleService() *testutil.FakeService {
	svc := testutil.NewFakeService()
	svc.AddNote("4f1c2a9e-kyoto", "Kyoto", "Temples\nand gardens", "a.png")
	svc.AddNote("9b7d0e31-lisbon", "Lisbon", "", "")
	svc.AddImage("a.png", []byte("hello"))
	return svc
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "travelnotes 0.1.0\n", stdout)
}

func TestHelpCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	for _, cmd := range commands.DefaultRegistry.All() {
		assert.Contains(t, stdout, "  "+cmd.Name()+" ")
	}
}

func TestRegistry_Aliases(t *testing.T) {
	for alias, name := range map[string]string{
		"ls":      "list",
		"delete":  "rm",
		"signin":  "login",
		"signout": "logout",
	} {
		cmd, ok := commands.DefaultRegistry.Find(alias)
		require.True(t, ok, alias)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRegistry_RejectsClashes(t *testing.T) {
	r := commands.NewRegistry()
	require.NoError(t, r.Register(&commands.ListCmd{}))

	assert.EqualError(t, r.Register(&commands.ListCmd{}), "command already registered: list")
	require.NoError(t, r.Register(&commands.RmCmd{}))
	assert.Len(t, r.All(), 2)

	cmd, ok := r.Find("ls")
	require.True(t, ok)
	assert.Equal(t, "list", cmd.Name())
	_, ok = r.Find("nope")
	assert.False(t, ok)
}

func TestListCommand_Empty(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, testutil.NewFakeService(), nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "no notes found\n", stdout)
}

func TestListCommand_EmptyQuiet(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.ListCmd{}, testutil.NewFakeService(), nil, true)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stdout)
}

func TestListCommand_Notes(t *testing.T) {
	svc := sampleService()

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	testutil.GoldenString(t, "list", stdout)
	assert.NotContains(t, svc.Calls, "DownloadImage")
}

func TestListCommand_Images(t *testing.T) {
	cmd := &commands.ListCmd{}
	cmd.SetImages(true)

	stdout, stderr, code := runCommand(t, cmd, sampleService(), nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	testutil.GoldenString(t, "list_images", stdout)
}

func TestListCommand_ImageFailureStillLists(t *testing.T) {
	svc := sampleService()
	svc.DownloadImageErr["a.png"] = errors.New("timeout")
	cmd := &commands.ListCmd{}
	cmd.SetImages(true)

	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	assert.Equal(t, exitcode.Success, code)
	testutil.GoldenString(t, "list", stdout)
}

func TestListCommand_UnexpectedArgument(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.ListCmd{}, sampleService(), []string{"extra"}, false)

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: unexpected argument: extra\n", stderr)
}

func TestShowCommand(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{"by number", "1"},
		{"by id prefix", "4f1c"},
		{"by full id upper case", "4F1C2A9E-KYOTO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, sampleService(), []string{tt.ref}, false)

			assert.Equal(t, exitcode.Success, code)
			assert.Empty(t, stderr)
			testutil.GoldenString(t, "show", stdout)
		})
	}
}

func TestShowCommand_Image(t *testing.T) {
	cmd := &commands.ShowCmd{}
	parseFlags(t, cmd, "--image")

	stdout, _, code := runCommand(t, cmd, sampleService(), []string{"1"}, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Contains(t, stdout, "photo: [photo: a.png 5 B]\n")
}

func TestShowCommand_ReferenceErrors(t *testing.T) {
	svc := sampleService()
	svc.AddNote("4f1c9999-porto", "Porto", "", "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing", nil, "error: note reference required\n"},
		{"out of range", []string{"5"}, "error: note number out of range: 5\n"},
		{"zero", []string{"0"}, "error: note number out of range: 0\n"},
		{"too short", []string{"4f"}, "error: invalid note reference: 4f\n"},
		{"bad chars", []string{"kyoto!"}, "error: invalid note reference: kyoto!\n"},
		{"unknown id", []string{"zzzz"}, "error: note not found: zzzz\n"},
		{"ambiguous", []string{"4f1c"}, "error: ambiguous note reference: 4f1c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, svc, tt.args, false)

			assert.Equal(t, exitcode.UserError, code)
			assert.Empty(t, stdout)
			assert.Equal(t, tt.want, stderr)
		})
	}
}

func TestAddCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	cmd := &commands.AddCmd{}
	cmd.SetDescription("  ramen at midnight ")

	stdout, stderr, code := runCommand(t, cmd, svc, []string{"Tokyo", "day", "one"}, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "ok\n", stdout)

	records := svc.NoteRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "Tokyo day one", records[0].Name)
	assert.Equal(t, "ramen at midnight", records[0].Description)
	assert.Empty(t, records[0].Image)
	assert.NotEmpty(t, records[0].ID)
}

func TestAddCommand_Quiet(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.AddCmd{}, testutil.NewFakeService(), []string{"Tokyo"}, true)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stdout)
}

func TestAddCommand_WithImage(t *testing.T) {
	svc := testutil.NewFakeService()
	cmd := &commands.AddCmd{}
	cmd.SetImagePath(writeFile(t, "shrine.JPG", "jpeg bytes"))

	_, stderr, code := runCommand(t, cmd, svc, []string{"Nara"}, false)

	require.Equal(t, exitcode.Success, code, stderr)
	records := svc.NoteRecords()
	require.Len(t, records, 1)
	assert.True(t, strings.HasSuffix(records[0].Image, ".jpg"), records[0].Image)
	assert.Equal(t, []byte("jpeg bytes"), svc.Images()[records[0].Image])
}

func TestAddCommand_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.png")
	empty := writeFile(t, "empty.png", "")

	tests := []struct {
		name      string
		args      []string
		imagePath string
		want      string
	}{
		{"no name", nil, "", "error: name required\n"},
		{"blank name", []string{"  "}, "", "error: name required\n"},
		{"unreadable image", []string{"Nara"}, missing, "error: image not readable: " + missing + "\n"},
		{"empty image", []string{"Nara"}, empty, "error: image is empty: " + empty + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			cmd := &commands.AddCmd{}
			cmd.SetImagePath(tt.imagePath)

			stdout, stderr, code := runCommand(t, cmd, svc, tt.args, false)

			assert.Equal(t, exitcode.UserError, code)
			assert.Empty(t, stdout)
			assert.Equal(t, tt.want, stderr)
			assert.Empty(t, svc.NoteRecords())
			assert.Empty(t, svc.Images())
		})
	}
}

func TestAddCommand_BackendErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"backend", errors.New("api down"), exitcode.BackendError, "error: backend error: api down\n"},
		{"auth", fmt.Errorf("create note: %w", service.ErrAuth), exitcode.AuthError, "error: auth error: create note: not authorized\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.CreateNoteErr = tt.err

			_, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"Nara"}, false)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, stderr)
		})
	}
}

func TestCreateCommand_IsAdd(t *testing.T) {
	svc := testutil.NewFakeService()
	cmd := &commands.CreateCmd{}
	parseFlags(t, cmd, "-d", "pastel de nata")

	stdout, _, code := runCommand(t, cmd, svc, []string{"Belem"}, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok\n", stdout)
	records := svc.NoteRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "pastel de nata", records[0].Description)
}

func TestAttachCommand_ReplacesPhoto(t *testing.T) {
	svc := sampleService()
	photo := writeFile(t, "garden.png", "new photo")

	stdout, stderr, code := runCommand(t, &commands.AttachCmd{}, svc, []string{"1", photo}, false)

	require.Equal(t, exitcode.Success, code, stderr)
	assert.Equal(t, "ok\n", stdout)

	record := svc.NoteRecords()[0]
	assert.NotEqual(t, "a.png", record.Image)
	images := svc.Images()
	assert.NotContains(t, images, "a.png")
	assert.Equal(t, []byte("new photo"), images[record.Image])
}

func TestAttachCommand_Errors(t *testing.T) {
	photo := writeFile(t, "garden.png", "new photo")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, "error: note reference and image file required\n"},
		{"no file", []string{"1"}, "error: note reference and image file required\n"},
		{"bad ref", []string{"9", photo}, "error: note number out of range: 9\n"},
		{"missing file", []string{"2", "/nonexistent/x.png"}, "error: image not readable: /nonexistent/x.png\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := sampleService()

			_, stderr, code := runCommand(t, &commands.AttachCmd{}, svc, tt.args, false)

			assert.Equal(t, exitcode.UserError, code)
			assert.Equal(t, tt.want, stderr)
			assert.NotContains(t, svc.Calls, "UploadImage")
		})
	}
}

func TestAttachCommand_UpdateFailureKeepsOldPhoto(t *testing.T) {
	svc := sampleService()
	svc.UpdateNoteErr = errors.New("conflict")
	photo := writeFile(t, "garden.png", "new photo")

	_, stderr, code := runCommand(t, &commands.AttachCmd{}, svc, []string{"1", photo}, false)

	assert.Equal(t, exitcode.BackendError, code)
	assert.Equal(t, "error: backend error: conflict\n", stderr)
	assert.Equal(t, map[string][]byte{"a.png": []byte("hello")}, svc.Images())
}

func TestPhotoCommand(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "kyoto.png")
	cmd := &commands.PhotoCmd{}
	cmd.SetOutput(dest)

	stdout, stderr, code := runCommand(t, cmd, sampleService(), []string{"1"}, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, dest+"\n", stdout)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestPhotoCommand_DefaultNameStaysInWorkingDir(t *testing.T) {
	root := t.TempDir()
	work := filepath.Join(root, "work")
	require.NoError(t, os.Mkdir(work, 0755))
	t.Chdir(work)

	svc := testutil.NewFakeService()
	svc.AddNote("n1", "Kyoto", "", "../escaped.png")
	svc.AddImage("../escaped.png", []byte("hello"))

	stdout, stderr, code := runCommand(t, &commands.PhotoCmd{}, svc, []string{"1"}, false)

	require.Equal(t, exitcode.Success, code, stderr)
	assert.Equal(t, "escaped.png\n", stdout)
	assert.FileExists(t, filepath.Join(work, "escaped.png"))
	assert.NoFileExists(t, filepath.Join(root, "escaped.png"))
}

func TestPhotoCommand_UnusableDefaultName(t *testing.T) {
	t.Chdir(t.TempDir())

	for _, name := range []string{"..", "a/..", "/"} {
		t.Run(name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.AddNote("n1", "Kyoto", "", name)
			svc.AddImage(name, []byte("hello"))

			stdout, stderr, code := runCommand(t, &commands.PhotoCmd{}, svc, []string{"1"}, false)

			assert.Equal(t, exitcode.UserError, code)
			assert.Empty(t, stdout)
			assert.Equal(t, "error: invalid photo name: "+name+" (use --output)\n", stderr)
			assert.NotContains(t, svc.Calls, "DownloadImage")
		})
	}
}

func TestPhotoCommand_NoPhoto(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.PhotoCmd{}, sampleService(), []string{"2"}, false)

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: note has no photo\n", stderr)
}

func TestPhotoCommand_DownloadFailure(t *testing.T) {
	svc := sampleService()
	svc.DownloadImageErr["a.png"] = errors.New("timeout")
	cmd := &commands.PhotoCmd{}
	cmd.SetOutput(filepath.Join(t.TempDir(), "kyoto.png"))

	_, stderr, code := runCommand(t, cmd, svc, []string{"1"}, false)

	assert.Equal(t, exitcode.BackendError, code)
	assert.Equal(t, "error: backend error: timeout\n", stderr)
}

func TestRmCommand(t *testing.T) {
	svc := sampleService()

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"1"}, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "ok\n", stdout)

	records := svc.NoteRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "Lisbon", records[0].Name)
	assert.Empty(t, svc.Images())
}

func TestRmCommand_ImageFailureStillDeletes(t *testing.T) {
	svc := sampleService()
	svc.DeleteImageErr = errors.New("storage down")

	stdout, _, code := runCommand(t, &commands.RmCmd{}, svc, []string{"4f1c"}, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok\n", stdout)
	assert.Len(t, svc.NoteRecords(), 1)
}

func TestRmCommand_BackendError(t *testing.T) {
	svc := sampleService()
	svc.DeleteNoteErr = errors.New("api down")

	_, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"2"}, false)

	assert.Equal(t, exitcode.BackendError, code)
	assert.Equal(t, "error: backend error: api down\n", stderr)
	assert.Len(t, svc.NoteRecords(), 2)
}

func TestWhoamiCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.WhoamiCmd{}, testutil.NewFakeService(), nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "Traveler <traveler@example.com>\n", stdout)
}

func TestWhoamiCommand_ReportsSignedOut(t *testing.T) {
	var cmd commands.Command = &commands.WhoamiCmd{}
	reporter, ok := cmd.(commands.SignedOutReporter)
	require.True(t, ok)
	assert.True(t, reporter.ReportsSignedOut())

	_, ok = commands.Command(&commands.ListCmd{}).(commands.SignedOutReporter)
	assert.False(t, ok)
}

func TestWhoamiCommand_SignedOut(t *testing.T) {
	nb := notebook.NewOffline(store.New())
	cfg := &config.Config{Dir: t.TempDir()}

	var outBuf, errBuf bytes.Buffer
	code := (&commands.WhoamiCmd{}).Run(context.Background(), cfg, nb, nil, &outBuf, &errBuf)

	assert.Equal(t, exitcode.AuthError, code)
	assert.Equal(t, "not signed in\n", outBuf.String())
}
