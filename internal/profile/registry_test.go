package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tapedeck/internal/logging"
)

func writeProfiles(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "profiles.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const sampleProfiles = `[[profile]]
name = "standard"
video_bitrate = 1800
audio_bitrate = 192
extension = "avi"

[[profile]]
name = "archive"
video_bitrate = 4000
audio_bitrate = 256
peak_bitrate = 6000
frame_width = 720
frame_height = 576
video_codec = "mpeg2video"
audio_codec = "mp2"
passes = 2
extension = "mpg"

[[profile]]
name = "web"
video_bitrate = 900
audio_bitrate = 96
extension = "mp4"
`

func TestRegistryLoadsInDefinitionOrder(t *testing.T) {
	path := writeProfiles(t, t.TempDir(), sampleProfiles)
	registry, err := NewRegistry(path, "standard", logging.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	names := registry.Names()
	want := []string{"standard", "archive", "web"}
	if len(names) != len(want) {
		t.Fatalf("loaded %d profiles, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	archive, err := registry.Get("archive")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if archive.Passes != 2 || archive.PeakBitrate != 6000 {
		t.Errorf("archive profile = %+v, fields not parsed", archive)
	}
	if _, err := registry.Get("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(nonexistent) = %v, want ErrNotFound", err)
	}
}

func TestRegistryMissingFileStartsWithBuiltinDefault(t *testing.T) {
	registry, err := NewRegistry(filepath.Join(t.TempDir(), "absent.toml"), "standard", logging.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if names := registry.Names(); len(names) != 1 || names[0] != "standard" {
		t.Fatalf("Names = %v, want only the built-in default", names)
	}
	if registry.Default() == nil {
		t.Fatal("Default must always resolve")
	}
}

func TestRegistryInjectsMissingDefault(t *testing.T) {
	content := `[[profile]]
name = "web"
video_bitrate = 900
audio_bitrate = 96
extension = "mp4"
`
	path := writeProfiles(t, t.TempDir(), content)
	registry, err := NewRegistry(path, "standard", logging.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if !registry.Exists("standard") {
		t.Error("default profile should be injected when missing from definitions")
	}
	if !registry.Exists("web") {
		t.Error("defined profile lost during default injection")
	}
}

func TestRefreshFailureKeepsPreviousSet(t *testing.T) {
	dir := t.TempDir()
	path := writeProfiles(t, dir, sampleProfiles)
	registry, err := NewRegistry(path, "standard", logging.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if err := os.WriteFile(path, []byte("not toml ["), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := registry.Refresh(); err == nil {
		t.Fatal("expected a parse error")
	}
	if len(registry.Names()) != 3 {
		t.Errorf("failed refresh replaced the loaded set")
	}
}

func TestRegistryRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"duplicate names", `[[profile]]
name = "twice"
video_bitrate = 1000
audio_bitrate = 128
extension = "avi"

[[profile]]
name = "twice"
video_bitrate = 1000
audio_bitrate = 128
extension = "avi"
`},
		{"missing bitrate", `[[profile]]
name = "broken"
extension = "avi"
`},
		{"peak below video", `[[profile]]
name = "broken"
video_bitrate = 2000
audio_bitrate = 128
peak_bitrate = 1000
extension = "avi"
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProfiles(t, t.TempDir(), tt.content)
			if _, err := NewRegistry(path, "standard", logging.NewNop()); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}
