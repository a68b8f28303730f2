package profile

import (
	"fmt"
	"strings"
)

// MaxProfiles bounds the number of profiles a registry will hold.
const MaxProfiles = 32

// Crop describes the crop box applied during encoding.
type Crop struct {
	Top    int `toml:"top"`
	Bottom int `toml:"bottom"`
	Left   int `toml:"left"`
	Right  int `toml:"right"`
}

// IsZero reports whether no cropping is configured.
func (c Crop) IsZero() bool {
	return c.Top == 0 && c.Bottom == 0 && c.Left == 0 && c.Right == 0
}

// Capture groups the capture-device settings a profile carries.
type Capture struct {
	SampleRate int    `toml:"sample_rate"`
	Aspect     string `toml:"aspect"`
	KeepRaw    bool   `toml:"keep_raw"`
}

// Profile is a named bundle of capture and transcode settings. Profiles are
// immutable once loaded; the registry swaps in a whole new set on refresh.
type Profile struct {
	Name         string   `toml:"name"`
	VideoBitrate int      `toml:"video_bitrate"`
	AudioBitrate int      `toml:"audio_bitrate"`
	PeakBitrate  int      `toml:"peak_bitrate"`
	FrameWidth   int      `toml:"frame_width"`
	FrameHeight  int      `toml:"frame_height"`
	VideoCodec   string   `toml:"video_codec"`
	AudioCodec   string   `toml:"audio_codec"`
	Passes       int      `toml:"passes"`
	Crop         Crop     `toml:"crop"`
	Extension    string   `toml:"extension"`
	ExtraOptions []string `toml:"extra_options"`
	Capture      Capture  `toml:"capture"`
}

func (p *Profile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.VideoBitrate <= 0 {
		return fmt.Errorf("profile %q: video_bitrate must be positive", p.Name)
	}
	if p.AudioBitrate <= 0 {
		return fmt.Errorf("profile %q: audio_bitrate must be positive", p.Name)
	}
	if p.PeakBitrate != 0 && p.PeakBitrate < p.VideoBitrate {
		return fmt.Errorf("profile %q: peak_bitrate below video_bitrate", p.Name)
	}
	if p.Passes < 0 || p.Passes > 3 {
		return fmt.Errorf("profile %q: passes must be between 0 and 3", p.Name)
	}
	if strings.TrimSpace(p.Extension) == "" {
		return fmt.Errorf("profile %q: extension is required", p.Name)
	}
	return nil
}

// builtinDefault is used when no profile definitions file exists yet, so the
// default profile is always resolvable.
func builtinDefault(name string) *Profile {
	return &Profile{
		Name:         name,
		VideoBitrate: 1800,
		AudioBitrate: 192,
		PeakBitrate:  2400,
		FrameWidth:   720,
		FrameHeight:  576,
		VideoCodec:   "mpeg4",
		AudioCodec:   "mp3",
		Passes:       1,
		Extension:    "avi",
		Capture: Capture{
			SampleRate: 48000,
			Aspect:     "4:3",
		},
	}
}
