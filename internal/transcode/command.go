package transcode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tapedeck/internal/profile"
)

// outputName derives the encoded file name from the capture file and the
// profile. When an entry references several profiles the profile name is
// folded into the base so the encodes never collide.
func outputName(source, profileName string, prof *profile.Profile, multi bool) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if multi {
		base = base + "-" + profileName
	}
	return base + "." + strings.TrimPrefix(prof.Extension, ".")
}

// encoderArgs builds the encoder command line for one pass. Pass numbering
// is 1-based; the first pass of a multi-pass encode analyzes only and writes
// no output file.
func encoderArgs(source, output string, prof *profile.Profile, pass, passes int) []string {
	args := []string{"-y", "-i", source}

	if !prof.Crop.IsZero() {
		args = append(args, "-vf", cropFilter(prof.Crop))
	}
	args = append(args, "-c:v", prof.VideoCodec, "-b:v", fmt.Sprintf("%dk", prof.VideoBitrate))
	if prof.PeakBitrate > 0 {
		args = append(args,
			"-maxrate", fmt.Sprintf("%dk", prof.PeakBitrate),
			"-bufsize", fmt.Sprintf("%dk", 2*prof.PeakBitrate))
	}
	if prof.FrameWidth > 0 && prof.FrameHeight > 0 {
		args = append(args, "-s", fmt.Sprintf("%dx%d", prof.FrameWidth, prof.FrameHeight))
	}

	if passes > 1 {
		args = append(args, "-pass", fmt.Sprint(pass), "-passlogfile", output+".passlog")
	}
	if passes > 1 && pass < passes {
		// Analysis pass: skip audio, discard output.
		args = append(args, "-an", "-f", "null", os.DevNull)
		return args
	}

	args = append(args, "-c:a", prof.AudioCodec, "-b:a", fmt.Sprintf("%dk", prof.AudioBitrate))
	args = append(args, prof.ExtraOptions...)
	args = append(args, output)
	return args
}

func cropFilter(c profile.Crop) string {
	return fmt.Sprintf("crop=in_w-%d:in_h-%d:%d:%d", c.Left+c.Right, c.Top+c.Bottom, c.Left, c.Top)
}
