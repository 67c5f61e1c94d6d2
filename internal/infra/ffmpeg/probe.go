package ffmpeg

import (
	"bytes"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Probe reads track durations with ffprobe. Failures are non-fatal for
// callers; the duration simply stays unknown.
type Probe struct {
	ffmpegBinary string // the ffprobe path is derived from the ffmpeg one
}

// NewProbe creates a Probe. ffmpegBinary may be empty to use PATH.
func NewProbe(ffmpegBinary string) *Probe {
	return &Probe{ffmpegBinary: ffmpegBinary}
}

// Probe returns the duration of the audio file at path.
func (p *Probe) Probe(path string) (time.Duration, error) {
	bin, err := p.resolveBinary()
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, errors.Wrapf(err, "ffprobe failed for %s: %s", path, stderr.String())
	}

	var probeData struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out.Bytes(), &probeData); err != nil {
		return 0, errors.Wrapf(err, "failed to parse ffprobe output for %s", path)
	}
	if probeData.Format.Duration == "" {
		return 0, errors.Newf("duration missing from ffprobe output for %s", path)
	}

	seconds, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse ffprobe duration %q", probeData.Format.Duration)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func (p *Probe) resolveBinary() (string, error) {
	name := "ffprobe"
	if p.ffmpegBinary != "" {
		name = strings.Replace(p.ffmpegBinary, "ffmpeg", "ffprobe", 1)
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Wrapf(err, "ffprobe not found")
	}
	return bin, nil
}
