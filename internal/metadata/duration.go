package metadata

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/abema/go-mp4"
	"github.com/mewkiz/flac"
	"github.com/tcolgate/mp3"
)

var errNoDuration = errors.New("container does not record a duration")

// durationReaders maps lower-case extensions to the decoder for their
// container.
var durationReaders = map[string]func(path string) (float64, error){
	".mp3":  computeMP3Duration,
	".m4a":  computeMP4Duration,
	".m4b":  computeMP4Duration,
	".mp4":  computeMP4Duration,
	".flac": computeFLACDuration,
}

// ResolveDuration returns the playback length in whole seconds. MP3, MP4
// family and FLAC files are decoded; anything else, or any decode failure,
// is reported as unknown.
func (r *Resolver) ResolveDuration(path string) (int, bool) {
	read, ok := durationReaders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return 0, false
	}

	total, err := read(path)
	if err != nil {
		if r.debug {
			r.logger.Printf("duration unavailable for %s: %v", path, err)
		}
		return 0, false
	}
	if total <= 0 {
		return 0, false
	}
	return int(total), true
}

func computeMP3Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var total float64

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration().Seconds()
	}

	return total, nil
}

// computeMP4Duration reads the movie header (mvhd) of an MP4, M4A or M4B file.
func computeMP4Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := mp4.Probe(f)
	if err != nil {
		return 0, err
	}
	if info.Timescale == 0 {
		return 0, errNoDuration
	}
	return float64(info.Duration) / float64(info.Timescale), nil
}

// computeFLACDuration divides the STREAMINFO sample count by the sample rate.
func computeFLACDuration(path string) (float64, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	if stream.Info == nil || stream.Info.SampleRate == 0 || stream.Info.NSamples == 0 {
		return 0, errNoDuration
	}
	return float64(stream.Info.NSamples) / float64(stream.Info.SampleRate), nil
}
