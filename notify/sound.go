package notify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/velafocus/vela/internal/apperr"
)

var errInvalidSoundFormat = &apperr.Error{
	Message: "sound file must be in mp3, ogg, flac, or wav format",
}

var errOpenSound = &apperr.Error{
	Message: "unable to open sound file %q",
}

// speakerMu serializes access to the shared audio device.
var speakerMu sync.Mutex

// decodeSound returns an audio stream for the sound file at path.
func decodeSound(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, errOpenSound.Fmt(path).Wrap(err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ogg":
		stream, format, err = vorbis.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	default:
		_ = f.Close()
		return nil, beep.Format{}, errInvalidSoundFormat
	}

	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, err
	}

	return stream, format, nil
}

// playSound plays the sound file at path and blocks until it finishes.
func playSound(path string) error {
	stream, format, err := decodeSound(path)
	if err != nil {
		return err
	}

	defer stream.Close()

	speakerMu.Lock()
	defer speakerMu.Unlock()

	bufferSize := 10

	err = speaker.Init(
		format.SampleRate,
		format.SampleRate.N(time.Duration(int(time.Second)/bufferSize)),
	)
	if err != nil {
		return err
	}

	defer speaker.Close()

	done := make(chan struct{})

	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		close(done)
	})))

	<-done

	speaker.Clear()

	return nil
}
