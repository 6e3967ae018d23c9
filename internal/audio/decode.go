package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	wav "github.com/youpy/go-wav"
)

// ErrUnsupportedFormat is returned for sample data that is neither WAV nor MP3.
var ErrUnsupportedFormat = errors.New("audio: unsupported sample format")

// Decode decodes WAV or MP3 data into a Buffer at sampleRate. The format
// is chosen from the name's extension, falling back to the file header.
func Decode(name string, data []byte, sampleRate int) (*Buffer, error) {
	var (
		buf *Buffer
		err error
	)
	switch detectFormat(name, data) {
	case "wav":
		buf, err = decodeWAV(data)
	case "mp3":
		buf, err = decodeMP3(data)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return resample(buf, sampleRate), nil
}

func detectFormat(name string, data []byte) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".wav":
		return "wav"
	case ".mp3":
		return "mp3"
	}
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return "wav"
	case bytes.HasPrefix(data, []byte("ID3")), len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return "mp3"
	}
	return ""
}

func decodeWAV(data []byte) (*Buffer, error) {
	r := wav.NewReader(bytes.NewReader(data))
	format, err := r.Format()
	if err != nil {
		return nil, err
	}
	if format.NumChannels < 1 || format.NumChannels > 2 {
		return nil, fmt.Errorf("unsupported channel count %d", format.NumChannels)
	}

	bits := int(format.BitsPerSample)
	if bits != 8 && bits != 16 && bits != 24 && bits != 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", bits)
	}
	// go-wav's FloatValue scales by 2^bits, half of full scale, so
	// normalize the integer values here.
	scale := float32(int64(1) << (bits - 1))
	value := func(s wav.Sample, ch uint) float32 {
		v := r.IntValue(s, ch)
		if bits == 8 {
			// 8-bit PCM is unsigned, centered on 128.
			return float32(v-128) / 128
		}
		return float32(v) / scale
	}

	buf := &Buffer{SampleRate: int(format.SampleRate)}
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, sample := range samples {
			l := value(sample, 0)
			rt := l
			if format.NumChannels == 2 {
				rt = value(sample, 1)
			}
			buf.Left = append(buf.Left, l)
			buf.Right = append(buf.Right, rt)
		}
	}
	return buf, nil
}

// decodeMP3 reads the 16-bit stereo stream produced by go-mp3.
func decodeMP3(data []byte) (*Buffer, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, err
	}

	frames := len(pcm) / 4
	buf := &Buffer{
		SampleRate: d.SampleRate(),
		Left:       make([]float32, frames),
		Right:      make([]float32, frames),
	}
	for i := 0; i < frames; i++ {
		buf.Left[i] = float32(int16(binary.LittleEndian.Uint16(pcm[4*i:]))) / 32768
		buf.Right[i] = float32(int16(binary.LittleEndian.Uint16(pcm[4*i+2:]))) / 32768
	}
	return buf, nil
}

// resample converts buf to rate with linear interpolation.
func resample(buf *Buffer, rate int) *Buffer {
	if rate <= 0 || buf.SampleRate == rate || buf.Frames() == 0 {
		return buf
	}
	ratio := float64(buf.SampleRate) / float64(rate)
	n := int(float64(buf.Frames()) / ratio)
	out := &Buffer{SampleRate: rate, Left: make([]float32, n), Right: make([]float32, n)}
	last := buf.Frames() - 1
	for i := 0; i < n; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		frac := float32(pos - float64(j))
		k := j + 1
		if k > last {
			k = last
		}
		out.Left[i] = buf.Left[j] + (buf.Left[k]-buf.Left[j])*frac
		out.Right[i] = buf.Right[j] + (buf.Right[k]-buf.Right[j])*frac
	}
	return out
}
