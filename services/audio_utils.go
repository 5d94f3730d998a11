package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	tcmp3 "github.com/tcolgate/mp3"
)

var ErrNoAudioFrames = errors.New("no mp3 frames found")

// MP3Duration tính thời lượng MP3 (giây) bằng cách duyệt từng frame
func MP3Duration(data []byte) (float64, error) {
	var (
		dur     float64
		dec     = tcmp3.NewDecoder(bytes.NewReader(data))
		frame   tcmp3.Frame
		skipped int
		frames  int
	)

	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		dur += frame.Duration().Seconds()
		frames++
	}
	if frames == 0 {
		return 0, ErrNoAudioFrames
	}

	return dur, nil
}

// FormatDuration đổi giây sang "m:ss"
func FormatDuration(seconds float64) string {
	total := int(seconds + 0.5)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
