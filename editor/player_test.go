package editor

import (
	"errors"
	"testing"

	"github.com/vnkhanh/scl-academy-backend/models"
)

func TestPlayerToggleAndReplace(t *testing.T) {
	p := NewPlayer()
	a := p.Toggle("s1", "b1")
	if a == nil {
		t.Fatal("first toggle should start playback")
	}
	b := p.Toggle("s1", "b2")
	if b == nil {
		t.Fatal("other block should replace playback")
	}
	select {
	case <-a.Done():
	default:
		t.Fatal("replaced handle should be stopped")
	}
	cur, ok := p.Current()
	if !ok || cur.BlockID != "b2" {
		t.Fatalf("current = %+v", cur)
	}

	if h := p.Toggle("s1", "b2"); h != nil {
		t.Fatal("toggling the playing block should stop it")
	}
	if _, ok := p.Current(); ok {
		t.Fatal("nothing should be playing")
	}
}

func TestPlayerFinishOnlyClearsOwnHandle(t *testing.T) {
	p := NewPlayer()
	old := p.Toggle("s", "b1")
	p.Toggle("s", "b2")
	p.Finish(old)
	if cur, ok := p.Current(); !ok || cur.BlockID != "b2" {
		t.Fatal("finishing a stale handle must not stop the current one")
	}
	p.Stop()
	if _, ok := p.Current(); ok {
		t.Fatal("Stop should clear playback")
	}
}

func TestDecodeAudio(t *testing.T) {
	ok := models.ContentBlock{Type: models.BlockAudio, Audio: &models.AudioMeta{Data: "SUQz"}}
	data, err := DecodeAudio(ok)
	if err != nil || string(data) != "ID3" {
		t.Fatalf("DecodeAudio = %q, %v", data, err)
	}
	bad := models.ContentBlock{Type: models.BlockAudio, Audio: &models.AudioMeta{Data: "!!!"}}
	if _, err := DecodeAudio(bad); !errors.Is(err, ErrAudioDecode) {
		t.Fatalf("err = %v", err)
	}
	if _, err := DecodeAudio(models.ContentBlock{Type: models.BlockText}); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("err = %v", err)
	}
}
