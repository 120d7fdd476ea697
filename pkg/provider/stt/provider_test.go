package stt

import "testing"

func TestAudioExt(t *testing.T) {
	tests := map[string]string{
		"voice.WAV":       "wav",
		"clip.m4a":        "m4a",
		"archive.tar.ogg": "ogg",
		"noext":           "",
		"":                "",
	}
	for name, want := range tests {
		if got := (Audio{Filename: name}).Ext(); got != want {
			t.Errorf("Ext(%q) = %q, want %q", name, got, want)
		}
	}
}
