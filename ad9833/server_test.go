// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad9833

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseWaveform(t *testing.T) {
	for _, tc := range []struct {
		name string
		want Waveform
		ok   bool
	}{
		{name: "", want: Sine, ok: true},
		{name: "sine", want: Sine, ok: true},
		{name: "SIN", want: Sine, ok: true},
		{name: "triangle", want: Triangle, ok: true},
		{name: "Square", want: Square, ok: true},
		{name: "sqr", want: Square, ok: true},
		{name: "sawtooth", ok: false},
	} {
		got, err := parseWaveform(tc.name)
		if (err == nil) != tc.ok {
			t.Errorf("parseWaveform(%q): err=%v, want ok=%v", tc.name, err, tc.ok)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("parseWaveform(%q): got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, tc := range []struct {
		name string
		want WorkStatus
		ok   bool
	}{
		{name: "", want: DualOutput, ok: true},
		{name: "cs1", want: CS1Single, ok: true},
		{name: "cs2-single", want: CS2Single, ok: true},
		{name: "dual", want: DualOutput, ok: true},
		{name: "Both", want: DualOutput, ok: true},
		{name: "cs3", ok: false},
	} {
		got, err := parseStatus(tc.name)
		if (err == nil) != tc.ok {
			t.Errorf("parseStatus(%q): err=%v, want ok=%v", tc.name, err, tc.ok)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("parseStatus(%q): got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestConfigFrom(t *testing.T) {
	raw := []byte(`{
		"status": "dual",
		"sync": true,
		"cs1": {"wave": "sine", "freq": 1000, "phase": 0},
		"cs2": {"wave": "sine", "freq": 1000, "phase": 90}
	}`)

	var cfg serverConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("could not decode payload: %+v", err)
	}

	got, sync, err := configFrom(cfg)
	if err != nil {
		t.Fatalf("could not convert config: %+v", err)
	}
	if !sync {
		t.Errorf("sync flag lost")
	}

	want := Config{
		Status: DualOutput,
		CS1:    ChannelConfig{Wave: Sine, Freq: 1000, Phase: 0},
		CS2:    ChannelConfig{Wave: Sine, Freq: 1000, Phase: 90},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid config:\ngot= %#v\nwant=%#v", got, want)
	}
}

func TestConfigFromInvalid(t *testing.T) {
	for _, tc := range []serverConfig{
		{Status: "cs3"},
		{CS1: serverChannel{Wave: "sawtooth"}},
		{CS2: serverChannel{Wave: "noise"}},
	} {
		if _, _, err := configFrom(tc); err == nil {
			t.Errorf("expected an error for %+v", tc)
		}
	}
}
