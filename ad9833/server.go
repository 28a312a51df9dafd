// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad9833

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/coverMoon/Driver-of-double-AD9833/conddb"
	"github.com/go-daq/tdaq"
)

// Server exposes a generator pair as a TDAQ process: /config loads an
// output configuration (from the command payload or from the
// conditions database), /init programs the chips, /start brings the
// outputs live and /stop parks them in reset.
type Server struct {
	name string
	db   string // conditions database name, empty disables DB lookups

	newBus func() (Transmitter, error)
	opts   []Option

	dev  *Device
	bus  Transmitter
	cfg  Config
	sync bool
}

// NewServer creates a TDAQ handler set named name. newBus is invoked
// on /init so a crashed bus can be reopened by a config/init cycle.
func NewServer(name, db string, newBus func() (Transmitter, error), opts ...Option) *Server {
	return &Server{
		name:   name,
		db:     db,
		newBus: newBus,
		opts:   opts,
	}
}

type serverChannel struct {
	Wave  string  `json:"wave"`
	Freq  float64 `json:"freq"`
	Phase float64 `json:"phase"`
	Freg  int     `json:"freq_reg"`
	Preg  int     `json:"phase_reg"`
}

type serverConfig struct {
	Preset string        `json:"preset"` // conddb preset name, empty = inline settings
	Status string        `json:"status"`
	Sync   bool          `json:"sync"`
	CS1    serverChannel `json:"cs1"`
	CS2    serverChannel `json:"cs2"`
}

func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	var cfg serverConfig
	if len(req.Body) > 0 {
		err := json.Unmarshal(req.Body, &cfg)
		if err != nil {
			return fmt.Errorf("could not decode config payload: %w", err)
		}
	}

	if len(req.Body) == 0 || cfg.Preset != "" {
		if srv.db == "" {
			return fmt.Errorf("no config payload and no conditions db")
		}
		preset, err := srv.loadPreset(ctx, cfg.Preset)
		if err != nil {
			return err
		}
		cfg = preset
	}

	out, sync, err := configFrom(cfg)
	if err != nil {
		return err
	}
	srv.cfg = out
	srv.sync = sync

	ctx.Msg.Infof("configured %q: status=%v sync=%v cs1=(%v, %v Hz, %v°) cs2=(%v, %v Hz, %v°)",
		srv.name, out.Status, sync,
		out.CS1.Wave, out.CS1.Freq, out.CS1.Phase,
		out.CS2.Wave, out.CS2.Freq, out.CS2.Phase,
	)
	return nil
}

func (srv *Server) loadPreset(ctx tdaq.Context, name string) (serverConfig, error) {
	var cfg serverConfig

	db, err := conddb.Open(srv.db)
	if err != nil {
		return cfg, fmt.Errorf("could not open conditions db: %w", err)
	}
	defer db.Close()

	var preset conddb.Preset
	switch name {
	case "":
		preset, err = db.LastPreset(ctx.Ctx)
	default:
		preset, err = db.Preset(ctx.Ctx, name)
	}
	if err != nil {
		return cfg, fmt.Errorf("could not load preset: %w", err)
	}
	ctx.Msg.Infof("loaded preset %q (id=%d)", preset.Name, preset.ID)

	cfg = serverConfig{
		Status: preset.Status,
		Sync:   preset.Sync,
		CS1: serverChannel{
			Wave:  preset.CS1.Wave,
			Freq:  preset.CS1.Freq,
			Phase: preset.CS1.Phase,
		},
		CS2: serverChannel{
			Wave:  preset.CS2.Wave,
			Freq:  preset.CS2.Freq,
			Phase: preset.CS2.Phase,
		},
	}
	return cfg, nil
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")

	if srv.bus != nil {
		srv.closeBus()
	}
	bus, err := srv.newBus()
	if err != nil {
		return fmt.Errorf("could not open bus: %w", err)
	}
	dev, err := New(bus, srv.opts...)
	if err != nil {
		srv.bus = bus
		srv.closeBus()
		return fmt.Errorf("could not create device: %w", err)
	}
	srv.bus = bus
	srv.dev = dev

	return dev.Init(srv.cfg.Status)
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	if srv.dev == nil {
		return fmt.Errorf("device not initialized")
	}
	return srv.dev.Init(srv.cfg.Status)
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	if srv.dev == nil {
		return fmt.Errorf("device not initialized")
	}

	if srv.sync {
		return srv.dev.ConfigureSync(srv.cfg)
	}
	return srv.dev.Configure(srv.cfg)
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command...")
	if srv.dev == nil {
		return fmt.Errorf("device not initialized")
	}

	for _, cs := range []ChipSelect{CS1, CS2} {
		err := srv.dev.Reset(cs, true)
		if err != nil {
			return fmt.Errorf("could not park %v: %w", cs, err)
		}
	}
	return nil
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	if srv.dev != nil {
		for _, cs := range []ChipSelect{CS1, CS2} {
			if err := srv.dev.Sleep(cs, true, true); err != nil {
				ctx.Msg.Warnf("could not power down %v: %+v", cs, err)
			}
		}
	}
	srv.closeBus()
	return nil
}

func (srv *Server) closeBus() {
	if c, ok := srv.bus.(io.Closer); ok {
		_ = c.Close()
	}
	srv.bus = nil
	srv.dev = nil
}

func configFrom(cfg serverConfig) (Config, bool, error) {
	var out Config

	status, err := parseStatus(cfg.Status)
	if err != nil {
		return out, false, err
	}
	out.Status = status

	out.CS1, err = channelFrom(cfg.CS1)
	if err != nil {
		return out, false, fmt.Errorf("cs1: %w", err)
	}
	out.CS2, err = channelFrom(cfg.CS2)
	if err != nil {
		return out, false, fmt.Errorf("cs2: %w", err)
	}
	return out, cfg.Sync, nil
}

func channelFrom(ch serverChannel) (ChannelConfig, error) {
	wave, err := parseWaveform(ch.Wave)
	if err != nil {
		return ChannelConfig{}, err
	}
	return ChannelConfig{
		Wave:     wave,
		Freq:     ch.Freq,
		Phase:    ch.Phase,
		FreqReg:  ch.Freg,
		PhaseReg: ch.Preg,
	}, nil
}

func parseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(name) {
	case "", "sine", "sin":
		return Sine, nil
	case "triangle", "tri":
		return Triangle, nil
	case "square", "sqr":
		return Square, nil
	}
	return 0, fmt.Errorf("unknown waveform %q: %w", name, ErrWaveform)
}

func parseStatus(name string) (WorkStatus, error) {
	switch strings.ToLower(name) {
	case "cs1", "cs1-single":
		return CS1Single, nil
	case "cs2", "cs2-single":
		return CS2Single, nil
	case "", "dual", "both":
		return DualOutput, nil
	}
	return 0, fmt.Errorf("ad9833: unknown work status %q", name)
}
