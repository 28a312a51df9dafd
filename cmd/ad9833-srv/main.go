// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ad9833-srv starts a TDAQ server steering a dual AD9833
// generator pair.
package main // import "github.com/coverMoon/Driver-of-double-AD9833/cmd/ad9833-srv"

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/coverMoon/Driver-of-double-AD9833/ad9833"
	"github.com/coverMoon/Driver-of-double-AD9833/spi"
	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
)

func main() {
	var (
		bus  = flag.String("bus", "gpio:", "bus spec of the serial link (gpio:[dev] or i2c:bus:addr)")
		db   = flag.String("db", "", "name of the conditions database holding waveform presets")
		mclk = flag.Float64("mclk", ad9833.DefaultMCLK, "master clock of the generator pair (Hz)")
	)

	cmd := flags.New()

	name := "ad9833"
	if len(cmd.Args) > 0 {
		name = cmd.Args[0]
	}

	dev := ad9833.NewServer(
		name, *db,
		func() (ad9833.Transmitter, error) {
			return spi.Open(*bus)
		},
		ad9833.WithMCLK(*mclk),
	)

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}
