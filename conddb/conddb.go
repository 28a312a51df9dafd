// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb retrieves waveform presets for the dual AD9833
// generator from the configuration database.
package conddb // import "github.com/coverMoon/Driver-of-double-AD9833/conddb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// ChannelPreset holds the stored output settings of one chip.
type ChannelPreset struct {
	Wave  string  // "sine", "triangle" or "square"
	Freq  float64 // Hz
	Phase float64 // degrees
}

// Preset is one row of the presets table: a complete output
// configuration for the generator pair.
type Preset struct {
	ID     int32
	Name   string
	Status string // "cs1-single", "cs2-single" or "dual"
	Sync   bool   // phase-coherent synchronized start
	CS1    ChannelPreset
	CS2    ChannelPreset
}

// DB exposes convenience methods to retrieve waveform presets from
// the generator database.
type DB struct {
	db   *sql.DB
	name string
}

// Open opens a connection to the generator database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		return nil, fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// LastPreset returns the most recently stored preset.
func (db *DB) LastPreset(ctx context.Context) (Preset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Preset
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT id, name, status, sync, "+
			"cs1_wave, cs1_freq, cs1_phase, "+
			"cs2_wave, cs2_freq, cs2_phase "+
			"FROM presets ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return p, fmt.Errorf("conddb: could not query last preset: %w", err)
	}
	defer rows.Close()

	ok := false
	for rows.Next() {
		err = rows.Scan(
			&p.ID, &p.Name, &p.Status, &p.Sync,
			&p.CS1.Wave, &p.CS1.Freq, &p.CS1.Phase,
			&p.CS2.Wave, &p.CS2.Freq, &p.CS2.Phase,
		)
		if err != nil {
			return p, fmt.Errorf("conddb: could not get preset value: %w", err)
		}
		ok = true
	}

	if err := rows.Err(); err != nil {
		return p, fmt.Errorf("conddb: could not scan db for last preset: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return p, fmt.Errorf("conddb: context error while retrieving last preset: %w", err)
	}

	if !ok {
		return p, fmt.Errorf("conddb: no preset stored in %q db", db.name)
	}

	return p, nil
}

// Preset returns the preset stored under the given name.
func (db *DB) Preset(ctx context.Context, name string) (Preset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Preset
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT id, name, status, sync, "+
			"cs1_wave, cs1_freq, cs1_phase, "+
			"cs2_wave, cs2_freq, cs2_phase "+
			"FROM presets WHERE name = ? ORDER BY datetime DESC LIMIT 1",
		name,
	)
	if err != nil {
		return p, fmt.Errorf("conddb: could not query preset %q: %w", name, err)
	}
	defer rows.Close()

	ok := false
	for rows.Next() {
		err = rows.Scan(
			&p.ID, &p.Name, &p.Status, &p.Sync,
			&p.CS1.Wave, &p.CS1.Freq, &p.CS1.Phase,
			&p.CS2.Wave, &p.CS2.Freq, &p.CS2.Phase,
		)
		if err != nil {
			return p, fmt.Errorf("conddb: could not get preset value: %w", err)
		}
		ok = true
	}

	if err := rows.Err(); err != nil {
		return p, fmt.Errorf("conddb: could not scan db for preset %q: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return p, fmt.Errorf("conddb: context error while retrieving preset %q: %w", name, err)
	}

	if !ok {
		return p, fmt.Errorf("conddb: no preset %q in %q db", name, db.name)
	}

	return p, nil
}
