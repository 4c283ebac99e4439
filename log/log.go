/*
 * Cherry - An OpenFlow Controller
 *
 * Copyright (C) 2015 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package log

import (
	"fmt"
	"io"
	slog "log/syslog"
	"os"
	"runtime"
	"strings"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	Format = `%{level}: %{shortpkg}.%{shortfunc}: %{message}`

	OutputSyslog = "syslog"
	OutputStderr = "stderr"
	OutputFile   = "file"

	DefaultLevel = logging.INFO
)

type syslog struct {
	writer *slog.Writer
}

// NewSyslog returns a backend writing to the local syslog daemon with the
// goroutine ID appended to every line.
func NewSyslog(prefix string) (logging.Backend, error) {
	w, err := slog.New(slog.LOG_INFO|slog.LOG_DAEMON, prefix)
	if err != nil {
		return nil, err
	}

	return &syslog{writer: w}, nil
}

func (r *syslog) Log(level logging.Level, calldepth int, record *logging.Record) error {
	line := fmt.Sprintf("%v (TID=%v)", record.Formatted(calldepth+1), getGoRoutineID())
	switch level {
	case logging.CRITICAL:
		return r.writer.Crit(line)
	case logging.ERROR:
		return r.writer.Err(line)
	case logging.WARNING:
		return r.writer.Warning(line)
	case logging.NOTICE:
		return r.writer.Notice(line)
	case logging.INFO:
		return r.writer.Info(line)
	case logging.DEBUG:
		return r.writer.Debug(line)
	default:
		return fmt.Errorf("unexpected log level: %v", level)
	}
}

func getGoRoutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
}

// NewFile returns a backend writing to path, rotated by size.
func NewFile(path string, maxSizeMB, maxBackups int) logging.Backend {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}

	return NewWriter(w)
}

func NewWriter(w io.Writer) logging.Backend {
	return logging.NewLogBackend(w, "", 0)
}

type Config struct {
	// Output is one of OutputSyslog, OutputStderr and OutputFile.
	Output string
	// File is the log file path for OutputFile.
	File       string
	MaxSizeMB  int
	MaxBackups int
	Level      logging.Level
}

// Init installs the backend described by c for every module and returns it
// so that the level can be changed later.
func Init(prefix string, c Config) (logging.LeveledBackend, error) {
	var backend logging.Backend
	switch strings.ToLower(c.Output) {
	case "", OutputSyslog:
		v, err := NewSyslog(prefix)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open syslog")
		}
		backend = v
	case OutputStderr:
		backend = NewWriter(os.Stderr)
	case OutputFile:
		if c.File == "" {
			return nil, errors.New("empty log file path")
		}
		backend = NewFile(c.File, c.MaxSizeMB, c.MaxBackups)
	default:
		return nil, fmt.Errorf("unknown log output: %v", c.Output)
	}

	leveled := NewLeveled(backend, c.Level)
	logging.SetBackend(leveled)

	return leveled, nil
}

// NewLeveled formats backend records and sets level for all modules.
func NewLeveled(backend logging.Backend, level logging.Level) logging.LeveledBackend {
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(Format))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(level, "")

	return leveled
}

// ParseLevel returns DefaultLevel for an unknown level name.
func ParseLevel(level string) (logging.Level, bool) {
	v, err := logging.LogLevel(strings.ToUpper(level))
	if err != nil {
		return DefaultLevel, false
	}

	return v, true
}
