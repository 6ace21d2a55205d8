// Copyright 2015 - 2017 Ka-Hing Cheung
// Modifications Copyright 2018 The MITRE Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging hands out named logrus loggers that share one output
// and one level, so every component logs in the same format.
package logging

import (
	"fmt"
	"io"
	glog "log"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const timeFormat = "2006/01/02 15:04:05.000000"

var (
	mu      sync.Mutex
	loggers = make(map[string]*LogHandle)
	level   = logrus.InfoLevel
	out     io.Writer = os.Stderr
)

// LogHandle is a logrus logger that prefixes every line with its name.
type LogHandle struct {
	*logrus.Logger
	name string
}

// Format renders "time name.LEVEL message [fields]".
func (l *LogHandle) Format(e *logrus.Entry) ([]byte, error) {
	str := fmt.Sprintf("%v %v.%v %v",
		e.Time.Format(timeFormat), l.name, strings.ToUpper(e.Level.String()), e.Message)
	if len(e.Data) != 0 {
		str += " " + fmt.Sprint(e.Data)
	}
	str += "\n"
	return []byte(str), nil
}

// Log satisfies aws.Logger so a handle can be passed to the AWS SDK.
func (l *LogHandle) Log(args ...interface{}) {
	l.Debugln(args...)
}

// GetLogger returns the shared handle for name, creating it on first use.
func GetLogger(name string) *LogHandle {
	mu.Lock()
	defer mu.Unlock()

	if logger, ok := loggers[name]; ok {
		return logger
	}
	logger := newLogger(name)
	loggers[name] = logger
	return logger
}

func newLogger(name string) *LogHandle {
	l := &LogHandle{Logger: logrus.New(), name: name}
	l.Out = out
	l.Formatter = l
	l.Level = level
	return l
}

// SetLevel changes the level of every existing and future handle.
func SetLevel(lvl logrus.Level) {
	mu.Lock()
	defer mu.Unlock()

	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
}

// SetDebug switches all handles between debug and info.
func SetDebug(debug bool) {
	if debug {
		SetLevel(logrus.DebugLevel)
		return
	}
	SetLevel(logrus.InfoLevel)
}

// SetOutput redirects every existing and future handle to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	out = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}

// GetStdLogger adapts a handle to the standard library logger at lvl.
func GetStdLogger(l *LogHandle, lvl logrus.Level) *glog.Logger {
	return glog.New(l.WriterLevel(lvl), "", 0)
}
