// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package ops

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log writer which writes to stdout, and optionally to a file.
// Does not add prefixes, or force newlines. Safe for concurrent use.
type LogWriter struct {
	mutex  sync.Mutex
	out    io.Writer
	file   *bufio.Writer
	fileOS *os.File
}

func NewLogWriter(out io.Writer) *LogWriter {
	return &LogWriter{out: out}
}

// Enables logging to file in addition to the primary output
func (l *LogWriter) AlsoToFile(fileName string) (err error) {
	if err=l.Close(); err!=nil { return err }
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.fileOS, err=os.OpenFile(fileName, os.O_CREATE | os.O_TRUNC | os.O_WRONLY, 0666)
	if err!=nil { return err }
	l.file=bufio.NewWriter(l.fileOS)
	return nil
}

func (l *LogWriter) Write(p []byte) (n int, err error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	n, err=l.out.Write(p)
	if err!=nil || l.file==nil { return n, err }
	return l.file.Write(p)
}

// Flushes and closes the log file, if any
func (l *LogWriter) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.file==nil { return nil }
	if err:=l.file.Flush(); err!=nil { return err }
	err:=l.fileOS.Close()
	l.file, l.fileOS=nil, nil
	return err
}

// Logs the message and exits the process with the given code
func (l *LogWriter) Fatalf(code int, format string, args ...interface{}) {
	fmt.Fprintf(l, format, args...)
	l.Close()
	os.Exit(code)
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory 
func IsPathAllowed(p string) bool {
	if filepath.IsAbs(p) { return false }          // relative paths only
	if strings.Contains(p, "..") { return false }  // no going outside the tree
	return true
}
