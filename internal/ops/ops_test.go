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
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLogWriterTee(t *testing.T) {
	var out bytes.Buffer
	l:=NewLogWriter(&out)
	fileName:=filepath.Join(t.TempDir(), "run.log")
	if err:=l.AlsoToFile(fileName); err!=nil { t.Fatal(err) }
	l.Write([]byte("hello\n"))
	if err:=l.Close(); err!=nil { t.Fatal(err) }
	l.Write([]byte("stdout only\n"))

	data, err:=os.ReadFile(fileName)
	if err!=nil { t.Fatal(err) }
	if string(data)!="hello\n" { t.Errorf("file=%q; want %q", data, "hello\n") }
	if out.String()!="hello\nstdout only\n" { t.Errorf("out=%q", out.String()) }
}

func TestIsPathAllowed(t *testing.T) {
	tcs:=map[string]bool{ "a.fits": true, "data/b.fits": true, "/etc/passwd": false, "../x.fits": false }
	for p, want:=range tcs {
		if got:=IsPathAllowed(p); got!=want { t.Errorf("IsPathAllowed(%q)=%v; want %v", p, got, want) }
	}
}

func TestNewRun(t *testing.T) {
	c:=NewContext(&bytes.Buffer{})
	if c.BudgetMB>c.MemoryMB { t.Errorf("memory=%d budget=%d", c.MemoryMB, c.BudgetMB) }
	c2:=c.NewRun()
	if c2.RunID==c.RunID || c2.RunID=="" { t.Errorf("run id not renewed: %q %q", c.RunID, c2.RunID) }
}
