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
	"fmt"
	"io"
	"runtime"
	"github.com/google/uuid"
	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
)

// An execution context for one rejection run
type Context struct {
	Log       io.Writer
	MemoryMB  int     // memory.TotalMemory()/1024/1024
	BudgetMB  int     // MemoryMB*7/10, limit for the working set of a run
	RunID     string  // identifies log output and products of one run
	MaxThreads int    `json:"maxThreads"` // concurrency limit for loading files
}

func NewContext(log io.Writer) *Context {
	memoryMB:=int(memory.TotalMemory()/1024/1024)
	return &Context{
		Log      : log,
		MemoryMB : memoryMB,
		BudgetMB : memoryMB*7/10,
		RunID    : uuid.New().String(),
		MaxThreads: runtime.GOMAXPROCS(0),
	}
}

// Returns a copy of the context with a fresh run ID
func (c *Context) NewRun() *Context {
	c2:=*c
	c2.RunID=uuid.New().String()
	return &c2
}

// Logs a one-line description of the host
func (c *Context) LogHost() {
	fmt.Fprintf(c.Log, "Host: %s, %d cores, %d threads, AVX2 %v, %d MiB memory, budget %d MiB\n",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, c.MaxThreads, cpuid.CPU.AVX2(), c.MemoryMB, c.BudgetMB)
}
