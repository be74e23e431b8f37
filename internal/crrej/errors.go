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


package crrej

import (
	"errors"
	"fmt"
)

// Fatal conditions of a rejection run. Returned errors wrap one of these
var (
	ErrAllocation    = errors.New("allocation failure")
	ErrSizeMismatch  = errors.New("image size mismatch")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrIO            = errors.New("i/o error")
)

// Outcome of a run that returned without error
type Status int
const (
	StatusOK            Status = iota
	StatusNoUsableInput        // no input had positive exposure, output is fill-valued and flagged
)

func (s Status) String() string {
	switch s {
	case StatusOK:            return "ok"
	case StatusNoUsableInput: return "no usable input"
	}
	return "unknown"
}

// Wraps a scanline access failure as an I/O error, unless it already is one
func wrapIO(err error, op string, id, row int) error {
	if errors.Is(err, ErrIO) { return err }
	return fmt.Errorf("%w: %s image %d row %d: %s", ErrIO, op, id, row, err.Error())
}
