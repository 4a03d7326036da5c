// Copyright (C) 2020 Finogeeks Co., Ltd
//
// This program is free software: you can redistribute it and/or  modify
// it under the terms of the GNU Affero General Public License, version 3,
// as published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package remote

// Outcome classifies the reply of a remote service for one operation.
type Outcome int

const (
	Success Outcome = iota
	Conflict
	NotFound
	InsufficientPrivilege
	Unknown
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case InsufficientPrivilege:
		return "insufficient_privilege"
	default:
		return "unknown"
	}
}

// CodeTable maps the raw status vocabulary of one remote operation to an
// Outcome. Codes missing from the table classify as Unknown.
type CodeTable map[int]Outcome

// Classify returns the outcome registered for code.
func (t CodeTable) Classify(code int) Outcome {
	if o, ok := t[code]; ok {
		return o
	}
	return Unknown
}

// With returns a copy of t extended by extra. Entries of extra win.
func (t CodeTable) With(extra CodeTable) CodeTable {
	merged := make(CodeTable, len(t)+len(extra))
	for code, o := range t {
		merged[code] = o
	}
	for code, o := range extra {
		merged[code] = o
	}
	return merged
}
