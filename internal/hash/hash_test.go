/*
Copyright © 2017 the canopyrt authors.
This file is part of canopyrt.

canopyrt is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

canopyrt is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with canopyrt.  If not, see <http://www.gnu.org/licenses/>.
*/

package hash

import (
	"strings"
	"testing"
)

type named struct{ name string }

func (n named) String() string { return n.name }

type params struct {
	A, B float64
}

type empty struct{}

type other struct{}

func TestKey(t *testing.T) {
	if k := Key(named{"spherical"}); k != "hash.named:spherical" {
		t.Errorf("stringer: %s", k)
	}
	k1 := Key(params{A: 1, B: 2})
	if k1 != Key(params{A: 1, B: 2}) {
		t.Error("equal values should have equal keys")
	}
	if k1 == Key(params{A: 1, B: 3}) {
		t.Error("different values should have different keys")
	}
	if !strings.HasPrefix(k1, "hash.params:") {
		t.Errorf("key should include the type: %s", k1)
	}
	if Key(empty{}) == Key(other{}) {
		t.Error("different types should have different keys")
	}
}
