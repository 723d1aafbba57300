/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package buddy

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes one "<count>:<size>K" token per order, minOrder through
// maxOrder, newline-terminated. It reads free-list counts only and never
// mutates allocator state.
func (a *Allocator) Dump(w io.Writer) error {
	for o := a.minOrder; o <= a.maxOrder; o++ {
		if _, err := fmt.Fprintf(w, "%d:%dK ", a.counts[o-a.minOrder], 1<<o/1024); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// DumpString returns the Dump output as a string.
func (a *Allocator) DumpString() string {
	var sb strings.Builder
	_ = a.Dump(&sb) // strings.Builder never fails
	return sb.String()
}
