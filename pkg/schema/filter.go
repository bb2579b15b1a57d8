// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
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

package schema

// filter returns a copy of t without the fields that need a newer version
// than v. A pruned Start drops its whole subtree; End and alternative
// indices are remapped onto the surviving steps.
func filter(t *Template, v Version) *Template {
	n := len(t.Steps)
	keep := make([]bool, n)
	for i := 0; i < n; {
		st := t.Steps[i]
		last := i
		if st.Kind == StepStart {
			last = st.End
		}
		if st.Field != nil && st.Field.MinVersion != nil && v.Less(*st.Field.MinVersion) {
			i = last + 1
			continue
		}
		keep[i] = true
		i++
	}

	// before[i] counts kept steps in [0, i).
	before := make([]int, n+1)
	for i := 0; i < n; i++ {
		before[i+1] = before[i]
		if keep[i] {
			before[i+1]++
		}
	}

	steps := make([]Step, 0, before[n])
	for i := 0; i < n; i++ {
		if !keep[i] {
			continue
		}
		st := t.Steps[i]
		if st.Kind == StepStart {
			st.End = before[st.End]
			if len(st.Alts) > 0 {
				alts := make([]Alt, len(st.Alts))
				for j, a := range st.Alts {
					a.Lo, a.Hi = before[a.Lo], before[a.Hi]
					alts[j] = a
				}
				st.Alts = alts
			}
		}
		steps = append(steps, st)
	}

	version := v
	return &Template{Root: t.Root, Steps: steps, Version: &version, source: t}
}
