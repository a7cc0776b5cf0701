// Copyright 2021 Andrew Werner.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package abstract

// Owner is an identity token for the single writer of a version of a tree.
// Only pointer identity matters; the name is for debugging.
//
// A nil *Owner never matches anything, so operations performed with a nil
// owner are always persistent.
type Owner struct {
	name string
}

// NewOwner returns a fresh owner token.
func NewOwner(name string) *Owner {
	return &Owner{name: name}
}

func (o *Owner) String() string {
	if o == nil {
		return "<nil>"
	}
	return o.name
}
