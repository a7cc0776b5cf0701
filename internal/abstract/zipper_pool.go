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

import "sync"

// Nodes can be shared by any number of trees and are left to the garbage
// collector. Zippers are transient and are recycled once consumed.
type zipperPool[T any] struct {
	pool sync.Pool
}

var syncPoolMap sync.Map

func getZipperPool[T any]() *zipperPool[T] {
	var nilZipper *Zipper[T]
	v, ok := syncPoolMap.Load(nilZipper)
	if !ok {
		v, _ = syncPoolMap.LoadOrStore(nilZipper, newZipperPool[T]())
	}
	return v.(*zipperPool[T])
}

func newZipperPool[T any]() *zipperPool[T] {
	zp := zipperPool[T]{}
	zp.pool = sync.Pool{
		New: func() interface{} {
			return new(Zipper[T])
		},
	}
	return &zp
}

func (zp *zipperPool[T]) get() *Zipper[T] {
	return zp.pool.Get().(*Zipper[T])
}

func (zp *zipperPool[T]) put(z *Zipper[T]) {
	z.s.reset()
	z.cfg = nil
	z.owner = nil
	zp.pool.Put(z)
}
