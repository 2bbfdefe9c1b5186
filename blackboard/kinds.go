// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

package blackboard

import (
	"sync"
)

// kindMap records which attribute types were stored per artifact kind. It
// drives the per kind views created on Close.
type kindMap struct {
	sync.RWMutex
	changed bool
	kinds   map[string]map[string]bool
}

func newKindMap() *kindMap {
	return &kindMap{kinds: map[string]map[string]bool{}}
}

func (km *kindMap) all() map[string]map[string]bool {
	km.RLock()
	defer km.RUnlock()
	kinds := make(map[string]map[string]bool, len(km.kinds))
	for kind, attributeTypes := range km.kinds {
		kinds[kind] = make(map[string]bool, len(attributeTypes))
		for attributeType := range attributeTypes {
			kinds[kind][attributeType] = true
		}
	}
	return kinds
}

func (km *kindMap) add(kind, attributeType string) {
	km.Lock()
	if km.set(kind, attributeType) {
		km.changed = true
	}
	km.Unlock()
}

// restore adds a known attribute type without marking the map as changed.
func (km *kindMap) restore(kind, attributeType string) {
	km.Lock()
	km.set(kind, attributeType)
	km.Unlock()
}

func (km *kindMap) set(kind, attributeType string) bool {
	if _, ok := km.kinds[kind]; !ok {
		km.kinds[kind] = map[string]bool{}
	}
	if _, ok := km.kinds[kind][attributeType]; ok {
		return false
	}
	km.kinds[kind][attributeType] = true
	return true
}
