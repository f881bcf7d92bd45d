// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package evmcore

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
)

// This file provides a registry for Processor instances.
//
// A Processor implementation is expected to register a factory under a
// unique name during package initialization. Client applications select an
// implementation by name at startup, bind it to an Interpreter, and obtain
// a ready-to-use Processor through GetProcessor.

// ProcessorFactory is the type of a function producing a Processor bound to
// the given Interpreter.
type ProcessorFactory func(interpreter Interpreter) Processor

// RegisterProcessorFactory registers a new Processor implementation to be
// exported for general use in the binary. A panic is triggered if a factory
// was bound to the same name before, or the given factory is nil. This
// function is intended to be used by package initialization code.
func RegisterProcessorFactory(name string, factory ProcessorFactory) {
	if factory == nil {
		panic(fmt.Sprintf("invalid initialization: cannot register nil-factory using `%s`", name))
	}
	processorRegistryLock.Lock()
	defer processorRegistryLock.Unlock()
	if _, found := processorRegistry[name]; found {
		panic(fmt.Sprintf("invalid initialization: multiple factories registered for `%s`", name))
	}
	processorRegistry[name] = factory
}

// GetProcessorFactory performs a lookup for the given name in the registry.
// The result is nil if no factory was registered under the given name.
func GetProcessorFactory(name string) ProcessorFactory {
	processorRegistryLock.Lock()
	defer processorRegistryLock.Unlock()
	return processorRegistry[name]
}

// GetAllRegisteredProcessorFactories obtains all registered implementations.
func GetAllRegisteredProcessorFactories() map[string]ProcessorFactory {
	processorRegistryLock.Lock()
	defer processorRegistryLock.Unlock()
	return maps.Clone(processorRegistry)
}

// GetProcessor performs a lookup for the given name in the registry and, if
// found, uses the resulting factory to produce a Processor bound to the
// given Interpreter. The result is nil if no factory was registered under
// the given name.
func GetProcessor(name string, interpreter Interpreter) Processor {
	factory := GetProcessorFactory(name)
	if factory == nil {
		return nil
	}
	return factory(interpreter)
}

// processorRegistry is a global registry for Processor factories of
// different implementations.
var processorRegistry = map[string]ProcessorFactory{}

// processorRegistryLock protects access to the registry.
var processorRegistryLock sync.Mutex
