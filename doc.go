// Package store compiles state-container configurations from modules that
// register their state, getters, mutations and actions through a Builder.
//
// Registration is deferred: each Module records its members on a private
// queue and Compile drains that queue into a Config. Members carry a global
// name (the key in the Config maps) and a local name that other members of
// the same module use through a ModuleScope.
//
// Data flow:
//
//	Builder.Module(...).Getter/Mutation/Action(...) -> Queue -> Compile -> Config
//	CompileRoot -> ContainerFactory -> Container -> Binding
//
// Getters may be written as Go functions or as expressions (see GetterExpr)
// evaluated by expr, CEL or, with the js_eval build tag, goja.
//
// The pkg/container package provides a small live container for compiled
// configurations. Any other implementation can be plugged in through
// WithContainerFactory.
package store
