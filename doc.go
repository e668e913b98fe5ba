/*
Package instantiator measures how fast a trivial struct can be instantiated at runtime.

# License

Source codes are under Apache License Version 2.0.

# Strategies

Each strategy produces a fresh [Target] holding default values:

 1. UsingActivator: look the type up by name and ask the [Types] registry for a default instance.
 2. UsingConstructor: locate the registered constructor and invoke it through reflection.
 3. UsingDynamicMethod: generate a factory function at runtime ([reflect.MakeFunc]) and call it.
 4. UsingRuntimeHelpers: allocate zeroed storage of the type without running the constructor.
 5. UsingExpression: compile the expression NewTarget() with [expr] and run it.
 6. UsingNew: plain composite literal, the baseline.

All but the baseline come in a WithCache variant which reuses [Handles] built once
before measuring, so lookup cost is measured apart from population cost.

# Linked module

Built with the goloader tag, two more strategies compile a tiny factory into a relocatable
object and link it into the running process with [goloader]. UsingLinker loads and links
the module on every call, UsingLinkerWithCache calls the factory of a module linked once.
goloader requires a prepared GO SDK, see its documentation, and a go1.21 to go1.23 toolchain:
the pinned goloader excludes go1.24 and later, which is why the module stays on go 1.23.

# Running

	go test -bench=. -benchmem
	go run ./instantiate

Failures of reflection, expression compilation or code generation panic: a benchmark run
has no fallback path.

[goloader]: https://github.com/pkujhd/goloader
[expr]: https://github.com/expr-lang/expr
*/
package instantiator
