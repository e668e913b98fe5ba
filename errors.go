package instantiator

import "errors"

var (
	// ErrUnknownType occurs when a type name is not registered.
	ErrUnknownType = errors.New("unknown type")
	// ErrAlreadyRegistered occurs when registering the same type name twice.
	ErrAlreadyRegistered = errors.New("type already registered")
	// ErrConstructor occurs when a constructor is not a func() *T.
	ErrConstructor = errors.New("constructor must be a func without arguments returning a pointer")
	// ErrMissingConstructor occurs when a type has no registered constructor.
	ErrMissingConstructor = errors.New("missing constructor")
	// ErrCodegenDenied occurs when runtime code generation is not permitted.
	ErrCodegenDenied = errors.New("runtime code generation denied")
	// ErrUnexpectedType occurs when a factory produced something other than *Target.
	ErrUnexpectedType = errors.New("unexpected instance type")
)

var (
	// ErrMissingSymbol occurs when can't found a symbol in a linked module.
	ErrMissingSymbol = errors.New("missing symbol")
	// ErrAlreadyInitialized occurs when a Module reinitializing.
	ErrAlreadyInitialized = errors.New("already initialized module")
	// ErrLinked occurs when a Module relinking.
	ErrLinked = errors.New("already linked")
	// ErrUninitialized occurs use or link a Module before initialized.
	ErrUninitialized = errors.New("module not initialized")
)
