package store

// WithEvaluator configures the evaluator used to compile getter expressions.
// When omitted, or nil, an expr evaluator sharing the builder's program cache
// and functions is created on first use.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *builderConfig) {
		cfg.evaluator = e
	}
}

// WithContainerFactory configures how CompileRoot builds the live container.
func WithContainerFactory(factory ContainerFactory) Option {
	return func(cfg *builderConfig) {
		cfg.containerFactory = factory
	}
}

func (b *Builder) evaluator() Evaluator {
	if b.cfg.evaluator == nil {
		b.cfg.evaluator = NewExprEvaluator(
			WithEngineCache(b.cfg.programCache),
			WithEngineFunctions(b.cfg.functions),
		)
	}
	return b.cfg.evaluator
}

func (b *Builder) evaluatorLogger() EvaluatorLogger {
	if b.cfg.evaluatorLogger != nil {
		return b.cfg.evaluatorLogger
	}
	return noopEvaluatorLogger{}
}

func (b *Builder) compileLogger() CompileLogger {
	if b.cfg.compileLogger != nil {
		return b.cfg.compileLogger
	}
	return noopCompileLogger{}
}
