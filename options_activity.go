package store

import "github.com/goliatone/go-store/pkg/activity"

// WithActivityHooks adds hooks notified with a store.module.compiled event
// after every successful Compile. Nil hooks are ignored; repeated options
// accumulate.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	return func(cfg *builderConfig) {
		for _, hook := range hooks {
			if hook != nil {
				cfg.activityHooks = append(cfg.activityHooks, hook)
			}
		}
	}
}

// ActivityHooks returns a copy of the hooks configured on the builder.
func (b *Builder) ActivityHooks() activity.Hooks {
	if b == nil || len(b.cfg.activityHooks) == 0 {
		return nil
	}
	return append(activity.Hooks(nil), b.cfg.activityHooks...)
}
