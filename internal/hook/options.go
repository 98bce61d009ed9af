package hook

import "github.com/soyeahso/hookmount/internal/logging"

// Option configures a Mounter or a Binder.
type Option func(*options)

type options struct {
	log             *logging.Logger
	registry        *Registry
	loader          Loader
	catalog         *Catalog
	defaultPriority int
}

func newOptions(opts []Option) options {
	o := options{defaultPriority: DefaultPriority}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logging.Nop()
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}
	if o.catalog == nil {
		o.catalog = NewCatalog()
	}
	return o
}

// WithLogger sets the logger used for debug tracing. Defaults to silent.
func WithLogger(log *logging.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithRegistry shares an identity registry, e.g. between a Mounter and a
// Binder owned by the same component.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLoader sets the loader used for file-backed functions.
func WithLoader(l Loader) Option {
	return func(o *options) { o.loader = l }
}

// WithCatalog sets the catalog used to resolve class names.
func WithCatalog(c *Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithDefaultPriority sets the priority used when none is declared.
func WithDefaultPriority(p int) Option {
	return func(o *options) { o.defaultPriority = p }
}
