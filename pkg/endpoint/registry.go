package endpoint

import (
	"fmt"
	"sort"
	"sync"

	"github.com/puppetlabs/leg/errmap/pkg/errmark"
	"golang.org/x/oauth2"
)

type FactoryFunc func(opts map[string]string) (oauth2.Endpoint, error)

type Registry struct {
	factories map[string]FactoryFunc
	mut       sync.RWMutex
}

// Register registers a new endpoint using the name and factory specified.
func (r *Registry) Register(name string, factory FactoryFunc) error {
	r.mut.Lock()
	defer r.mut.Unlock()

	if _, found := r.factories[name]; found {
		return fmt.Errorf("factory with name %q already exists", name)
	}

	r.factories[name] = factory

	return nil
}

func (r *Registry) MustRegister(name string, factory FactoryFunc) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Resolve looks up the endpoint with the given name and configures it
// according to the specified options.
func (r *Registry) Resolve(name string, opts map[string]string) (oauth2.Endpoint, error) {
	r.mut.RLock()
	defer r.mut.RUnlock()

	fn, found := r.factories[name]
	if !found {
		return oauth2.Endpoint{}, errmark.MarkUser(&NoSuchProviderError{Name: name})
	}

	ep, err := fn(opts)
	if err != nil {
		return oauth2.Endpoint{}, errmark.MarkUserIf(err, errmark.RuleAny(
			errmark.RuleIs(ErrNoOptions),
			errmark.RuleType(&OptionError{}),
		))
	}

	return ep, nil
}

// Names returns the registered endpoint names in sorted order.
func (r *Registry) Names() []string {
	r.mut.RLock()
	defer r.mut.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FactoryFunc),
	}
}

var GlobalRegistry = NewRegistry()
