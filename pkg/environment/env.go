package environment

import (
	"context"
	"os"
)

// OsEnvProvider reads the process environment.
type OsEnvProvider struct{}

func NewOsEnvProvider() *OsEnvProvider {
	return &OsEnvProvider{}
}

func (p *OsEnvProvider) Get(_ context.Context, name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapProvider serves variables from a fixed map. Programmatic callers use it
// to avoid coupling to the process environment.
type MapProvider map[string]string

func NewMapProvider(values map[string]string) MapProvider {
	return MapProvider(values)
}

func (p MapProvider) Get(_ context.Context, name string) (string, bool) {
	value, ok := p[name]
	return value, ok
}

// Has reports whether any of the given variables is set, even to an empty value.
func Has(ctx context.Context, p Provider, names ...string) bool {
	for _, name := range names {
		if _, ok := p.Get(ctx, name); ok {
			return true
		}
	}
	return false
}
