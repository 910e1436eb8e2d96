package environment

// NewDefaultProvider returns the provider used by the CLI: the process
// environment, optionally overlaid by fixed values that take precedence.
func NewDefaultProvider(overrides map[string]string) Provider {
	if len(overrides) == 0 {
		return NewOsEnvProvider()
	}
	return NewMultiProvider(
		NewMapProvider(overrides),
		NewOsEnvProvider(),
	)
}
