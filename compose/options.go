package compose

import (
	"runtime"
	"strings"
)

type options struct {
	reader         ManifestReader
	policy         VersionPolicy
	goos           string
	goarch         string
	zeroUnresolved bool
}

// Option configures an Engine.
type Option func(*options)

func defaultOptions() options {
	return options{
		policy: EquivalentVersions,
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
	}
}

// WithManifestReader enables QueueLoad with manifest locations.
func WithManifestReader(r ManifestReader) Option {
	return func(o *options) {
		o.reader = r
	}
}

func WithVersionPolicy(p VersionPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithPlatform overrides the platform components are filtered against. It
// accepts "GOOS" or "GOOS/GOARCH"; an empty string keeps the runtime platform.
func WithPlatform(platform string) Option {
	return func(o *options) {
		platform = strings.TrimSpace(platform)
		if platform == "" {
			return
		}
		goos, goarch, ok := strings.Cut(platform, "/")
		o.goos = goos
		if ok {
			o.goarch = goarch
		}
	}
}

// WithZeroValueForUnresolved injects the zero value for constructor
// parameters nothing can satisfy instead of failing the run.
func WithZeroValueForUnresolved() Option {
	return func(o *options) {
		o.zeroUnresolved = true
	}
}
