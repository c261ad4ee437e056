package cache

import (
	"errors"
	"time"
)

// Tiered stacks caches fastest first. A hit in a slower tier is copied
// into every faster one with that tier's default TTL.
type Tiered struct {
	tiers []Cache
}

func NewTiered(tiers ...Cache) *Tiered {
	return &Tiered{tiers: tiers}
}

func (t *Tiered) Get(key string) ([]byte, bool) {
	for depth, tier := range t.tiers {
		body, ok := tier.Get(key)
		if !ok {
			continue
		}
		for _, faster := range t.tiers[:depth] {
			_ = faster.Set(key, body, 0)
		}
		return body, true
	}
	return nil, false
}

func (t *Tiered) Set(key string, value []byte, ttl time.Duration) error {
	var errs []error
	for _, tier := range t.tiers {
		errs = append(errs, tier.Set(key, value, ttl))
	}
	return errors.Join(errs...)
}

func (t *Tiered) Delete(key string) error {
	var errs []error
	for _, tier := range t.tiers {
		errs = append(errs, tier.Delete(key))
	}
	return errors.Join(errs...)
}

func (t *Tiered) Clear() error {
	var errs []error
	for _, tier := range t.tiers {
		errs = append(errs, tier.Clear())
	}
	return errors.Join(errs...)
}
