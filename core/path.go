package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPath indicates a path with no pools.
	ErrEmptyPath = errors.New("core: path is empty")

	// ErrDisconnectedPath indicates path[i].To != path[i+1].From for some i.
	ErrDisconnectedPath = errors.New("core: path is not contiguous")

	// ErrRepeatedAsset indicates a path that visits an asset twice.
	ErrRepeatedAsset = errors.New("core: path revisits an asset")
)

// Path is an ordered sequence of pools from a source asset to a target asset.
type Path []Pool

// Source returns the first asset of the path, or "" when empty.
func (p Path) Source() Asset {
	if len(p) == 0 {
		return ""
	}

	return p[0].From
}

// Target returns the last asset of the path, or "" when empty.
func (p Path) Target() Asset {
	if len(p) == 0 {
		return ""
	}

	return p[len(p)-1].To
}

// Assets lists the visited assets, source first.
func (p Path) Assets() []Asset {
	if len(p) == 0 {
		return nil
	}
	out := make([]Asset, 0, len(p)+1)
	out = append(out, p[0].From)
	for _, pool := range p {
		out = append(out, pool.To)
	}

	return out
}

// Valid checks contiguity and that no asset is visited twice.
func (p Path) Valid() error {
	if len(p) == 0 {
		return ErrEmptyPath
	}
	seen := make(map[Asset]struct{}, len(p)+1)
	seen[p[0].From] = struct{}{}
	for i, pool := range p {
		if i > 0 && p[i-1].To != pool.From {
			return fmt.Errorf("%w: hop %d ends at %s, hop %d starts at %s",
				ErrDisconnectedPath, i-1, p[i-1].To, i, pool.From)
		}
		if _, dup := seen[pool.To]; dup {
			return fmt.Errorf("%w: %s", ErrRepeatedAsset, pool.To)
		}
		seen[pool.To] = struct{}{}
	}

	return nil
}
