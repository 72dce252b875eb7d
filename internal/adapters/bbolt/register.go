package bbolt

import (
	"context"

	"github.com/corey/colrecon/internal/adapters/registry"
	"github.com/corey/colrecon/internal/ports"
)

func init() {
	registry.Register("bbolt", func(_ context.Context, path string) (ports.MappingStore, error) {
		s, err := NewStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
