package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/angler/pkg/vector"
	"github.com/papercomputeco/angler/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	DBPath       string
	Dimensions   uint
	Logger       *zap.Logger
}

func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlitevec":
		return sqlitevec.New(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
