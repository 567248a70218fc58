package ports

import "glmengine/domain/dataset"

// DatasetReader loads an in-memory dataset from an external source
type DatasetReader interface {
	ReadData() (*dataset.Dataset, error)
}
