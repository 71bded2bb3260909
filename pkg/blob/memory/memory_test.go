package memory

import (
	"testing"

	"github.com/modelibr/assetdav/pkg/blob"
	blobtest "github.com/modelibr/assetdav/pkg/blob/testing"
)

func TestMemoryBlobStore(t *testing.T) {
	suite := &blobtest.StoreTestSuite{
		NewStore: func(t *testing.T) blob.WritableStore {
			return NewMemoryBlobStore()
		},
	}
	suite.Run(t)
}
