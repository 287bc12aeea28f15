package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/medicos-drona/drona-frontend-sub001/apps/api/echo"
	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
	inmemcache "github.com/medicos-drona/drona-frontend-sub001/storage/cache/inmem"
)

func TestNew(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_DATABASE_NAME", "")
	t.Setenv("TEST_REDIS_ADDR", "")

	c := New()
	err := c.Invoke(func(server *echoapi.Server, cache paper.DocumentCache, svc paper.ServiceInterface) {
		assert.NotNil(t, server)
		assert.NotNil(t, svc)
		assert.IsType(t, &inmemcache.Cache{}, cache)
	})
	require.NoError(t, err)
}
