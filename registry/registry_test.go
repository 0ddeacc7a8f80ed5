package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testforge/subreport/harness"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestItemsFollowPlanOrder(t *testing.T) {
	cat := &Catalog{}
	cat.Register("test_b", func(t *harness.T) {})
	cat.Register("test_a", func(t *harness.T) {})

	plan := writePlan(t, `
name: smoke
tests:
  - test_b
  - test_a
`)
	reg, err := NewRegistry(Config{PlanFile: plan, Catalog: cat})
	require.NoError(t, err)
	require.NotNil(t, reg.Plan())
	assert.Equal(t, "smoke", reg.Plan().Name)

	items, err := reg.Items()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "test_b", items[0].NodeID)
	assert.Equal(t, "test_a", items[1].NodeID)
}

func TestItemsWholeCatalogSorted(t *testing.T) {
	cat := &Catalog{}
	cat.Register("test_c", func(t *harness.T) {})
	cat.Register("test_a", func(t *harness.T) {})
	cat.Register("test_b", func(t *harness.T) {})

	reg, err := NewRegistry(Config{Catalog: cat})
	require.NoError(t, err)
	assert.Nil(t, reg.Plan())

	items, err := reg.Items()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "test_a", items[0].NodeID)
	assert.Equal(t, "test_b", items[1].NodeID)
	assert.Equal(t, "test_c", items[2].NodeID)
}

func TestItemsUnknownTest(t *testing.T) {
	cat := &Catalog{}
	cat.Register("test_a", func(t *harness.T) {})

	plan := writePlan(t, `
name: broken
tests:
  - test_missing
`)
	reg, err := NewRegistry(Config{PlanFile: plan, Catalog: cat})
	require.NoError(t, err)

	_, err = reg.Items()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test_missing")
}

func TestNewRegistryMissingPlanFile(t *testing.T) {
	_, err := NewRegistry(Config{PlanFile: filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load run plan")
}

func TestNewRegistryInvalidYAML(t *testing.T) {
	plan := writePlan(t, "tests: [unclosed")
	_, err := NewRegistry(Config{PlanFile: plan})
	require.Error(t, err)
}

func TestRegisterReplaces(t *testing.T) {
	cat := &Catalog{}
	ran := ""
	cat.Register("test_a", func(t *harness.T) { ran = "first" })
	cat.Register("test_a", func(t *harness.T) { ran = "second" })

	reg, err := NewRegistry(Config{Catalog: cat})
	require.NoError(t, err)
	items, err := reg.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)

	items[0].Fn(nil)
	assert.Equal(t, "second", ran)
}
