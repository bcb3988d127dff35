package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/tests/testutil"
)

const seedYAML = `
id: seeded
mainTitle: Seeded
modules:
  - id: m1
    moduleName: One
    order: 10
    sections:
      - {id: a, title: A, order: 5}
      - {id: b, title: B, order: 7}
`

func newValidator() *validator.Validate {
	validate, translator := core.NewValidator()
	course.InitValidators(validate, translator)
	return validate
}

func TestOpen_memorySeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeded.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	conf := core.NewTestConfig()
	conf.SeedCourses = []string{path}

	ctx := context.Background()
	b, err := Open(ctx, conf, newValidator(), testutil.NopLogger{})
	require.NoError(t, err)
	defer func() { _ = b.Close(ctx) }()

	c, err := b.Catalog.GetCourse(ctx, "seeded")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Modules[0].Order)
	assert.Equal(t, 1, c.Modules[0].Sections[1].Order)
	assert.Nil(t, b.SQL)

	listing, err := course.NewService(b.Catalog, b.Enrolled).ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, listing.Enrolled)
	require.Len(t, listing.Available, 1)
	assert.Equal(t, 2, listing.Available[0].TotalSections)
}

func TestOpen_errors(t *testing.T) {
	tests := []struct {
		name string
		conf func(conf *core.Config)
	}{
		{name: "unknown storage", conf: func(conf *core.Config) { conf.Storage = "sqlite" }},
		{name: "missing seed file", conf: func(conf *core.Config) { conf.SeedCourses = []string{"does-not-exist.yaml"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := core.NewTestConfig()
			tt.conf(conf)
			_, err := Open(context.Background(), conf, newValidator(), testutil.NopLogger{})
			assert.Error(t, err)
		})
	}
}

func TestImportCourse(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	validate := newValidator()

	_, err := b.ImportCourse(ctx, course.Course{ID: "bad id"}, validate)
	require.Error(t, err)
	_, err = b.Catalog.GetCourse(ctx, "bad id")
	assert.Equal(t, course.ErrNotFound, err)

	c, err := b.ImportCourse(ctx, testutil.TwoByTwoCourse(" go-101 "), validate)
	require.NoError(t, err)
	assert.Equal(t, "go-101", c.ID)

	got, err := b.Catalog.GetCourse(ctx, "go-101")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, got.SectionIDs())
}
