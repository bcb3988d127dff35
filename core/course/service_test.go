package course

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCatalog map[string]Course

func (cat mapCatalog) GetCourse(_ context.Context, courseID string) (Course, error) {
	c, ok := cat[courseID]
	if !ok {
		return Course{}, ErrNotFound
	}
	return c.Copy(), nil
}

func (cat mapCatalog) ListCourses(context.Context) ([]Summary, error) {
	res := make([]Summary, 0, len(cat))
	for _, c := range cat {
		res = append(res, c.Summary())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

type progressByUser struct {
	recs  map[string]map[string]float64
	err   error
	calls int
}

func (p *progressByUser) CourseProgress(_ context.Context, userID string) (map[string]float64, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.recs[userID], nil
}

func listingIDs(sums []Summary) []string {
	ids := []string{}
	for _, s := range sums {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestService_ListForUser(t *testing.T) {
	cat := mapCatalog{
		"go-101":   shuffledCourse(),
		"rust-101": {ID: "rust-101", MainTitle: "Rust"},
		"sql-101":  {ID: "sql-101", MainTitle: "SQL", Modules: []Module{{ID: "m1", Sections: []Section{{ID: "a"}}}}},
	}
	prog := &progressByUser{recs: map[string]map[string]float64{
		"u1": {"go-101": 40, "sql-101": 0, "gone-101": 100},
	}}
	svc := NewService(cat, prog)
	ctx := context.Background()

	tests := []struct {
		name          string
		userID        string
		wantEnrolled  []string
		wantAvailable []string
	}{
		{name: "enrolled on progress above zero", userID: "u1", wantEnrolled: []string{"go-101"}, wantAvailable: []string{"rust-101", "sql-101"}},
		{name: "user without records", userID: "u2", wantEnrolled: []string{}, wantAvailable: []string{"go-101", "rust-101", "sql-101"}},
		{name: "guest", userID: " ", wantEnrolled: []string{}, wantAvailable: []string{"go-101", "rust-101", "sql-101"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListForUser(ctx, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnrolled, listingIDs(got.Enrolled))
			assert.Equal(t, tt.wantAvailable, listingIDs(got.Available))
		})
	}

	got, err := svc.ListForUser(ctx, "u1")
	require.NoError(t, err)
	goSum := got.Enrolled[0]
	assert.Equal(t, 40.0, goSum.Progress)
	assert.Equal(t, 3, goSum.ModuleCount)
	assert.Equal(t, 5, goSum.TotalSections)
	assert.Equal(t, 3, prog.calls, "guests are not looked up")
}

func TestService_ListForUser_errors(t *testing.T) {
	prog := &progressByUser{err: errors.New("connection reset")}
	svc := NewService(mapCatalog{"go-101": shuffledCourse()}, prog)

	_, err := svc.ListForUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading course progress: connection reset")

	// without a progress reader everything is available
	got, err := NewService(mapCatalog{"go-101": shuffledCourse()}, nil).ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Enrolled)
	assert.Equal(t, []string{"go-101"}, listingIDs(got.Available))
}

func TestService_Get(t *testing.T) {
	svc := NewService(mapCatalog{"go-101": shuffledCourse()}, nil)

	c, err := svc.GetCourse(context.Background(), " go-101 ")
	require.NoError(t, err)
	assert.Equal(t, "m1", c.Modules[0].ID, "normalized")

	_, err = svc.Get(context.Background(), "")
	assert.Equal(t, ErrNotFound, err)
	_, err = svc.Get(context.Background(), "nope")
	assert.Equal(t, ErrNotFound, err)
}
