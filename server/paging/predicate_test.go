package paging

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
)

var testSchema = search.NewSchema(
	"id",
	search.Field{Name: "id", Kind: search.KindID, Sortable: true},
	search.Field{Name: "rank", Kind: search.KindInteger, Sortable: true},
	search.Field{Name: "label", Kind: search.KindString},
)

func TestComparisonOperatorMatrix(t *testing.T) {
	tests := []struct {
		direction search.SortDirection
		side      Side
		expected  search.Operator
	}{
		{search.Ascending, SideAfter, search.GreaterThan},
		{search.Ascending, SideBefore, search.LessThan},
		{search.Descending, SideAfter, search.LessThan},
		{search.Descending, SideBefore, search.GreaterThan},
	}
	for _, test := range tests {
		t.Run(string(test.direction)+"-"+string(test.side), func(t *testing.T) {
			require.Equal(t, test.expected, comparisonOperator(test.direction, test.side))
		})
	}
}

func TestBuildPredicateWithTiebreak(t *testing.T) {
	filter := search.NewFieldFilter("label", search.Equal, "x")
	boundary := &SortKey{Value: int64(3), ID: "E7"}
	for _, direction := range []search.SortDirection{search.Ascending, search.Descending} {
		for _, side := range []Side{SideAfter, SideBefore} {
			op := comparisonOperator(direction, side)
			predicate, err := BuildPredicate(testSchema, filter, "rank", direction, boundary, side)
			require.NoError(t, err)
			require.Equal(t, &search.And{Filters: []search.Filter{
				filter,
				&search.Or{Filters: []search.Filter{
					search.NewFieldFilter("rank", op, int64(3)),
					&search.And{Filters: []search.Filter{
						search.NewFieldFilter("rank", search.Equal, int64(3)),
						search.NewFieldFilter("id", op, models.ResourceID("E7")),
					}},
				}},
			}}, predicate)
		}
	}
}

func TestBuildPredicateSortByID(t *testing.T) {
	predicate, err := BuildPredicate(testSchema, nil, "id", search.Descending, &SortKey{Value: models.ResourceID("E5"), ID: "E5"}, SideAfter)
	require.NoError(t, err)
	require.Equal(t, search.NewFieldFilter("id", search.LessThan, models.ResourceID("E5")), predicate)
}

func TestBuildPredicateWithoutBoundary(t *testing.T) {
	filter := search.NewFieldFilter("label", search.Equal, "x")
	predicate, err := BuildPredicate(testSchema, filter, "rank", search.Ascending, nil, SideAfter)
	require.NoError(t, err)
	require.Equal(t, filter, predicate)
}

func TestBuildPredicateRejectsBadSortField(t *testing.T) {
	_, err := BuildPredicate(testSchema, nil, "colour", search.Ascending, nil, SideAfter)
	require.True(t, gerror.IsInvalidArgument(err))
	_, err = BuildPredicate(testSchema, nil, "label", search.Ascending, &SortKey{Value: "x", ID: "E1"}, SideAfter)
	require.True(t, gerror.IsInvalidArgument(err))
}

// TestBuildPredicateSelectsStrictSide evaluates predicates against every entity of a small
// collection with tied ranks, checking each selects exactly the entities on the wanted side.
func TestBuildPredicateSelectsStrictSide(t *testing.T) {
	type row struct {
		id   models.ResourceID
		rank int64
	}
	// Sorted ascending by (rank, id)
	rows := []row{{"A", 1}, {"C", 1}, {"B", 2}, {"D", 2}, {"E", 2}, {"F", 3}}
	for _, direction := range []search.SortDirection{search.Ascending, search.Descending} {
		for _, side := range []Side{SideAfter, SideBefore} {
			for b, boundary := range rows {
				predicate, err := BuildPredicate(testSchema, nil, "rank", direction, &SortKey{Value: boundary.rank, ID: boundary.id}, side)
				require.NoError(t, err)
				for i, r := range rows {
					r := r
					matched, err := search.Evaluate(predicate, func(field search.FieldName) (interface{}, error) {
						if field == "id" {
							return r.id, nil
						}
						return r.rank, nil
					})
					require.NoError(t, err)
					// Position of r relative to the boundary in traversal order
					afterInTraversal := i > b
					if direction == search.Descending {
						afterInTraversal = i < b
					}
					expected := i != b && (afterInTraversal == (side == SideAfter))
					require.Equal(t, expected, matched, "direction=%s side=%s boundary=%s row=%s", direction, side, boundary.id, r.id)
				}
			}
		}
	}
}
