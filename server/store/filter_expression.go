package store

import (
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/tidecast/tidecast/common/models/search"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FilterExpression converts a search filter into a goqu expression. column maps each search field
// to the column that stores it. An And with no children is always true and an Or with no children
// is always false.
func FilterExpression(filter search.Filter, column func(search.FieldName) (string, error)) (exp.Expression, error) {
	switch f := filter.(type) {
	case *search.FieldFilter:
		col, err := column(f.Field)
		if err != nil {
			return nil, err
		}
		return fieldExpression(col, f.Operator, f.Value)
	case *search.And:
		if len(f.Filters) == 0 {
			return goqu.L("1 = 1"), nil
		}
		children, err := childExpressions(f.Filters, column)
		if err != nil {
			return nil, err
		}
		return goqu.And(children...), nil
	case *search.Or:
		if len(f.Filters) == 0 {
			return goqu.L("1 = 0"), nil
		}
		children, err := childExpressions(f.Filters, column)
		if err != nil {
			return nil, err
		}
		return goqu.Or(children...), nil
	default:
		return nil, fmt.Errorf("error unsupported filter type %T", filter)
	}
}

func childExpressions(filters []search.Filter, column func(search.FieldName) (string, error)) ([]exp.Expression, error) {
	children := make([]exp.Expression, 0, len(filters))
	for _, child := range filters {
		expression, err := FilterExpression(child, column)
		if err != nil {
			return nil, err
		}
		children = append(children, expression)
	}
	return children, nil
}

func fieldExpression(col string, operator search.Operator, value interface{}) (exp.Expression, error) {
	c := goqu.C(col)
	switch operator {
	case search.Equal:
		return c.Eq(value), nil
	case search.NotEqual:
		return c.Neq(value), nil
	case search.GreaterThan:
		return c.Gt(value), nil
	case search.GreaterThanOrEqualTo:
		return c.Gte(value), nil
	case search.LessThan:
		return c.Lt(value), nil
	case search.LessThanOrEqualTo:
		return c.Lte(value), nil
	case search.StartsWith:
		prefix, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("error operator %s requires a string value, found %T", operator, value)
		}
		pattern := likeEscaper.Replace(strings.ToLower(prefix)) + "%"
		return goqu.L(`LOWER(?) LIKE ? ESCAPE '\'`, c, pattern), nil
	default:
		return nil, fmt.Errorf("error unsupported operator: %s", operator)
	}
}
