package search

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/tidecast/tidecast/common/models"
)

// CompareValues orders two field values of the same kind, returning -1, 0 or 1.
// Strings (and string based types such as ResourceID) compare bytewise, which matches
// the default collation of the SQL and document stores.
func CompareValues(a interface{}, b interface{}) (int, error) {
	na, err := normalize(a)
	if err != nil {
		return 0, err
	}
	nb, err := normalize(b)
	if err != nil {
		return 0, err
	}
	switch x := na.(type) {
	case string:
		y, ok := nb.(string)
		if ok {
			return strings.Compare(x, y), nil
		}
	case int64:
		y, ok := nb.(int64)
		if ok {
			return compareOrdered(x < y, x > y), nil
		}
	case float64:
		y, ok := nb.(float64)
		if ok {
			return compareOrdered(x < y, x > y), nil
		}
	case bool:
		y, ok := nb.(bool)
		if ok {
			return compareOrdered(!x && y, x && !y), nil
		}
	case time.Time:
		y, ok := nb.(time.Time)
		if ok {
			return compareOrdered(x.Before(y), x.After(y)), nil
		}
	}
	return 0, fmt.Errorf("error cannot compare %T with %T", a, b)
}

func compareOrdered(less bool, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}

func normalize(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case models.Time:
		return t.Time, nil
	case *models.Time:
		if t == nil {
			return nil, fmt.Errorf("error cannot compare nil time")
		}
		return t.Time, nil
	case models.SubscriberID:
		return string(t.ResourceID), nil
	case time.Time:
		return t.UTC(), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	}
	return nil, fmt.Errorf("error unsupported value type %T", v)
}

// Evaluate reports whether the entity whose fields are read through get matches filter.
// A nil filter matches everything; an Or with no children matches nothing. StartsWith
// ignores case.
func Evaluate(filter Filter, get func(field FieldName) (interface{}, error)) (bool, error) {
	switch t := filter.(type) {
	case nil:
		return true, nil
	case *And:
		for _, child := range t.Filters {
			ok, err := Evaluate(child, get)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case *Or:
		for _, child := range t.Filters {
			ok, err := Evaluate(child, get)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case *FieldFilter:
		value, err := get(t.Field)
		if err != nil {
			return false, err
		}
		if t.Operator == StartsWith {
			s, err := normalize(value)
			if err != nil {
				return false, err
			}
			prefix, err := normalize(t.Value)
			if err != nil {
				return false, err
			}
			str, ok1 := s.(string)
			p, ok2 := prefix.(string)
			if !ok1 || !ok2 {
				return false, fmt.Errorf("error operator %s requires string values", t.Operator)
			}
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(p)), nil
		}
		c, err := CompareValues(value, t.Value)
		if err != nil {
			return false, err
		}
		switch t.Operator {
		case Equal:
			return c == 0, nil
		case NotEqual:
			return c != 0, nil
		case GreaterThan:
			return c > 0, nil
		case GreaterThanOrEqualTo:
			return c >= 0, nil
		case LessThan:
			return c < 0, nil
		case LessThanOrEqualTo:
			return c <= 0, nil
		default:
			return false, fmt.Errorf("error unsupported operator: %s", t.Operator)
		}
	default:
		panic("unknown filter type")
	}
}
