package docstore

import (
	"math"
	"sort"
	"strings"
	"time"

	"sprouthub/pkg/domain"
)

// Type ranks follow the realtime store's cross-type ordering.
const (
	rankNull = iota
	rankBool
	rankNumber
	rankTime
	rankString
	rankOther
)

func evaluate(docs map[string]domain.Document, q domain.Query) []domain.Document {
	result := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, q.Filters) {
			result = append(result, doc)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compareValues(result[i].Data[q.OrderBy], result[j].Data[q.OrderBy])
			if q.Direction == domain.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return result[i].ID < result[j].ID
	})

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}

	return result
}

func matches(doc domain.Document, filters []domain.Filter) bool {
	for _, f := range filters {
		v, ok := doc.Data[f.Field]
		if !ok || compareValues(v, f.Value) != 0 {
			return false
		}
	}
	return true
}

func rank(v any) (int, any) {
	switch x := v.(type) {
	case nil:
		return rankNull, nil
	case bool:
		return rankBool, x
	case time.Time:
		return rankTime, x
	case *time.Time:
		if x == nil {
			return rankNull, nil
		}
		return rankTime, *x
	case string:
		return rankString, x
	}

	if f, ok := toFloat(v); ok {
		return rankNumber, f
	}
	return rankOther, v
}

func compareValues(a, b any) int {
	ra, va := rank(a)
	rb, vb := rank(b)
	if ra != rb {
		return ra - rb
	}

	switch ra {
	case rankBool:
		x, y := va.(bool), vb.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case rankNumber:
		x, y := va.(float64), vb.(float64)
		switch {
		case x < y || (math.IsNaN(x) && !math.IsNaN(y)):
			return -1
		case x > y || (math.IsNaN(y) && !math.IsNaN(x)):
			return 1
		default:
			return 0
		}
	case rankTime:
		return va.(time.Time).Compare(vb.(time.Time))
	case rankString:
		return strings.Compare(va.(string), vb.(string))
	}

	return 0
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}
