package database

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// matchDocument evaluates the MongoDB query subset produced by the search
// filter compiler against a decoded document.
func matchDocument(doc bson.M, filter bson.M) (bool, error) {
	for key, cond := range filter {
		var (
			ok  bool
			err error
		)
		switch key {
		case "$and":
			ok, err = matchAll(doc, cond, true)
		case "$or":
			ok, err = matchAll(doc, cond, false)
		case "$nor":
			ok, err = matchAll(doc, cond, false)
			ok = !ok
		default:
			if strings.HasPrefix(key, "$") {
				return false, fmt.Errorf("unsupported top-level operator %s", key)
			}
			ok, err = matchField(lookup(doc, key), cond)
		}
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchAll(doc bson.M, clauses interface{}, all bool) (bool, error) {
	items, ok := asSlice(clauses)
	if !ok {
		return false, fmt.Errorf("logical operator expects a list, got %T", clauses)
	}
	for _, item := range items {
		sub, ok := asDoc(item)
		if !ok {
			return false, fmt.Errorf("logical operator clause must be a document, got %T", item)
		}
		matched, err := matchDocument(doc, sub)
		if err != nil {
			return false, err
		}
		if all && !matched {
			return false, nil
		}
		if !all && matched {
			return true, nil
		}
	}
	return all, nil
}

// fieldValue is the result of resolving a dotted path
type fieldValue struct {
	found  bool
	values []interface{}
}

// candidates returns the values an operator is tested against: array
// elements are tested individually.
func (f fieldValue) candidates() []interface{} {
	var out []interface{}
	for _, v := range f.values {
		if items, ok := asSlice(v); ok {
			out = append(out, items...)
			continue
		}
		out = append(out, v)
	}
	return out
}

func lookup(doc interface{}, path string) fieldValue {
	current := []interface{}{doc}
	for _, part := range strings.Split(path, ".") {
		var next []interface{}
		for _, node := range current {
			if items, ok := asSlice(node); ok {
				for _, item := range items {
					if d, ok := asDoc(item); ok {
						if v, ok := d[part]; ok {
							next = append(next, v)
						}
					}
				}
				continue
			}
			if d, ok := asDoc(node); ok {
				if v, ok := d[part]; ok {
					next = append(next, v)
				}
			}
		}
		if len(next) == 0 {
			return fieldValue{}
		}
		current = next
	}
	return fieldValue{found: true, values: current}
}

func matchField(field fieldValue, cond interface{}) (bool, error) {
	ops, ok := asDoc(cond)
	if !ok || !isOperatorDoc(ops) {
		return equalsAny(field, cond), nil
	}

	for op, arg := range ops {
		var (
			matched bool
			err     error
		)
		switch op {
		case "$eq":
			matched = equalsAny(field, arg)
		case "$ne":
			matched = !equalsAny(field, arg)
		case "$gt", "$gte", "$lt", "$lte":
			matched = compareAny(field, op, arg)
		case "$in":
			matched, err = inAny(field, arg)
		case "$nin":
			matched, err = inAny(field, arg)
			matched = !matched
		case "$exists":
			want, _ := arg.(bool)
			matched = field.found == want
		case "$regex":
			options, _ := ops["$options"].(string)
			matched, err = regexAny(field, arg, options)
		case "$options":
			matched = true
		default:
			return false, fmt.Errorf("unsupported operator %s", op)
		}
		if err != nil || !matched {
			return false, err
		}
	}
	return true, nil
}

func isOperatorDoc(d bson.M) bool {
	if len(d) == 0 {
		return false
	}
	for k := range d {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func equalsAny(field fieldValue, want interface{}) bool {
	if !field.found {
		return want == nil
	}
	for _, v := range field.candidates() {
		if valuesEqual(v, want) {
			return true
		}
	}
	return false
}

func compareAny(field fieldValue, op string, arg interface{}) bool {
	for _, v := range field.candidates() {
		c, ok := compareValues(v, arg)
		if !ok {
			continue
		}
		switch {
		case op == "$gt" && c > 0, op == "$gte" && c >= 0, op == "$lt" && c < 0, op == "$lte" && c <= 0:
			return true
		}
	}
	return false
}

func inAny(field fieldValue, arg interface{}) (bool, error) {
	options, ok := asSlice(arg)
	if !ok {
		return false, fmt.Errorf("$in expects a list, got %T", arg)
	}
	for _, want := range options {
		if equalsAny(field, want) {
			return true, nil
		}
	}
	return false, nil
}

func regexAny(field fieldValue, pattern interface{}, options string) (bool, error) {
	expr, ok := pattern.(string)
	if !ok {
		return false, fmt.Errorf("$regex expects a string, got %T", pattern)
	}
	if strings.Contains(options, "i") {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false, fmt.Errorf("invalid $regex: %w", err)
	}
	for _, v := range field.candidates() {
		if s, ok := v.(string); ok && re.MatchString(s) {
			return true, nil
		}
	}
	return false, nil
}

func valuesEqual(a, b interface{}) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// compareValues orders numbers, instants and strings. ok is false for
// values of different kinds.
func compareValues(a, b interface{}) (int, bool) {
	switch x := normalize(a).(type) {
	case float64:
		y, ok := normalize(b).(float64)
		if !ok {
			return 0, false
		}
		return cmpOrdered(x, y), true
	case time.Time:
		y, ok := normalize(b).(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case string:
		y, ok := normalize(b).(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	}
	return 0, false
}

func cmpOrdered(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC().Truncate(time.Millisecond)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	}
	return v
}

func asDoc(v interface{}) (bson.M, bool) {
	switch d := v.(type) {
	case bson.M:
		return d, true
	case map[string]interface{}:
		return bson.M(d), true
	case bson.D:
		m := make(bson.M, len(d))
		for _, e := range d {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}

func asSlice(v interface{}) ([]interface{}, bool) {
	switch s := v.(type) {
	case bson.A:
		return s, true
	case []interface{}:
		return s, true
	case []bson.M:
		out := make([]interface{}, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []string:
		out := make([]interface{}, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}
	return nil, false
}
