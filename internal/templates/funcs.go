package templates

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
)

// FuncMap returns the functions available to every template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"camelize":      inflect.Camelize,
		"camelizeLower": inflect.CamelizeDownFirst,
		"pascal":        inflect.Camelize,
		"underscore":    inflect.Underscore,
		"dasherize":     inflect.Dasherize,
		"pluralize":     inflect.Pluralize,
		"singularize":   inflect.Singularize,
		"lowerFirst":    lowerFirst,
		"upperFirst":    upperFirst,
		"join":          strings.Join,
		"json":          toJSON,
		"quote":         strconv.Quote,
		"tsString":      TSString,
		"tsLiteral":     TSLiteral,
	}
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var tsStringReplacer = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// TSString quotes s as a single-quoted TypeScript string literal.
func TSString(s string) string {
	return "'" + tsStringReplacer.Replace(s) + "'"
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// TSLiteral renders v as a TypeScript expression. Object keys are sorted so
// the output is stable across runs.
func TSLiteral(v any) string {
	var sb strings.Builder
	writeLiteral(&sb, v)
	return sb.String()
}

func writeLiteral(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
		return
	case string:
		sb.WriteString(TSString(val))
		return
	case bool:
		sb.WriteString(strconv.FormatBool(val))
		return
	case float32:
		sb.WriteString(strconv.FormatFloat(float64(val), 'g', -1, 32))
		return
	case float64:
		sb.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
		return
	case map[string]any:
		writeObject(sb, val)
		return
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fmt.Fprint(sb, v)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			sb.WriteString("null")
			return
		}
		writeLiteral(sb, rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			sb.WriteString("{}")
			return
		}
		obj := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			obj[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		writeObject(sb, obj)
	case reflect.Slice, reflect.Array:
		sb.WriteString("[")
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeLiteral(sb, rv.Index(i).Interface())
		}
		sb.WriteString("]")
	default:
		sb.WriteString(TSString(fmt.Sprint(v)))
	}
}

func writeObject(sb *strings.Builder, obj map[string]any) {
	if len(obj) == 0 {
		sb.WriteString("{}")
		return
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteString("{ ")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		if identifierRe.MatchString(k) {
			sb.WriteString(k)
		} else {
			sb.WriteString(TSString(k))
		}
		sb.WriteString(": ")
		writeLiteral(sb, obj[k])
	}
	sb.WriteString(" }")
}
