package tmpl

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/neurodesk/pagetmpl/pkg/i18n"
	"github.com/neurodesk/pagetmpl/pkg/numfmt"
)

// FilterFunc transforms a value. args are the literal arguments written in
// the template.
type FilterFunc func(value any, args ...any) (any, error)

// FilterRegistry maps filter names to functions.
type FilterRegistry struct {
	mu    sync.RWMutex
	funcs map[string]FilterFunc
}

func NewFilterRegistry() *FilterRegistry {
	return &FilterRegistry{funcs: map[string]FilterFunc{}}
}

// Register binds fn under name and every alias, replacing earlier bindings.
func (r *FilterRegistry) Register(name string, fn FilterFunc, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
	for _, a := range aliases {
		r.funcs[a] = fn
	}
}

func (r *FilterRegistry) Lookup(name string) (FilterFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *FilterRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.funcs))
}

// Clone returns an independent copy of r.
func (r *FilterRegistry) Clone() *FilterRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &FilterRegistry{funcs: maps.Clone(r.funcs)}
}

func (r *FilterRegistry) suggest(name string) string {
	return suggest(name, r.Names())
}

// suggest picks the closest candidate to name, or "" when nothing is close.
func suggest(name string, candidates []string) string {
	if ranks := fuzzy.RankFindFold(name, candidates); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// DefaultFilters holds the filters every new Engine starts with.
var DefaultFilters = builtinFilters()

// RegisterFilter adds a filter to DefaultFilters. Engines created afterwards
// see it.
func RegisterFilter(name string, fn FilterFunc, aliases ...string) {
	DefaultFilters.Register(name, fn, aliases...)
}

func builtinFilters() *FilterRegistry {
	r := NewFilterRegistry()
	r.Register("default", filterDefault)
	r.Register("escape", filterEscape, "e")
	r.Register("safe", filterSafe)
	r.Register("length", filterLength, "len", "count")
	r.Register("json", filterJSON)
	r.Register("gettext", TranslateFilter(i18n.Identity{}), "_", "trans")
	r.Register("to_places", filterToPlaces)
	for places := 0; places <= 2; places++ {
		r.Register(fmt.Sprintf("to%d", places), fixedPlaces(places))
	}
	r.Register("upper", textFilter(strings.ToUpper))
	r.Register("lower", textFilter(strings.ToLower))
	r.Register("title", textFilter(func(s string) string {
		return cases.Title(language.Und).String(s)
	}))
	r.Register("items", filterItems)
	r.Register("join", filterJoin)
	r.Register("first", filterFirst)
	r.Register("last", filterLast)
	r.Register("striptags", filterStripTags)
	return r
}

func filterDefault(v any, args ...any) (any, error) {
	if Truthy(v) {
		return v, nil
	}
	if len(args) == 0 {
		return "", nil
	}
	return args[0], nil
}

func filterEscape(v any, _ ...any) (any, error) {
	if _, ok := toFloat(v); ok {
		return v, nil
	}
	return escapeText(v), nil
}

func filterSafe(v any, _ ...any) (any, error) {
	if s, ok := v.(Safe); ok {
		return s, nil
	}
	return Safe(toText(v)), nil
}

func filterLength(v any, _ ...any) (any, error) {
	if isNone(v) {
		return 0, nil
	}
	if s, ok := toStringValue(v); ok {
		return utf8.RuneCountInString(s), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len(), nil
	}
	return nil, fmt.Errorf("object of type %T has no length", v)
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func filterJSON(v any, _ ...any) (any, error) {
	switch t := v.(type) {
	case Undefined:
		v = nil
	case numfmt.Fixed:
		return Safe(t.String()), nil
	}
	out, err := jsonAPI.MarshalToString(v)
	if err != nil {
		return nil, err
	}
	return Safe(out), nil
}

// TranslateFilter returns a gettext filter backed by tr.
func TranslateFilter(tr i18n.Translator) FilterFunc {
	return func(v any, _ ...any) (any, error) {
		return tr.Translate(toText(v)), nil
	}
}

func filterToPlaces(v any, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("to_places expects 1 argument, got %d", len(args))
	}
	places, err := toInt(args[0])
	if err != nil {
		return nil, err
	}
	return fixedPlaces(places)(v)
}

func fixedPlaces(places int) FilterFunc {
	return func(v any, _ ...any) (any, error) {
		if isNone(v) {
			return v, nil
		}
		return numfmt.NewFixed(v, places)
	}
}

func textFilter(fn func(string) string) FilterFunc {
	return func(v any, _ ...any) (any, error) {
		out := fn(toText(v))
		if _, ok := v.(Safe); ok {
			return Safe(out), nil
		}
		return out, nil
	}
}

// filterItems turns a map into key/value pairs sorted by key.
func filterItems(v any, _ ...any) (any, error) {
	if isNone(v) {
		return []any{}, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("items expects a mapping, got %T", v)
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return toText(keys[i].Interface()) < toText(keys[j].Interface())
	})
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, []any{k.Interface(), rv.MapIndex(k).Interface()})
	}
	return out, nil
}

func filterJoin(v any, args ...any) (any, error) {
	sep := ""
	if len(args) > 0 {
		sep = toText(args[0])
	}
	items, err := iterate(v)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = toText(item)
	}
	return strings.Join(parts, sep), nil
}

func filterFirst(v any, _ ...any) (any, error) {
	items, err := iterate(v)
	if err != nil || len(items) == 0 {
		return Undefined{}, err
	}
	return items[0], nil
}

func filterLast(v any, _ ...any) (any, error) {
	items, err := iterate(v)
	if err != nil || len(items) == 0 {
		return Undefined{}, err
	}
	return items[len(items)-1], nil
}

var stripPolicy = bluemonday.StrictPolicy()

func filterStripTags(v any, _ ...any) (any, error) {
	return Safe(stripPolicy.Sanitize(toText(v))), nil
}
