package entity

import (
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
)

// Entity is a persisted record with a numeric primary key. Zero means the
// record has not been stored yet.
type Entity interface {
	GetID() uint
}

// Field is an addressable scalar property of an entity type.
type Field struct {
	Name      string
	JSON      string
	Type      reflect.Type
	WriteOnly bool

	index []int
	get   func(v reflect.Value) interface{}
}

// Numeric reports whether the field holds a number and so supports ranges.
func (f *Field) Numeric() bool {
	switch f.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Value reads the field from instance, which must be a pointer to the
// described struct or the struct itself.
func (f *Field) Value(instance interface{}) interface{} {
	return f.get(reflect.Indirect(reflect.ValueOf(instance)))
}

// Relation is a reference from one entity type to another, either a single
// pointer or a collection.
type Relation struct {
	Name   string
	JSON   string
	Target reflect.Type
	Many   bool

	index []int
}

// Descriptor is the property map of one entity type. It is built once per
// type and shared.
type Descriptor struct {
	Type      reflect.Type
	Name      string
	Fields    []*Field
	Relations []*Relation

	fields    map[string][]*Field
	relations map[string][]*Relation
}

var descriptors sync.Map

// DescriptorOf returns the descriptor of T.
func DescriptorOf[T any]() *Descriptor {
	return Describe(reflect.TypeOf((*T)(nil)).Elem())
}

// Describe returns the descriptor of the struct type t, building and caching
// it on first use.
func Describe(t reflect.Type) *Descriptor {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if d, ok := descriptors.Load(t); ok {
		return d.(*Descriptor)
	}
	d := &Descriptor{
		Type:      t,
		Name:      lowerFirst(t.Name()),
		fields:    make(map[string][]*Field),
		relations: make(map[string][]*Relation),
	}
	d.collect(t, nil)
	actual, _ := descriptors.LoadOrStore(t, d)
	return actual.(*Descriptor)
}

var timeType = reflect.TypeOf(time.Time{})

func (d *Descriptor) collect(t reflect.Type, prefix []int) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			d.collect(sf.Type, index)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		jsonName, hidden := jsonTag(sf)
		if target, many, ok := relationTarget(sf.Type); ok {
			if hidden {
				continue
			}
			r := &Relation{Name: sf.Name, JSON: jsonName, Target: target, Many: many, index: index}
			d.Relations = append(d.Relations, r)
			d.addRelation(r)
			continue
		}

		f := &Field{
			Name:      sf.Name,
			JSON:      jsonName,
			Type:      sf.Type,
			WriteOnly: hidden || strings.Contains(sf.Tag.Get("entity"), "writeonly"),
			index:     index,
		}
		f.get = func(v reflect.Value) interface{} {
			return v.FieldByIndex(f.index).Interface()
		}
		d.Fields = append(d.Fields, f)
		if !f.WriteOnly {
			d.addField(f)
		}
	}
}

func (d *Descriptor) addField(f *Field) {
	for _, key := range keys(f.Name, f.JSON) {
		d.fields[key] = append(d.fields[key], f)
	}
}

func (d *Descriptor) addRelation(r *Relation) {
	for _, key := range keys(r.Name, r.JSON) {
		d.relations[key] = append(d.relations[key], r)
	}
}

// ResolveField finds the readable scalar field called name. The first
// character of name is matched case-insensitively against the Go field name
// and the JSON name; anything else must match exactly.
func (d *Descriptor) ResolveField(name string) (*Field, error) {
	matches := d.fields[upperFirst(name)]
	switch len(matches) {
	case 0:
		return nil, apperr.Validation("%s has no field %q", d.Name, name)
	case 1:
		return matches[0], nil
	}
	return nil, apperr.Validation("field %q is ambiguous on %s", name, d.Name)
}

// ResolveRelation finds the relation called name, matched like ResolveField.
func (d *Descriptor) ResolveRelation(name string) (*Relation, error) {
	matches := d.relations[upperFirst(name)]
	switch len(matches) {
	case 0:
		return nil, apperr.Validation("%s has no relation %q", d.Name, name)
	case 1:
		return matches[0], nil
	}
	return nil, apperr.Validation("relation %q is ambiguous on %s", name, d.Name)
}

// ResolvePath turns a dotted relation path such as "sections.course" into
// the canonical preload path "Sections.Course".
func (d *Descriptor) ResolvePath(path string) (string, error) {
	segments := strings.Split(path, ".")
	names := make([]string, 0, len(segments))
	cur := d
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return "", apperr.Validation("empty relation in %q", path)
		}
		r, err := cur.ResolveRelation(seg)
		if err != nil {
			return "", err
		}
		names = append(names, r.Name)
		cur = Describe(r.Target)
	}
	return strings.Join(names, "."), nil
}

// ResolvePaths resolves every path. An empty list is an error; so is any
// single unresolvable path.
func (d *Descriptor) ResolvePaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, apperr.Validation("no relations named")
	}
	out := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		resolved, err := d.ResolvePath(p)
		if err != nil {
			return nil, err
		}
		if !seen[resolved] {
			seen[resolved] = true
			out = append(out, resolved)
		}
	}
	return out, nil
}

// SplitRelated splits the comma-separated relation list of a request.
func SplitRelated(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func relationTarget(t reflect.Type) (reflect.Type, bool, bool) {
	many := false
	if t.Kind() == reflect.Slice {
		many = true
		t = t.Elem()
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return nil, false, false
	}
	if many || reflect.PointerTo(t).Implements(entityType) {
		return t, many, true
	}
	return nil, false, false
}

var entityType = reflect.TypeOf((*Entity)(nil)).Elem()

func jsonTag(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return sf.Name, true
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		name = sf.Name
	}
	return name, false
}

func keys(name, jsonName string) []string {
	a, b := upperFirst(name), upperFirst(jsonName)
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}
