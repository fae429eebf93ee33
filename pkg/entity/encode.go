package entity

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Marshal renders an entity, a pointer to one, or a slice of them as JSON.
// Unloaded relations and write-only fields are omitted. Relations that point
// back at the type they were reached from are dropped, and a record already
// on the current path is never emitted again, so cyclic graphs terminate.
func Marshal(v interface{}) ([]byte, error) {
	enc := &encoder{path: make(map[visit]bool)}
	out, _ := enc.value(reflect.ValueOf(v), nil)
	return json.Marshal(out)
}

type visit struct {
	t  reflect.Type
	id uint
}

type encoder struct {
	path map[visit]bool
}

type member struct {
	key   string
	value interface{}
}

// object is a JSON object that keeps its member order.
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		val, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (enc *encoder) value(v reflect.Value, from reflect.Type) (interface{}, bool) {
	if !v.IsValid() {
		return nil, true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil, true
		}
		return enc.value(v.Elem(), from)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Interface(), true
		}
		arr := make([]interface{}, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			if x, ok := enc.value(v.Index(i), from); ok {
				arr = append(arr, x)
			}
		}
		return arr, true
	case reflect.Struct:
		if _, isEntity := asEntity(v); isEntity {
			return enc.object(v, from)
		}
	}
	return v.Interface(), true
}

func (enc *encoder) object(v reflect.Value, from reflect.Type) (interface{}, bool) {
	d := Describe(v.Type())
	ent, _ := asEntity(v)
	key := visit{t: d.Type, id: ent.GetID()}
	if enc.path[key] {
		return nil, false
	}
	enc.path[key] = true
	defer delete(enc.path, key)

	obj := make(object, 0, len(d.Fields)+len(d.Relations))
	for _, f := range d.Fields {
		if f.WriteOnly {
			continue
		}
		obj = append(obj, member{key: f.JSON, value: f.get(v)})
	}
	for _, r := range d.Relations {
		if from != nil && r.Target == from {
			continue
		}
		rv := v.FieldByIndex(r.index)
		if (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Slice) && rv.IsNil() {
			continue
		}
		x, ok := enc.value(rv, d.Type)
		if !ok {
			continue
		}
		obj = append(obj, member{key: r.JSON, value: x})
	}
	return obj, true
}

func asEntity(v reflect.Value) (Entity, bool) {
	if v.CanAddr() {
		e, ok := v.Addr().Interface().(Entity)
		return e, ok
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	e, ok := p.Interface().(Entity)
	return e, ok
}
