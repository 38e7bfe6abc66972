package raw

// Dict is a PDF dictionary that remembers insertion order.
type Dict struct {
	keys []Name
	vals map[Name]Object
}

func NewDict() *Dict { return &Dict{vals: make(map[Name]Object)} }

func (d *Dict) Type() string     { return "dict" }
func (d *Dict) IsIndirect() bool { return false }
func (d *Dict) Len() int         { return len(d.keys) }

func (d *Dict) Get(key Name) (Object, bool) {
	if d == nil {
		return nil, false
	}
	o, ok := d.vals[key]
	return o, ok
}

// Set stores value under key. An existing key keeps its position.
func (d *Dict) Set(key Name, value Object) {
	if d.vals == nil {
		d.vals = make(map[Name]Object)
	}
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = value
}

func (d *Dict) Delete(key Name) {
	if _, ok := d.vals[key]; !ok {
		return
	}
	delete(d.vals, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Name {
	if d == nil {
		return nil
	}
	out := make([]Name, len(d.keys))
	copy(out, d.keys)
	return out
}

// Range calls fn for each entry in order until fn returns false.
func (d *Dict) Range(fn func(key Name, value Object) bool) {
	if d == nil {
		return
	}
	for _, k := range d.keys {
		if !fn(k, d.vals[k]) {
			return
		}
	}
}

// Clone returns a shallow copy.
func (d *Dict) Clone() *Dict {
	c := &Dict{keys: make([]Name, len(d.keys)), vals: make(map[Name]Object, len(d.vals))}
	copy(c.keys, d.keys)
	for k, v := range d.vals {
		c.vals[k] = v
	}
	return c
}

// DeepCopy returns o with every array, dictionary, stream and string
// payload copied. References and scalars are shared.
func DeepCopy(o Object) Object {
	switch v := o.(type) {
	case String:
		return String{Bytes: append([]byte(nil), v.Bytes...), Hex: v.Hex}
	case *Array:
		if v == nil {
			return v
		}
		items := make([]Object, len(v.Items))
		for i, it := range v.Items {
			items[i] = DeepCopy(it)
		}
		return &Array{Items: items}
	case *Dict:
		if v == nil {
			return v
		}
		c := &Dict{keys: make([]Name, len(v.keys)), vals: make(map[Name]Object, len(v.vals))}
		copy(c.keys, v.keys)
		for k, x := range v.vals {
			c.vals[k] = DeepCopy(x)
		}
		return c
	case *Stream:
		if v == nil {
			return v
		}
		var d *Dict
		if v.Dict != nil {
			d = DeepCopy(v.Dict).(*Dict)
		}
		return &Stream{Dict: d, Data: append([]byte(nil), v.Data...)}
	}
	return o
}

func (d *Dict) Name(key Name) (Name, bool) {
	o, _ := d.Get(key)
	n, ok := o.(Name)
	return n, ok
}

// Int returns a direct integer value.
func (d *Dict) Int(key Name) (int64, bool) {
	o, _ := d.Get(key)
	n, ok := o.(Number)
	if !ok || !n.IsInteger() {
		return 0, false
	}
	return n.Int(), true
}

func (d *Dict) Ref(key Name) (*Reference, bool) {
	o, _ := d.Get(key)
	r, ok := o.(*Reference)
	return r, ok
}

func (d *Dict) Dict(key Name) (*Dict, bool) {
	o, _ := d.Get(key)
	v, ok := o.(*Dict)
	return v, ok
}

func (d *Dict) Array(key Name) (*Array, bool) {
	o, _ := d.Get(key)
	v, ok := o.(*Array)
	return v, ok
}

// IsType reports whether /Type equals typ.
func (d *Dict) IsType(typ Name) bool {
	n, ok := d.Name("Type")
	return ok && n == typ
}
