package compare

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

type decodeFunc func([]byte) (interface{}, error)

func decodeJSON(data []byte) (interface{}, error) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func decodeYAML(data []byte) (interface{}, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeTOML(data []byte) (interface{}, error) {
	var v map[string]interface{}
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// compareStructured decodes both documents and compares them as values.
// Key order and formatting are irrelevant; numbers are compared within the
// comparator's tolerance. If either side fails to decode the documents are
// compared as text.
func (c *Comparator) compareStructured(want, got []byte, decode decodeFunc) string {
	wantVal, err := decode(want)
	if err != nil {
		return fmt.Sprintf("baseline does not parse (%v); text diff:\n%s", err, lineDiff(string(want), string(got)))
	}
	gotVal, err := decode(got)
	if err != nil {
		return fmt.Sprintf("output does not parse (%v); text diff:\n%s", err, lineDiff(string(want), string(got)))
	}

	opt := cmp.Comparer(c.numbersEqual)
	wantVal, gotVal = normalize(wantVal), normalize(gotVal)
	if cmp.Equal(wantVal, gotVal, opt) {
		return ""
	}
	return cmp.Diff(wantVal, gotVal, opt)
}

// number is a decoded numeric value. Integers keep their exact decimal
// form in Int; Float holds the nearest float64 either way.
type number struct {
	Int   string
	Float float64
}

func (n number) String() string {
	if n.Int != "" {
		return n.Int
	}
	return strconv.FormatFloat(n.Float, 'g', -1, 64)
}

func intNumber(i *big.Int) number {
	f, _ := new(big.Float).SetInt(i).Float64()
	return number{Int: i.String(), Float: f}
}

// numbersEqual compares two integers exactly and anything else within the
// comparator's tolerance.
func (c *Comparator) numbersEqual(a, b number) bool {
	if a.Int != "" && b.Int != "" {
		return a.Int == b.Int
	}
	return c.withinTol(a.Float, b.Float)
}

// jsonNumber converts a JSON number literal. Literals without a fraction or
// exponent are integers of any size.
func jsonNumber(n json.Number) interface{} {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, ok := new(big.Int).SetString(s, 10); ok {
			return intNumber(i)
		}
	}
	if f, err := n.Float64(); err == nil {
		return number{Float: f}
	}
	return s
}

// normalize converts decoded documents to a common shape: every number
// becomes a number and every map gets string keys, so documents produced by
// different decoders (or with different integer widths) compare equal.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case json.Number:
		return jsonNumber(t)
	case int:
		return intNumber(big.NewInt(int64(t)))
	case int64:
		return intNumber(big.NewInt(t))
	case uint64:
		return intNumber(new(big.Int).SetUint64(t))
	case float32:
		return number{Float: float64(t)}
	case float64:
		return number{Float: t}
	default:
		return v
	}
}
