package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"vedexpert/internal"
	"vedexpert/internal/util"
)

var ErrProductArrayNotFound = errors.New("no product array found in catalog document")

type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load catalog from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var (
	codeKeys          = []string{"code", "код"}
	nameKeys          = []string{"name", "название"}
	descriptionKeys   = []string{"description", "описание"}
	groupKeys         = []string{"group", "группа"}
	dutiesKeys        = []string{"duties", "пошлины", "пошлина"}
	certificationKeys = []string{"certification", "сертификация"}
	restrictionKeys   = []string{"restrictions", "ограничения"}

	rateNumber = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

var dutyKeyAliases = map[string]string{
	"base":       "base",
	"default":    "base",
	"базовая":    "base",
	"общая":      "base",
	"china":      "china",
	"cn":         "china",
	"китай":      "china",
	"eu":         "eu",
	"ес":         "eu",
	"европа":     "eu",
	"usa":        "usa",
	"us":         "usa",
	"сша":        "usa",
	"belarus":    "belarus",
	"by":         "belarus",
	"беларусь":   "belarus",
	"kazakhstan": "kazakhstan",
	"kz":         "kazakhstan",
	"казахстан":  "kazakhstan",
}

// object keeps JSON object keys in document order so the product array
// discovery is deterministic.
type object struct {
	keys   []string
	values map[string]any
}

func (o *object) first(keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := o.values[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Decode reads a catalog document and returns its tariff entries in
// document order. Records without a code are skipped.
func Decode(r io.Reader) ([]internal.TariffEntry, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	root, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode catalog json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode catalog json: unexpected trailing data")
	}

	products, ok := findProductArray(root)
	if !ok {
		return nil, ErrProductArrayNotFound
	}

	entries := make([]internal.TariffEntry, 0, len(products))
	for _, raw := range products {
		obj, ok := raw.(*object)
		if !ok {
			continue
		}
		entry, ok := toTariffEntry(obj)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := &object{values: map[string]any{}}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			if _, dup := obj.values[key]; !dup {
				obj.keys = append(obj.keys, key)
			}
			obj.values[key] = value
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

// findProductArray returns the first list whose first element is an object
// carrying a code or name field. Only objects are descended into.
func findProductArray(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		if len(t) == 0 {
			return nil, false
		}
		first, ok := t[0].(*object)
		if !ok {
			return nil, false
		}
		for _, k := range []string{"code", "код", "name", "название"} {
			if _, has := first.values[k]; has {
				return t, true
			}
		}
		return nil, false
	case *object:
		for _, k := range t.keys {
			if found, ok := findProductArray(t.values[k]); ok {
				return found, true
			}
		}
	}
	return nil, false
}

func toTariffEntry(obj *object) (internal.TariffEntry, bool) {
	code := util.NormalizeCode(scalarString(obj, codeKeys))
	if code == "" {
		return internal.TariffEntry{}, false
	}

	entry := internal.TariffEntry{
		Code:        code,
		Name:        scalarString(obj, nameKeys),
		Description: scalarString(obj, descriptionKeys),
		Group:       scalarString(obj, groupKeys),
		Duties:      map[string]float64{},
	}

	if raw, ok := obj.first(dutiesKeys); ok {
		entry.Duties = toDuties(raw)
	}
	if raw, ok := obj.first(certificationKeys); ok {
		entry.Certification = toCertification(raw)
	}
	if raw, ok := obj.first(restrictionKeys); ok {
		entry.Restrictions = toStringList(raw)
	}
	return entry, true
}

func scalarString(obj *object, keys []string) string {
	raw, ok := obj.first(keys)
	if !ok {
		return ""
	}
	return strings.TrimSpace(toString(raw))
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func toDuties(raw any) map[string]float64 {
	out := map[string]float64{}
	switch t := raw.(type) {
	case *object:
		for _, k := range t.keys {
			key := canonicalDutyKey(k)
			if rate, ok := toRate(t.values[k]); ok {
				out[key] = rate
			}
		}
	default:
		if rate, ok := toRate(t); ok {
			out["base"] = rate
		}
	}
	return out
}

func canonicalDutyKey(k string) string {
	norm := util.NormalizeText(k)
	if alias, ok := dutyKeyAliases[norm]; ok {
		return alias
	}
	return norm
}

func toRate(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		token := rateNumber.FindString(t)
		if token == "" {
			return 0, false
		}
		return util.ParseNumber(token)
	}
	return 0, false
}

func toCertification(raw any) []string {
	if obj, ok := raw.(*object); ok {
		if typ, ok := obj.first([]string{"type", "тип"}); ok {
			return toStringList(typ)
		}
		return nil
	}
	return toStringList(raw)
}

func toStringList(raw any) []string {
	switch t := raw.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(toString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case *object:
		out := make([]string, 0, len(t.keys))
		for _, k := range t.keys {
			if s := strings.TrimSpace(toString(t.values[k])); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := strings.TrimSpace(toString(t)); s != "" {
			return []string{s}
		}
		return nil
	}
}
